package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"pixcards/internal/domain"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `u.id, u.email, u.name, u.password_hash, u.role`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := getx(ctx, r.db, &u, `SELECT `+userCols+` FROM users u WHERE LOWER(u.email) = LOWER(?)`, email); err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := getx(ctx, r.db, &u, `SELECT `+userCols+` FROM users u WHERE u.id = ?`, id); err != nil {
		return nil, notFound(err, "user %s", id)
	}
	return &u, nil
}

func (r *UserRepo) Insert(ctx context.Context, u domain.User) error {
	_, err := execx(ctx, r.db, `
		INSERT INTO users(id, email, name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING
	`, u.ID, u.Email, u.Name, u.Hash, u.Role, NowStamp())
	return err
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	now := NowStamp()
	_, err := execx(ctx, r.db, `
		INSERT INTO sessions(id, user_id, created_at, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = excluded.last_seen
	`, sid, userID, now, now)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := getx(ctx, r.db, &u, `
		SELECT `+userCols+`
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?
	`, sid)
	if err != nil {
		return nil, notFound(err, "session")
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := execx(ctx, r.db, `UPDATE sessions SET user_id = NULL, last_seen = ? WHERE id = ?`, NowStamp(), sid)
	return err
}
