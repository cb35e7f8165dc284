package repos

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"pixcards/internal/domain"
)

//go:embed migrations
var migrations embed.FS

// OpenDB connects to sqlite or postgres and applies pending migrations.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case "sqlite":
		db, err = sqlx.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, err
		}
		// One connection keeps :memory: databases shared and serialises writers.
		db.SetMaxOpenConns(1)
	case "postgres":
		db, err = sqlx.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrateUp(db.DB, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// sqliteDSN turns on foreign key enforcement for every connection the pool opens,
// not just the first one.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func migrateUp(db *sql.DB, driver string) error {
	src, err := iofs.New(migrations, "migrations/"+driver)
	if err != nil {
		return err
	}
	var m *migrate.Migrate
	switch driver {
	case "sqlite":
		target, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite", target)
		if err != nil {
			return err
		}
	default:
		target, err := migratepgx.WithInstance(db, &migratepgx.Config{})
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", src, "pgx", target)
		if err != nil {
			return err
		}
	}
	// m.Close would close db as well, so the migrator is simply dropped.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

type txKey struct{}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return st.tx
	}
	return db
}

func getx(ctx context.Context, db *sqlx.DB, dest any, query string, args ...any) error {
	q := conn(ctx, db)
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func selectx(ctx context.Context, db *sqlx.DB, dest any, query string, args ...any) error {
	q := conn(ctx, db)
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

// execx returns the number of affected rows.
func execx(ctx context.Context, db *sqlx.DB, query string, args ...any) (int64, error) {
	q := conn(ctx, db)
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// inx expands IN (?) against a slice argument before rebinding.
func inx(query string, args ...any) (string, []any, error) {
	return sqlx.In(query, args...)
}

// Timestamps are fixed width UTC text so lexical order is chronological.
const stampLayout = "2006-01-02T15:04:05.000000Z"

// Now is the clock used for every persisted timestamp.
var Now = func() time.Time { return time.Now().UTC() }

func stamp(t time.Time) string { return t.UTC().Format(stampLayout) }

// NowStamp is the current time in the persisted layout.
func NowStamp() string { return stamp(Now()) }

// notFound maps sql.ErrNoRows to domain.ErrNotFound, keeping what was looked up in the message.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return err
}
