package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Hash  string `db:"password_hash" json:"-"`
	Role  string `db:"role" json:"role"`
}

// Identity is what the session layer hands to the ledger for every request.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Owns reports whether the identity may act on a resource owned by userID.
func (i Identity) Owns(userID string) bool { return i.UserID != "" && i.UserID == userID }
