package entity

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Actor is the authenticated caller resolved from the access token.
type Actor struct {
	ID      string
	Name    string
	Email   string
	Role    Role
	TokenID string
	Expires time.Time
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
