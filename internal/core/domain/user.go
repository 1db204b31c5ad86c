package domain

import "time"

// Role is the coarse authorization level carried by a user and its session tokens.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// User models an account as stored. It is never rendered to clients directly;
// use Public to obtain the client-facing view.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the sanitized view of a User. It has no password hash field,
// so nothing that serializes a PublicUser can leak one.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public projects u onto its client-facing view.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Identity is the caller asserted by a verified session token.
type Identity struct {
	UserID string
	Role   Role
}

// SessionClaims is the verified content of a session token.
type SessionClaims struct {
	Subject   string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity returns the caller identity asserted by the claims.
func (c *SessionClaims) Identity() Identity {
	return Identity{UserID: c.Subject, Role: c.Role}
}
