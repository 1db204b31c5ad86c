package ports

import "github.com/sirpyerre/item-catalog/internal/core/domain"

// PasswordHasher hashes and verifies plaintext passwords. Both operations are
// deliberately slow; never call them while holding a shared lock.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify returns false, nil for a wrong password and an error only when
	// the stored hash is malformed.
	Verify(plaintext, hash string) (bool, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
}

// TokenVerifier checks session tokens. Every failure is domain.ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (*domain.SessionClaims, error)
}

// TokenService issues and verifies session tokens.
type TokenService interface {
	TokenIssuer
	TokenVerifier
}
