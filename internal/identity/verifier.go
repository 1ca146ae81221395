package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/torqhq/torq-backend/internal/config"
)

// Common verification errors.
var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
	ErrNoSubject    = errors.New("token has no subject")
)

// Claims are the fields this service reads from the identity provider's
// tokens. The subject is the opaque user identifier used to attribute
// test-session ownership; everything else is display-only.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// UserID returns the opaque user identifier carried by the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// Verifier validates bearer tokens issued by the external identity provider.
// This service never issues tokens; it only checks the signature and expiry
// of tokens minted elsewhere with the shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier from the configured shared secret.
func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{secret: []byte(cfg.JWTSecret)}
}

// Verify parses and validates a token string, returning its claims.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}

	return claims, nil
}
