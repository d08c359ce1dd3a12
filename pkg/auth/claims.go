package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims mirrors the token the commerce backend issues to the app.
// The backend stores the user id under "_id"; "sub" is accepted as a fallback.
type AccessTokenClaims struct {
	LegacyID string `json:"_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the identifier of the authenticated shopper.
func (c *AccessTokenClaims) UserID() string {
	if id := strings.TrimSpace(c.LegacyID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Subject)
}
