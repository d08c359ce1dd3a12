package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// BearerToken extracts the token from an Authorization header value. The
// scheme is optional and case-insensitive.
func BearerToken(raw string) (string, error) {
	parts := strings.Fields(raw)
	if len(parts) > 0 && strings.EqualFold(parts[0], "bearer") {
		parts = parts[1:]
	}
	if len(parts) != 1 {
		return "", ErrInvalidToken
	}
	return parts[0], nil
}
