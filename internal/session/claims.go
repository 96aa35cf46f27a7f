// Package session derives authentication state and the caller's role from
// the opaque bearer credential issued by the trading backend. Decoding is
// purely structural: the backend owns signature verification, the console
// only reads claims.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tradedesk/pkg/domain"
)

// ErrMalformedCredential marks a credential that does not decode: wrong
// segment count, bad base64 in the payload segment, or non-JSON claims.
// Callers treat it as "not authenticated", never as a crash.
var ErrMalformedCredential = errors.New("malformed credential")

// Claims is the subset of the credential payload the console consumes.
type Claims struct {
	// Rol and Roles are the two historical claim spellings. Only the first
	// element of whichever is present is authoritative; sessions carry a
	// single role.
	Rol   []string
	Roles []string

	// ExpiresAt is nil when the credential carries no exp claim.
	ExpiresAt *time.Time
}

// DecodeClaims structurally decodes a credential into its claims. No
// network, no side effects, no signature verification.
func DecodeClaims(token string) (*Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	claims := &Claims{
		Rol:   stringSlice(mapClaims["rol"]),
		Roles: stringSlice(mapClaims["roles"]),
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		claims.ExpiresAt = &t
	}
	return claims, nil
}

// Role returns the authoritative role: the first element of rol, else the
// first element of roles, normalized across alias spellings. RoleUnknown
// when neither claim is present.
func (c *Claims) Role() domain.Role {
	if len(c.Rol) > 0 {
		return domain.NormalizeRole(c.Rol[0])
	}
	if len(c.Roles) > 0 {
		return domain.NormalizeRole(c.Roles[0])
	}
	return domain.RoleUnknown
}

// Expired reports whether the credential's exp claim has passed. Credentials
// without exp never expire here.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
