package session

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/pkg/domain"
)

var testSigningKey = []byte("test-signing-key")

// mintCredential signs a token the way the backend does, so decode tests run
// against realistically shaped credentials.
func mintCredential(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

func b64url(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestDecodeClaims(t *testing.T) {
	t.Run("rol claim drives the role", func(t *testing.T) {
		token := mintCredential(t, jwt.MapClaims{"rol": []string{"ROLE_ADMIN"}})
		claims, err := DecodeClaims(token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, claims.Role())
	})

	t.Run("roles claim is the fallback spelling", func(t *testing.T) {
		token := mintCredential(t, jwt.MapClaims{"roles": []string{"MEDIATOR"}})
		claims, err := DecodeClaims(token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMediator, claims.Role())
	})

	t.Run("rol wins over roles when both are present", func(t *testing.T) {
		token := mintCredential(t, jwt.MapClaims{
			"rol":   []string{"CLIENT"},
			"roles": []string{"ADMIN"},
		})
		claims, err := DecodeClaims(token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleClient, claims.Role())
	})

	t.Run("only the first role element is authoritative", func(t *testing.T) {
		token := mintCredential(t, jwt.MapClaims{"rol": []string{"MEDIATOR", "ADMIN"}})
		claims, err := DecodeClaims(token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMediator, claims.Role())
	})

	t.Run("no role claims yields RoleUnknown", func(t *testing.T) {
		token := mintCredential(t, jwt.MapClaims{"sub": "user-1"})
		claims, err := DecodeClaims(token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUnknown, claims.Role())
	})

	t.Run("missing exp means never expired", func(t *testing.T) {
		token := mintCredential(t, jwt.MapClaims{"rol": []string{"ADMIN"}})
		claims, err := DecodeClaims(token)
		require.NoError(t, err)
		assert.Nil(t, claims.ExpiresAt)
		assert.False(t, claims.Expired(time.Now().Add(100*365*24*time.Hour)))
	})

	t.Run("past exp is expired", func(t *testing.T) {
		token := mintCredential(t, jwt.MapClaims{
			"rol": []string{"ADMIN"},
			"exp": time.Now().Add(-time.Minute).Unix(),
		})
		claims, err := DecodeClaims(token)
		require.NoError(t, err)
		assert.True(t, claims.Expired(time.Now()))
	})

	t.Run("future exp is not expired", func(t *testing.T) {
		token := mintCredential(t, jwt.MapClaims{
			"rol": []string{"ADMIN"},
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		claims, err := DecodeClaims(token)
		require.NoError(t, err)
		assert.False(t, claims.Expired(time.Now()))
	})
}

func TestDecodeClaimsMalformed(t *testing.T) {
	header := b64url(`{"alg":"HS256","typ":"JWT"}`)

	cases := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"single segment", "nonsense"},
		{"two segments", "a.b"},
		{"four segments", "a.b.c.d"},
		{"payload not base64", header + ".!!!.sig"},
		{"payload not JSON", header + "." + b64url("not json") + ".sig"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := DecodeClaims(tc.token)
			require.ErrorIs(t, err, ErrMalformedCredential)
			assert.Nil(t, claims)
		})
	}
}
