package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dan9191/asset-service/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signToken(t *testing.T, subject, email, key string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func serve(t *testing.T, req *http.Request) (Owner, int) {
	t.Helper()
	var got Owner
	h := AuthMiddleware(&config.Config{JWTSecret: secret})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = OwnerFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, rec.Code
}

func TestAuthMiddlewareHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserUID, "u1")
	req.Header.Set(HeaderUserEmail, "u1@example.com")

	owner, code := serve(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, Owner{UID: "u1", Email: "u1@example.com"}, owner)
}

func TestAuthMiddlewareBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u2", "u2@example.com", secret))

	owner, code := serve(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, Owner{UID: "u2", Email: "u2@example.com"}, owner)
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u2", "", "other-secret"))

	_, code := serve(t, req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthMiddlewareAnonymous(t *testing.T) {
	owner, code := serve(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, Owner{}, owner)
}
