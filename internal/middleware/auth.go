package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dan9191/asset-service/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Headers set by the gateway once it has authenticated the caller
const (
	HeaderUserUID   = "user-uid"
	HeaderUserEmail = "user-email"
)

type ownerKey struct{}

// Owner identifies the user a request acts for
type Owner struct {
	UID   string
	Email string
}

// Claims is the bearer token payload; the subject carries the user uid
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// OwnerFromContext returns the owner attached by AuthMiddleware, zero if none
func OwnerFromContext(ctx context.Context) Owner {
	owner, _ := ctx.Value(ownerKey{}).(Owner)
	return owner
}

// WithOwner attaches an owner to ctx
func WithOwner(ctx context.Context, owner Owner) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// AuthMiddleware resolves the request owner from the user-uid/user-email
// headers set by the gateway, or from a bearer token when JWT_SECRET is set.
// It never rejects: handlers decide whether an owner is required.
func AuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := Owner{
				UID:   strings.TrimSpace(r.Header.Get(HeaderUserUID)),
				Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
			}
			if owner.UID == "" && cfg.JWTSecret != "" {
				if token, ok := bearerToken(r); ok {
					if parsed, err := ParseToken(token, cfg.JWTSecret); err == nil {
						owner = parsed
					} else {
						http.Error(w, "invalid token", http.StatusUnauthorized)
						return
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

// ParseToken validates an HS256 token and returns the owner it names
func ParseToken(token, secret string) (Owner, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Owner{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.Subject == "" {
		return Owner{}, fmt.Errorf("token has no subject")
	}
	return Owner{UID: claims.Subject, Email: claims.Email}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[7:]), true
}
