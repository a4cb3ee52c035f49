// Package auth is the role guard in front of the staff-facing endpoints:
// who may change an order's status, who may restock. Token issuance lives
// with the identity service; we only verify and gate.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer    Role = "CUSTOMER"
	RoleBarista     Role = "BARISTA"
	RoleDataAnalyst Role = "DATA_ANALYST"
	RoleAdmin       Role = "ADMIN"
	RoleSuperAdmin  Role = "SUPERADMIN"
)

// Staff is everyone allowed on the KDS and status-update endpoints.
var Staff = []Role{RoleBarista, RoleAdmin, RoleSuperAdmin}

type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

var errUnexpectedMethod = errors.New("unexpected signing method")

func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedMethod
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SignToken issues an HS256 token with the user id as subject. Used by tests
// and local tooling; production tokens come from the identity service.
func SignToken(secret string, userID uuid.UUID, role Role, ttl time.Duration) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type ctxKey struct{}

func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

// UserID resolves the authenticated user id from the token subject.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	c, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RequireRole verifies the bearer token and rejects callers whose role is not
// in the allow list. Claims land in the request context for handlers.
func RequireRole(secret string, allowed ...Role) func(http.Handler) http.Handler {
	allowSet := make(map[Role]bool, len(allowed))
	for _, r := range allowed {
		allowSet[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(secret, token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if len(allowSet) > 0 && !allowSet[claims.Role] {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
		})
	}
}
