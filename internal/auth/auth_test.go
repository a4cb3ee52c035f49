package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffeeco/order-engine/internal/auth"
)

const secret = "test-secret"

func TestSignAndParseToken(t *testing.T) {
	userID := uuid.New()

	token, err := auth.SignToken(secret, userID, auth.RoleBarista, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, auth.RoleBarista, claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := auth.SignToken(secret, uuid.New(), auth.RoleCustomer, time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := auth.SignToken(secret, uuid.New(), auth.RoleCustomer, -time.Minute)
	require.NoError(t, err)

	_, err = auth.ParseToken(secret, token)
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	userID := uuid.New()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := auth.UserID(r.Context())
		require.True(t, ok)
		assert.Equal(t, userID, got)
		w.WriteHeader(http.StatusNoContent)
	})

	barista, err := auth.SignToken(secret, userID, auth.RoleBarista, time.Hour)
	require.NoError(t, err)
	customer, err := auth.SignToken(secret, userID, auth.RoleCustomer, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		roles    []auth.Role
		header   string
		wantCode int
	}{
		{"staff token on staff route", auth.Staff, "Bearer " + barista, http.StatusNoContent},
		{"customer token on staff route", auth.Staff, "Bearer " + customer, http.StatusForbidden},
		{"any role allowed when unrestricted", nil, "Bearer " + customer, http.StatusNoContent},
		{"missing header", auth.Staff, "", http.StatusUnauthorized},
		{"not a bearer token", auth.Staff, "Basic abc", http.StatusUnauthorized},
		{"garbage token", auth.Staff, "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := auth.RequireRole(secret, tt.roles...)(next)

			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
