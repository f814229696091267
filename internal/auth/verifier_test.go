package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/config"
	"docflow/internal/model"
)

var secret = []byte("test-secret-at-least-32-bytes-long!!")

func sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func baseClaims() *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "https://idp.example.com/auth/v1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "user-1@example.com",
		Role:  "authenticated",
	}
}

func TestJWTVerifier_Verify(t *testing.T) {
	v := NewHMACVerifier(secret, "https://idp.example.com/auth/v1", zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name     string
		token    func(t *testing.T) string
		wantErr  bool
		wantRole model.Role
	}{
		{
			name:     "default role is client",
			token:    func(t *testing.T) string { return sign(t, baseClaims()) },
			wantRole: model.RoleClient,
		},
		{
			name: "app metadata role",
			token: func(t *testing.T) string {
				c := baseClaims()
				c.AppMetadata = map[string]any{"role": "approver"}
				c.UserMetadata = map[string]any{"role": "admin"}
				return sign(t, c)
			},
			wantRole: model.RoleApprover,
		},
		{
			name: "falls back to user metadata",
			token: func(t *testing.T) string {
				c := baseClaims()
				c.AppMetadata = map[string]any{"provider": "email"}
				c.UserMetadata = map[string]any{"role": "admin"}
				return sign(t, c)
			},
			wantRole: model.RoleAdmin,
		},
		{
			name: "unknown role ignored",
			token: func(t *testing.T) string {
				c := baseClaims()
				c.AppMetadata = map[string]any{"role": "superuser"}
				return sign(t, c)
			},
			wantRole: model.RoleClient,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				c := baseClaims()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return sign(t, c)
			},
			wantErr: true,
		},
		{
			name: "missing expiry",
			token: func(t *testing.T) string {
				c := baseClaims()
				c.ExpiresAt = nil
				return sign(t, c)
			},
			wantErr: true,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				c := baseClaims()
				c.Issuer = "https://evil.example.com"
				return sign(t, c)
			},
			wantErr: true,
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				c := baseClaims()
				c.Subject = ""
				return sign(t, c)
			},
			wantErr: true,
		},
		{
			name: "anonymous",
			token: func(t *testing.T) string {
				c := baseClaims()
				c.Role = "anon"
				return sign(t, c)
			},
			wantErr: true,
		},
		{
			name: "bad signature",
			token: func(t *testing.T) string {
				s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims()).SignedString([]byte("other-secret"))
				require.NoError(t, err)
				return s
			},
			wantErr: true,
		},
		{
			name: "algorithm not allowed",
			token: func(t *testing.T) string {
				key, err := rsa.GenerateKey(rand.Reader, 2048)
				require.NoError(t, err)
				s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims()).SignedString(key)
				require.NoError(t, err)
				return s
			},
			wantErr: true,
		},
		{
			name:    "empty",
			token:   func(t *testing.T) string { return "" },
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func(t *testing.T) string { return "not.a.jwt" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(ctx, tt.token(t))
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrUnauthorized)
				assert.Empty(t, id.UserID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", id.UserID)
			assert.Equal(t, "user-1@example.com", id.Email)
			assert.Equal(t, tt.wantRole, id.Role)
		})
	}
}

func TestNew(t *testing.T) {
	v, err := New(context.Background(), config.AuthConfig{Secret: string(secret)}, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, v)

	_, err = New(context.Background(), config.AuthConfig{}, zerolog.Nop())
	assert.Error(t, err)
}
