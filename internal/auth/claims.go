package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"docflow/internal/model"
)

// Claims is the payload of an identity-provider access token (Supabase layout).
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
	Role         string         `json:"role"` // "authenticated" or "anon"
	IsAnonymous  bool           `json:"is_anonymous"`
}

// AppRole resolves the application role: app_metadata.role first, then
// user_metadata.role, then client.
func (c *Claims) AppRole() model.Role {
	for _, md := range []map[string]any{c.AppMetadata, c.UserMetadata} {
		if s, ok := md["role"].(string); ok && model.Role(s).Valid() {
			return model.Role(s)
		}
	}
	return model.RoleClient
}

// Identity converts verified claims into the caller identity.
func (c *Claims) Identity() model.Identity {
	return model.Identity{
		UserID: c.Subject,
		Email:  c.Email,
		Role:   c.AppRole(),
	}
}
