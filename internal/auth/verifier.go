// Package auth verifies bearer tokens issued by the identity provider and turns
// them into a model.Identity. Identity is trusted as given once the signature checks out.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"docflow/internal/config"
	"docflow/internal/model"
)

// Verifier validates a token string and returns the caller identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.Identity, error)
}

// JWTVerifier implements Verifier for asymmetric (JWKS) and HS256 tokens.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
	log     zerolog.Logger
}

var errUnauthorized = &model.UnauthorizedError{Message: "invalid or expired token"}

// New picks the verification mode from cfg. A JWKS URL wins over a shared secret.
func New(ctx context.Context, cfg config.AuthConfig, log zerolog.Logger) (*JWTVerifier, error) {
	switch {
	case cfg.JWKSURL != "":
		return NewJWKSVerifier(ctx, cfg.JWKSURL, cfg.Issuer, log)
	case cfg.Secret != "":
		return NewHMACVerifier([]byte(cfg.Secret), cfg.Issuer, log), nil
	}
	return nil, errors.New("auth: either AUTH_JWKS_URL or AUTH_JWT_SECRET is required")
}

// NewJWKSVerifier fetches public keys from the JWKS endpoint. keyfunc caches
// them and refreshes in the background until ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer string, log zerolog.Logger) (*JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	log.Info().Str("component", "auth").Str("jwks_url", jwksURL).Msg("JWT verifier initialized")
	return newVerifier(jwks.Keyfunc, []string{"RS256", "ES256"}, issuer, log), nil
}

// NewHMACVerifier verifies HS256 tokens signed with secret.
func NewHMACVerifier(secret []byte, issuer string, log zerolog.Logger) *JWTVerifier {
	kf := func(*jwt.Token) (any, error) { return secret, nil }
	log.Info().Str("component", "auth").Str("mode", "hs256").Msg("JWT verifier initialized")
	return newVerifier(kf, []string{"HS256"}, issuer, log)
}

func newVerifier(kf jwt.Keyfunc, algs []string, issuer string, log zerolog.Logger) *JWTVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWTVerifier{
		keyfunc: kf,
		parser:  jwt.NewParser(opts...),
		log:     log.With().Str("component", "auth").Logger(),
	}
}

// Verify parses and validates token. Every failure is an UnauthorizedError.
func (v *JWTVerifier) Verify(_ context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, &model.UnauthorizedError{Message: "missing bearer token"}
	}

	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, v.keyfunc)
	if err != nil || !parsed.Valid {
		v.log.Debug().Err(err).Msg("token rejected")
		return model.Identity{}, errUnauthorized
	}

	if claims.Subject == "" {
		v.log.Debug().Msg("token missing subject claim")
		return model.Identity{}, errUnauthorized
	}
	if claims.Role == "anon" || claims.IsAnonymous {
		v.log.Debug().Str("user_id", claims.Subject).Msg("anonymous token rejected")
		return model.Identity{}, errUnauthorized
	}

	return claims.Identity(), nil
}
