package identity

import (
	"context"
	"errors"
	"strings"

	"firebase.google.com/go/v4/auth"

	pkgauth "github.com/glowhaus/storefront-backend/pkg/auth"
	"github.com/glowhaus/storefront-backend/pkg/config"
	pkgerrors "github.com/glowhaus/storefront-backend/pkg/errors"
)

// Verifier turns a raw bearer token into a User.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier checks Firebase ID tokens.
type FirebaseVerifier struct {
	client idTokenVerifier
	policy AdminPolicy
}

// NewFirebaseVerifier wraps a firebase auth client (or anything with VerifyIDToken).
func NewFirebaseVerifier(client idTokenVerifier, policy AdminPolicy) (*FirebaseVerifier, error) {
	if client == nil {
		return nil, errors.New("firebase auth client required")
	}
	return &FirebaseVerifier{client: client, policy: policy}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*User, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	uid := strings.TrimSpace(decoded.UID)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid uid in token")
	}
	email := claimString(decoded.Claims, "email")
	name := claimString(decoded.Claims, "name")
	admin, _ := decoded.Claims["admin"].(bool)
	return &User{
		UID:         uid,
		Email:       email,
		DisplayName: name,
		Admin:       v.policy.IsAdmin(email, admin),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if raw, ok := claims[key]; ok {
		if s, ok := raw.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// JWTVerifier checks HS256 tokens minted with the shared secret. Used for local
// development and tests.
type JWTVerifier struct {
	cfg    config.AuthConfig
	policy AdminPolicy
}

func NewJWTVerifier(cfg config.AuthConfig, policy AdminPolicy) (*JWTVerifier, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret required")
	}
	return &JWTVerifier{cfg: cfg, policy: policy}, nil
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*User, error) {
	claims, err := pkgauth.ParseToken(v.cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	return &User{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Admin:       v.policy.IsAdmin(claims.Email, claims.Admin),
	}, nil
}
