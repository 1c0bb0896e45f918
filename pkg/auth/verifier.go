package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

type oidcVerifier struct {
	verifier  *oidc.IDTokenVerifier
	roleClaim string
}

// NewOIDC creates a Verifier backed by the issuer's signing keys.
// With JWKSURL set the key set is fetched lazily; otherwise the issuer's
// discovery document is read immediately.
func NewOIDC(ctx context.Context, cfg *Config) (Verifier, error) {
	oidcCfg := &oidc.Config{
		ClientID:          cfg.ClientID,
		SkipClientIDCheck: cfg.ClientID == "",
	}

	var verifier *oidc.IDTokenVerifier
	if cfg.JWKSURL != "" {
		keys := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
		verifier = oidc.NewVerifier(cfg.Issuer, keys, oidcCfg)
	} else {
		provider, err := oidc.NewProvider(ctx, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery %s: %w", cfg.Issuer, err)
		}
		verifier = provider.Verifier(oidcCfg)
	}

	return &oidcVerifier{
		verifier:  verifier,
		roleClaim: cfg.RoleClaim,
	}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %w", ErrInvalidToken, err)
	}

	return identityFromClaims(token.Subject, claims, v.roleClaim)
}

func identityFromClaims(subject string, claims map[string]any, roleClaim string) (*Identity, error) {
	rawRole, _ := claims[roleClaim].(string)
	role, err := ParseRole(rawRole)
	if err != nil {
		return nil, err
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: email claim missing", ErrInvalidToken)
	}

	return &Identity{
		Subject: subject,
		Name:    name,
		Email:   email,
		Role:    role,
	}, nil
}
