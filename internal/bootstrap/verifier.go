package bootstrap

import (
	"context"
	"fmt"

	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/auth"
)

func NewVerifier(ctx context.Context, cfg *config.Config) (auth.TokenVerifier, error) {
	switch cfg.Auth.Provider {
	case config.AuthProviderFirebase:
		client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return nil, err
		}
		return auth.NewFirebaseVerifier(client), nil
	case config.AuthProviderJWT:
		return auth.NewJWTVerifier(cfg.Auth.JWTSecret, ""), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}
