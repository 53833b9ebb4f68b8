// Command devtoken mints a bearer token for the jwt auth provider, for local
// development against a non-production environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pkgauth "github.com/glowhaus/storefront-backend/pkg/auth"
	"github.com/glowhaus/storefront-backend/pkg/config"
	"github.com/glowhaus/storefront-backend/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "devtoken"})

	_ = godotenv.Load()

	uid := flag.String("uid", "", "user id placed in the token subject")
	email := flag.String("email", "", "email claim")
	name := flag.String("name", "", "display name claim")
	admin := flag.Bool("admin", false, "grant the admin claim")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to mint tokens in prod")
		os.Exit(1)
	}
	if !strings.EqualFold(cfg.Auth.Provider, config.AuthProviderJWT) {
		fmt.Fprintf(os.Stderr, "%s must be %q\n", config.EnvAuthProvider, config.AuthProviderJWT)
		os.Exit(1)
	}

	token, err := pkgauth.MintToken(cfg.Auth, time.Now(), pkgauth.TokenPayload{
		UID:         *uid,
		Email:       *email,
		DisplayName: *name,
		Admin:       *admin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
