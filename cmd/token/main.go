// Command token mints an API token for a given owner id, for local use and
// scripting against the journal API.
package main

import (
	"fmt"
	"os"
	"time"

	"trade-journal-go/internal/auth"
	"trade-journal-go/internal/config"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: token <owner-id>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "auth.jwt_secret must be configured")
		os.Exit(1)
	}

	ttl := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	token, err := auth.GenerateToken(os.Args[1], cfg.Auth.JWTSecret, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
