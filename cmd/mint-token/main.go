package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/config"
)

func main() {
	// Get arguments
	if len(os.Args) < 2 {
		fmt.Println("OpenCTI IOC Submission - Token Mint Tool")
		fmt.Println("")
		fmt.Println("Usage: mint-token <subject> [duration]")
		fmt.Println("")
		fmt.Println("Examples:")
		fmt.Println("  mint-token polarity-server")
		fmt.Println("  mint-token soc-automation 720h")
		fmt.Println("")
		fmt.Println("Requirements:")
		fmt.Println("  - AUTH_JWT_SECRET must be set in the environment")
		fmt.Println("  - Duration defaults to AUTH_JWT_EXPIRY (24h if unset)")
		os.Exit(1)
	}

	subject := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		fmt.Println("Error: AUTH_JWT_SECRET is not set")
		os.Exit(1)
	}

	// Resolve token lifetime
	expiry := cfg.Auth.JWTExpiry
	if len(os.Args) > 2 {
		expiry, err = time.ParseDuration(os.Args[2])
		if err != nil {
			fmt.Printf("Error: invalid duration %q: %v\n", os.Args[2], err)
			os.Exit(1)
		}
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(expiry).Unix(),
	})

	signed, err := token.SignedString([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		fmt.Printf("Error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Token for '%s' (valid %s):\n", subject, expiry)
	fmt.Println("")
	fmt.Println(signed)
	fmt.Println("")
	fmt.Println("Send it as: Authorization: Bearer <token>")
}
