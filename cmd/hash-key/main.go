package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Get arguments
	if len(os.Args) < 2 {
		fmt.Println("OpenCTI IOC Submission - API Key Hash Tool")
		fmt.Println("")
		fmt.Println("Usage: hash-key <api-key>")
		fmt.Println("")
		fmt.Println("Examples:")
		fmt.Println("  hash-key my-long-random-api-key")
		fmt.Println("")
		fmt.Println("Requirements:")
		fmt.Println("  - Key must be at least 16 characters")
		fmt.Println("  - Put the printed hash in AUTH_API_KEY_HASH")
		os.Exit(1)
	}

	apiKey := os.Args[1]

	// Validate key length
	if len(apiKey) < 16 {
		fmt.Println("Error: API key must be at least 16 characters")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error hashing key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("API key hash generated successfully!")
	fmt.Println("")
	fmt.Println(string(hash))
	fmt.Println("")
	fmt.Println("Set it as: AUTH_API_KEY_HASH=<hash>")
}
