// Development tool: mints a bearer token for a given user so the terminal
// client and curl sessions can authenticate against a local server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"spill/auth"
)

func main() {
	var (
		secret   = flag.String("secret", os.Getenv("AUTH_SECRET"), "signing secret (defaults to AUTH_SECRET)")
		userID   = flag.String("user", "", "user identifier (hyphen-free)")
		name     = flag.String("name", "", "display name")
		email    = flag.String("email", "", "email address")
		duration = flag.Duration("duration", 24*time.Hour, "token validity")
	)
	flag.Parse()

	if *secret == "" || *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: token -secret <secret> -user <id> [-name <name>] [-email <email>]")
		os.Exit(2)
	}

	tokens := auth.NewTokens(*secret, *duration)
	signed, err := tokens.Generate(auth.Identity{ID: *userID, Name: *name, Email: *email})
	if err != nil {
		fmt.Fprintf(os.Stderr, "token generation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
