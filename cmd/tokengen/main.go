// Package main generates submission tokens for local development.
// Tokens are signed with the dev key and will NOT work in production.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "xverify/internal/jwt_token"
)

const (
	// matches config.go when JWT_SIGNING_KEY is not set outside production
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "xverify"
	defaultAudience = "rewards-spa"
	defaultTokenTTL = time.Hour
)

type tokenOutput struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresIn string `json:"expires_in"`
	Usage     string `json:"usage"`
}

func main() {
	userID := flag.String("user-id", "", "Rewards user id. Generated if empty.")
	key := flag.String("key", devSigningKey, "HS256 signing key")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *userID == "" {
		*userID = uuid.NewString()
	}

	svc := jwttoken.NewService(*key, defaultIssuer, defaultAudience, *ttl, nil)
	token, err := svc.Issue(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}

	out := tokenOutput{
		Token:     token,
		UserID:    *userID,
		ExpiresIn: ttl.String(),
		Usage:     fmt.Sprintf("curl -H 'Authorization: Bearer %s' http://localhost:8080/api/me/submissions", token),
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}
	fmt.Println(out.Token)
	fmt.Fprintf(os.Stderr, "user_id=%s expires_in=%s\n", out.UserID, out.ExpiresIn)
}
