// Command admintoken prints an admin bearer token signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"stagholme/config"
	"stagholme/internal/adapters/auth"
)

func main() {
	subject := flag.String("subject", "admin", "token subject")
	email := flag.String("email", "", "email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*subject, *email, []string{auth.RoleAdmin}, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}
