// Command user_status suspends or reactivates a marketplace account using an
// administrator session.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sudo-init-do/marketfront/internal/admin"
	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/config"
	"github.com/sudo-init-do/marketfront/internal/session"
)

func main() {
	userID := flag.Int64("user", 0, "id of the user to update")
	status := flag.String("status", "", "ACTIVE or SUSPENDED")
	flag.Parse()

	if *userID <= 0 || *status == "" {
		log.Fatalf("usage: go run ./cmd/adminutil/user_status -user 42 -status SUSPENDED")
	}

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// MARKET_TOKEN wins over the session saved by `market login`
	token := os.Getenv(config.EnvPrefix + "_TOKEN")
	if token == "" {
		if token, err = (session.FileStore{Path: cfg.TokenFile}).Load(); err != nil {
			log.Fatalf("failed to read session: %v", err)
		}
	}
	id, err := session.Decode(token)
	if err != nil {
		log.Fatalf("no usable admin token, log in first: %v", err)
	}
	if id.Expired(time.Now()) {
		log.Fatalf("session expired, log in again")
	}
	if !id.IsAdmin() {
		log.Fatalf("user %d is not an administrator", id.UserID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := api.New(api.Options{BaseURL: cfg.BackendURL, Timeout: cfg.HTTPTimeout})
	svc := admin.NewService(client, admin.DefaultPageSize)
	want := strings.ToUpper(*status)
	if err := svc.SetUserStatus(ctx, id.Auth(), *userID, want); err != nil {
		log.Fatalf("failed to update user %d: %s", *userID, api.Message(err))
	}

	fmt.Printf("User %d is now %s.\n", *userID, want)
}
