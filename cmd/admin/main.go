// Package main provides admin management utilities for Yatube.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin promote <username>   - Promote user to admin")
		fmt.Println("  go run ./cmd/admin demote <username>    - Demote user from admin")
		fmt.Println("  go run ./cmd/admin list-admins          - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <username>\n", command)
			os.Exit(1)
		}
		user, err := users.SetAdmin(ctx, os.Args[2], command == "promote")
		if err != nil {
			if models.IsNotFound(err) {
				fmt.Printf("User %s not found\n", os.Args[2])
				os.Exit(1)
			}
			log.Fatalf("Database error: %v", err)
		}
		fmt.Printf("✅ %s (ID: %d) admin=%v\n", user.Username, user.ID, command == "promote")

	case "list-admins":
		admins, err := users.ListAdmins(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch admins: %v", err)
		}
		if len(admins) == 0 {
			fmt.Println("No admins found")
			return
		}
		for _, a := range admins {
			fmt.Printf("  %d\t%s\t%s\n", a.ID, a.Username, a.Email)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}
