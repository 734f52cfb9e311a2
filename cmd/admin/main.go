// Command admin manages administrator accounts.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/models"
	"agora/internal/repository"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <user_id>   - Promote user to admin")
	fmt.Println("  admin demote <user_id>    - Demote user from admin")
	fmt.Println("  admin list-admins         - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
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

	switch os.Args[1] {
	case "promote", "demote":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil || id == 0 {
			log.Fatalf("Invalid user id %q", os.Args[2])
		}
		setAdmin(ctx, users, uint(id), os.Args[1] == "promote")
	case "list-admins":
		listAdmins(ctx, users)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users repository.UserRepository, id uint, admin bool) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			fmt.Printf("User with ID %d not found\n", id)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	if user.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) already has is_admin=%t\n", user.Username, user.ID, admin)
		return
	}

	if err := users.SetAdmin(ctx, id, admin); err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("Updated %s (ID: %d): is_admin=%t\n", user.Username, user.ID, admin)
}

func listAdmins(ctx context.Context, users repository.UserRepository) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found")
		return
	}
	for _, a := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", a.ID, a.Username, a.Email)
	}
}
