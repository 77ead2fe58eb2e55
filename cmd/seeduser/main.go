package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"roadwatch/internal/auth"
	"roadwatch/internal/models"
	"roadwatch/internal/repository/sqlite"
)

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", "data/roadwatch.db", "Database path")
	email := flag.String("email", "", "Account email")
	password := flag.String("password", "", "Account password")
	role := flag.String("role", models.RoleViewer, "Account role (admin, responder, viewer)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("Both -email and -password are required")
	}
	switch *role {
	case models.RoleAdmin, models.RoleResponder, models.RoleViewer:
	default:
		log.Fatalf("Unknown role %q", *role)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	users := sqlite.NewUserRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if existing, err := users.GetByEmail(ctx, *email); err != nil {
		log.Fatalf("Failed to look up %s: %v", *email, err)
	} else if existing != nil {
		log.Fatalf("Account %s already exists", *email)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        *email,
		PasswordHash: hash,
		Role:         *role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := users.Insert(ctx, user); err != nil {
		log.Fatalf("Failed to insert user: %v", err)
	}

	fmt.Printf("Created %s account %s (%s)\n", user.Role, user.Email, user.ID)
}
