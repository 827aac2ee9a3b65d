package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"booktrack/config"
	"booktrack/pkg/helpers"
)

// Seeds an admin account and a couple of catalog books for local development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "admin@booktrack.local"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, 'admin')
		ON CONFLICT (email) DO UPDATE SET role = 'admin'
		RETURNING id
	`, "Admin", email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", id, email, password)

	books := []struct {
		title, author, genre, description, link string
	}{
		{"The Go Programming Language", "Donovan & Kernighan", "Programming",
			"The authoritative resource for writing idiomatic Go.", "https://www.gopl.io/"},
		{"A Wizard of Earthsea", "Ursula K. Le Guin", "Fantasy",
			"A young wizard learns the true cost of power.", "https://en.wikipedia.org/wiki/A_Wizard_of_Earthsea"},
	}
	for _, b := range books {
		var bookID string
		if err := db.QueryRow(`
			INSERT INTO books (title, author, genre, description, link)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, b.title, b.author, b.genre, b.description, b.link).Scan(&bookID); err != nil {
			log.Fatalf("failed to seed book %q: %v", b.title, err)
		}
		fmt.Printf("seeded book: id=%s title=%q\n", bookID, b.title)
	}
}
