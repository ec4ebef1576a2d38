// Package storetest builds throwaway BigBooks catalog databases for tests.
package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/store"
	_ "modernc.org/sqlite"
)

// DefaultPassword is the plaintext password of every fixture user.
const DefaultPassword = "goodpass"

// Users are the fixture accounts.
var Users = []store.User{
	{Key: 1, Role: bigbooks.RoleAdmin, UserEmail: "admin@demo", UserName: "Admin", Password: DefaultPassword, IsActive: true, Wallet: 0},
	{Key: 3, Role: bigbooks.RoleCustomer, UserEmail: "Liam.Nguyen@demo.com", UserName: "Liam Nguyen", Password: DefaultPassword, IsActive: true, Wallet: 42.5},
	{Key: 22, Role: bigbooks.RoleCustomer, UserEmail: "Savannah.Miller@demo.com", UserName: "Savannah Miller", Password: DefaultPassword, IsActive: true, Wallet: 120},
	{Key: 30, Role: bigbooks.RoleCustomer, UserEmail: "inactive@demo.com", UserName: "Dormant Reader", Password: DefaultPassword, IsActive: false, Wallet: 5},
}

// Books are the fixture books.
var Books = []store.Book{
	{Key: 6, Title: "A Gentleman in Moscow", Author: "Amor Towles", Description: "A count under house arrest in the Metropol.", Genre: bigbooks.GenreFiction, Price: 17.99, StockQuantity: 8, Isbn: "978-0670026197"},
	{Key: 12, Title: "The Hobbit", Author: "J.R.R. Tolkien", Description: "There and back again.", Genre: bigbooks.GenreFantasy, Price: 12.5, StockQuantity: 20, Isbn: "978-0547928227"},
	{Key: 14, Title: "The Name of the Wind", Author: "Patrick Rothfuss", Description: "", Genre: bigbooks.GenreFantasy, Price: 10, StockQuantity: 3, Isbn: "978-0756404741"},
}

// NewCatalog writes a catalog database with the fixture rows and returns its path.
func NewCatalog(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "BigBooks.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE appUsers (
			Key INTEGER PRIMARY KEY,
			Role INTEGER NOT NULL,
			UserEmail TEXT NOT NULL,
			UserName TEXT,
			Password TEXT,
			IsActive INTEGER NOT NULL,
			Wallet REAL
		);`,
		`CREATE TABLE books (
			Key INTEGER PRIMARY KEY,
			Title TEXT NOT NULL,
			Author TEXT NOT NULL,
			Description TEXT,
			Genre INTEGER NOT NULL,
			Price REAL NOT NULL,
			StockQuantity INTEGER NOT NULL,
			Isbn TEXT
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture schema: %v", err)
		}
	}
	for _, u := range Users {
		if _, err := db.Exec(`INSERT INTO appUsers (Key, Role, UserEmail, UserName, Password, IsActive, Wallet) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.Key, int(u.Role), u.UserEmail, u.UserName, u.Password, u.IsActive, u.Wallet); err != nil {
			t.Fatalf("fixture user %d: %v", u.Key, err)
		}
	}
	for _, b := range Books {
		if _, err := db.Exec(`INSERT INTO books (Key, Title, Author, Description, Genre, Price, StockQuantity, Isbn) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.Key, b.Title, b.Author, b.Description, int(b.Genre), b.Price, b.StockQuantity, b.Isbn); err != nil {
			t.Fatalf("fixture book %d: %v", b.Key, err)
		}
	}
	return path
}
