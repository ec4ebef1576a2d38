package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a key has no row in the catalog.
var ErrNotFound = errors.New("record not found")

// User is an account row from the appUsers table.
type User struct {
	Key       int               `json:"key"`
	Role      bigbooks.UserRole `json:"role"`
	UserEmail string            `json:"userEmail"`
	UserName  string            `json:"userName"`
	Password  string            `json:"-"`
	IsActive  bool              `json:"isActive"`
	Wallet    float64           `json:"wallet"`
}

// Book is a row from the books table.
type Book struct {
	Key           int            `json:"key"`
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Description   string         `json:"description"`
	Genre         bigbooks.Genre `json:"genre"`
	Price         float64        `json:"price"`
	StockQuantity int            `json:"stockQuantity"`
	Isbn          string         `json:"isbn"`
}

// Store is a read-only view of the BigBooks SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the catalog at path read-only. The file must already exist.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog database path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("catalog database: %w", err)
	}
	conn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
	}
	return &Store{db: db}, nil
}

// Close shuts down the catalog.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetUser loads an account by primary key.
func (s *Store) GetUser(key int) (*User, error) {
	logutil.Debug("catalog getUser", map[string]interface{}{"key": key})
	row := s.db.QueryRow(`SELECT Key, Role, UserEmail, COALESCE(UserName, ''), COALESCE(Password, ''), IsActive, COALESCE(Wallet, 0)
		FROM appUsers WHERE Key = ?`, key)
	var (
		u    User
		role int
	)
	if err := row.Scan(&u.Key, &role, &u.UserEmail, &u.UserName, &u.Password, &u.IsActive, &u.Wallet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("user %d: %w", key, err)
	}
	u.Role = bigbooks.UserRole(role)
	return &u, nil
}

// GetBook loads a book by primary key.
func (s *Store) GetBook(key int) (*Book, error) {
	logutil.Debug("catalog getBook", map[string]interface{}{"key": key})
	row := s.db.QueryRow(`SELECT Key, Title, Author, COALESCE(Description, ''), Genre, Price, StockQuantity, COALESCE(Isbn, '')
		FROM books WHERE Key = ?`, key)
	var (
		b     Book
		genre int
	)
	if err := row.Scan(&b.Key, &b.Title, &b.Author, &b.Description, &genre, &b.Price, &b.StockQuantity, &b.Isbn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("book %d: %w", key, err)
	}
	b.Genre = bigbooks.Genre(genre)
	return &b, nil
}

// ListBooks returns every book ordered by key.
func (s *Store) ListBooks() ([]Book, error) {
	rows, err := s.db.Query(`SELECT Key, Title, Author, COALESCE(Description, ''), Genre, Price, StockQuantity, COALESCE(Isbn, '')
		FROM books ORDER BY Key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var books []Book
	for rows.Next() {
		var (
			b     Book
			genre int
		)
		if err := rows.Scan(&b.Key, &b.Title, &b.Author, &b.Description, &genre, &b.Price, &b.StockQuantity, &b.Isbn); err != nil {
			return nil, err
		}
		b.Genre = bigbooks.Genre(genre)
		books = append(books, b)
	}
	return books, rows.Err()
}
