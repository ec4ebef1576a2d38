package store_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oremus-labs/bigbooks-relay/internal/store"
	"github.com/oremus-labs/bigbooks-relay/internal/store/storetest"
)

func openFixture(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(storetest.NewCatalog(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	s := openFixture(t)
	u, err := s.GetUser(3)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if diff := cmp.Diff(storetest.Users[1], *u); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestGetBook(t *testing.T) {
	t.Parallel()

	s := openFixture(t)
	b, err := s.GetBook(6)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if diff := cmp.Diff(storetest.Books[0], *b); diff != "" {
		t.Fatalf("book mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingKeysReturnNotFound(t *testing.T) {
	t.Parallel()

	s := openFixture(t)
	if _, err := s.GetUser(999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for user, got %v", err)
	}
	if _, err := s.GetBook(999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for book, got %v", err)
	}
}

func TestListBooksOrdered(t *testing.T) {
	t.Parallel()

	s := openFixture(t)
	books, err := s.ListBooks()
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != len(storetest.Books) {
		t.Fatalf("expected %d books got %d", len(storetest.Books), len(books))
	}
	for i := 1; i < len(books); i++ {
		if books[i-1].Key >= books[i].Key {
			t.Fatalf("books not ordered by key: %+v", books)
		}
	}
}

func TestOpenRequiresExistingFile(t *testing.T) {
	t.Parallel()

	if _, err := store.Open(filepath.Join(t.TempDir(), "absent.db")); err == nil {
		t.Fatalf("expected error for missing database file")
	}
	if _, err := store.Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestCatalogIsReadOnly(t *testing.T) {
	t.Parallel()

	s := openFixture(t)
	if _, err := s.DB().Exec(`DELETE FROM books`); err == nil {
		t.Fatalf("expected write to a read-only catalog to fail")
	}
}
