package store

import (
	"context"
	"errors"

	"github.com/dDxCg/lib-demo/pkg/domain"
)

// ErrBookNotFound is returned when an internal id does not resolve to a book.
var ErrBookNotFound = errors.New("book not found")

// Store defines persistence for books and their author/genre links.
//
// Author and genre entities are keyed by exact name: CreateBook and
// UpdateBook reuse an existing entity when one with the same name exists
// and create it otherwise, relying on the store's own atomic
// conditional-create (Cypher MERGE under a uniqueness constraint, SQL
// INSERT ... ON CONFLICT under a unique index) so that concurrent
// requests never race into duplicates. Edges are existence-only and
// idempotent: at most one per (author, book) or (book, genre) pair.
type Store interface {
	// SearchBooks returns every book matching the filter, each at most
	// once, with deduplicated author/genre name lists (empty, never nil).
	SearchBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error)

	// CreateBook creates a book with the given catalog id and title and
	// links it to the named authors and genres, creating entities that
	// do not exist yet.
	CreateBook(ctx context.Context, bookID, title string, authors, genres []string) (domain.Book, error)

	// UpdateBook sets the title of the book addressed by internal id,
	// removes every existing author/genre edge and re-links the given
	// names, as a single store transaction. Returns ErrBookNotFound when
	// the id does not resolve.
	UpdateBook(ctx context.Context, id, title string, authors, genres []string) (domain.Book, error)

	// DeleteBook removes the book and all its edges. The returned count
	// is 0 or 1; 0 is a no-op signal, not an error.
	DeleteBook(ctx context.Context, id string) (int, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases driver resources.
	Close(ctx context.Context) error
}
