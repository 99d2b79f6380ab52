package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dDxCg/lib-demo/internal/events"
	"github.com/dDxCg/lib-demo/internal/util"
	"github.com/dDxCg/lib-demo/pkg/domain"
	"github.com/dDxCg/lib-demo/pkg/store"
)

// Validation errors. Each missing required field fails fast with its own
// sentinel before any write happens. Create and update share the same
// contract: a book always keeps at least one author and one genre, so an
// update cannot strip either list down to nothing.
var (
	ErrTitleRequired   = errors.New("title is required")
	ErrAuthorsRequired = errors.New("at least one author is required")
	ErrGenresRequired  = errors.New("at least one genre is required")
)

// IsValidationError reports whether err is one of the input validation
// sentinels, as opposed to a not-found or store failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrAuthorsRequired) ||
		errors.Is(err, ErrGenresRequired)
}

// Config wires the application dependencies.
type Config struct {
	Store  store.Store
	Events events.Publisher
}

// App is the core catalog service: it validates input, assigns catalog
// identifiers and delegates persistence to the store.
type App struct {
	store  store.Store
	events events.Publisher
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store required")
	}
	publisher := cfg.Events
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &App{store: cfg.Store, events: publisher}, nil
}

// SearchBooks returns every book matching the filter.
func (a *App) SearchBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	books, err := a.store.SearchBooks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

// CreateBook validates the input, assigns a fresh catalog id and creates
// the book with its author/genre links.
func (a *App) CreateBook(ctx context.Context, input domain.BookInput) (domain.Book, error) {
	title, authors, genres, err := normalizeInput(input)
	if err != nil {
		return domain.Book{}, err
	}
	book, err := a.store.CreateBook(ctx, uuid.NewString(), title, authors, genres)
	if err != nil {
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	a.emit(ctx, events.BookCreated, book)
	return book, nil
}

// UpdateBook validates the input, then replaces the addressed book's
// title and its full author/genre edge sets.
func (a *App) UpdateBook(ctx context.Context, id string, input domain.BookInput) (domain.Book, error) {
	title, authors, genres, err := normalizeInput(input)
	if err != nil {
		return domain.Book{}, err
	}
	book, err := a.store.UpdateBook(ctx, id, title, authors, genres)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return domain.Book{}, store.ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("update book: %w", err)
	}
	a.emit(ctx, events.BookUpdated, book)
	return book, nil
}

// DeleteBook removes the book and its edges; deleting an unknown id is a
// no-op reported as count 0.
func (a *App) DeleteBook(ctx context.Context, id string) (int, error) {
	count, err := a.store.DeleteBook(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete book: %w", err)
	}
	if count > 0 {
		a.emit(ctx, events.BookDeleted, domain.Book{ID: id})
	}
	return count, nil
}

// Ping reports store health.
func (a *App) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

func (a *App) emit(ctx context.Context, event events.Event, book domain.Book) {
	if err := a.events.Publish(ctx, event, book); err != nil {
		util.LoggerFromContext(ctx).Warn("publish catalog event failed", "event", string(event), "err", err)
	}
}

func normalizeInput(input domain.BookInput) (title string, authors, genres []string, err error) {
	title = strings.TrimSpace(input.Title)
	if title == "" {
		return "", nil, nil, ErrTitleRequired
	}
	authors = cleanNames(input.Authors)
	if len(authors) == 0 {
		return "", nil, nil, ErrAuthorsRequired
	}
	genres = cleanNames(input.Genres)
	if len(genres) == 0 {
		return "", nil, nil, ErrGenresRequired
	}
	return title, authors, genres, nil
}

// cleanNames trims whitespace, drops empties and collapses duplicates,
// keeping the first-seen order.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
