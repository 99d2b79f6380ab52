package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/dDxCg/lib-demo/pkg/domain"
)

type memoryBook struct {
	id      string
	bookID  string
	title   string
	authors []string
	genres  []string
}

// MemoryStore keeps the catalog in-process. It backs local development
// and tests; internal ids are a sequence counter rendered as a string,
// so search results come back in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int
	books   map[string]*memoryBook
	order   []string
	authors map[string]struct{} // author entities outlive their edges
	genres  map[string]struct{}
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:   make(map[string]*memoryBook),
		authors: make(map[string]struct{}),
		genres:  make(map[string]struct{}),
	}
}

func (m *MemoryStore) SearchBooks(_ context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Book, 0, len(m.order))
	for _, id := range m.order {
		b := m.books[id]
		if filter.ID != "" && b.id != filter.ID {
			continue
		}
		if filter.BookID != "" && b.bookID != filter.BookID {
			continue
		}
		if filter.Title != "" && !containsFold(b.title, filter.Title) {
			continue
		}
		if len(filter.Authors) > 0 && !anyNameMatches(b.authors, filter.Authors) {
			continue
		}
		if len(filter.Genres) > 0 && !anyNameMatches(b.genres, filter.Genres) {
			continue
		}
		out = append(out, b.toDomain())
	}
	return out, nil
}

func (m *MemoryStore) CreateBook(_ context.Context, bookID, title string, authors, genres []string) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	b := &memoryBook{
		id:      strconv.Itoa(m.seq),
		bookID:  bookID,
		title:   title,
		authors: dedupeNames(authors),
		genres:  dedupeNames(genres),
	}
	m.registerNames(b)
	m.books[b.id] = b
	m.order = append(m.order, b.id)
	return b.toDomain(), nil
}

func (m *MemoryStore) UpdateBook(_ context.Context, id, title string, authors, genres []string) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return domain.Book{}, ErrBookNotFound
	}
	b.title = title
	b.authors = dedupeNames(authors)
	b.genres = dedupeNames(genres)
	m.registerNames(b)
	return b.toDomain(), nil
}

func (m *MemoryStore) DeleteBook(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return 0, nil
	}
	delete(m.books, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }

// HasAuthor reports whether an author entity with the exact name exists,
// linked or not. Exposed for tests that assert orphaned entities persist.
func (m *MemoryStore) HasAuthor(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.authors[name]
	return ok
}

// HasGenre is the genre counterpart of HasAuthor.
func (m *MemoryStore) HasGenre(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.genres[name]
	return ok
}

func (m *MemoryStore) registerNames(b *memoryBook) {
	for _, name := range b.authors {
		m.authors[name] = struct{}{}
	}
	for _, name := range b.genres {
		m.genres[name] = struct{}{}
	}
}

func (b *memoryBook) toDomain() domain.Book {
	return domain.Book{
		ID:      b.id,
		BookID:  b.bookID,
		Title:   b.title,
		Authors: append([]string{}, b.authors...),
		Genres:  append([]string{}, b.genres...),
	}
}
