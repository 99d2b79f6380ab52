package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dDxCg/lib-demo/pkg/domain"
)

// Neo4jConfig holds connection settings for the graph store.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
	// MaxPoolSize caps driver connections; 0 keeps the driver default.
	MaxPoolSize int
	// ConnectTimeout bounds socket connect and connectivity checks;
	// 0 means 10 seconds.
	ConnectTimeout time.Duration
}

// Neo4jStore implements Store on Neo4j. Every request runs in its own
// session, closed on all exit paths; author/genre reuse is a Cypher
// MERGE under uniqueness constraints, so concurrent creates of the same
// name resolve to one node. The internal book id is elementId().
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore connects, verifies connectivity and ensures the
// uniqueness constraints the merge logic relies on.
func NewNeo4jStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *neo4j.Config) {
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("init neo4j driver: %w", err)
	}
	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	s := &Neo4jStore{driver: driver, database: cfg.Database}
	s.ensureConstraints(ctx)
	return s, nil
}

// ensureConstraints is best-effort: restricted users may not be allowed
// to manage schema, and the store still works without the constraints.
func (s *Neo4jStore) ensureConstraints(ctx context.Context) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	statements := []string{
		`CREATE CONSTRAINT book_book_id_unique IF NOT EXISTS FOR (b:Book) REQUIRE b.bookId IS UNIQUE`,
		`CREATE CONSTRAINT author_name_unique IF NOT EXISTS FOR (a:Author) REQUIRE a.name IS UNIQUE`,
		`CREATE CONSTRAINT genre_name_unique IF NOT EXISTS FOR (g:Genre) REQUIRE g.name IS UNIQUE`,
	}
	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			slog.Warn("neo4j constraint init failed (continuing)", "err", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

func (s *Neo4jStore) SearchBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	cypher, params := buildSearchCypher(filter)
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		books := []domain.Book{}
		for res.Next(ctx) {
			books = append(books, bookFromRecord(res.Record()))
		}
		return books, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return result.([]domain.Book), nil
}

func (s *Neo4jStore) CreateBook(ctx context.Context, bookID, title string, authors, genres []string) (domain.Book, error) {
	authors = dedupeNames(authors)
	genres = dedupeNames(genres)
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			`CREATE (b:Book {bookId: $bookId, title: $title}) RETURN elementId(b) AS id`,
			map[string]any{"bookId": bookID, "title": title})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		id, _ := record.Get("id")
		internalID := id.(string)
		if err := mergeAuthors(ctx, tx, internalID, authors); err != nil {
			return nil, err
		}
		if err := mergeGenres(ctx, tx, internalID, genres); err != nil {
			return nil, err
		}
		return internalID, nil
	})
	if err != nil {
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	return domain.Book{
		ID:      result.(string),
		BookID:  bookID,
		Title:   title,
		Authors: authors,
		Genres:  genres,
	}, nil
}

func (s *Neo4jStore) UpdateBook(ctx context.Context, id, title string, authors, genres []string) (domain.Book, error) {
	authors = dedupeNames(authors)
	genres = dedupeNames(genres)
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			`MATCH (b:Book) WHERE elementId(b) = $id SET b.title = $title RETURN b.bookId AS bookId`,
			map[string]any{"id": id, "title": title})
		if err != nil {
			return nil, err
		}
		bookID, err := updatedBookID(res.Collect(ctx))
		if err != nil {
			return nil, err
		}

		// Full replace: detach every author/genre edge before re-linking.
		for _, detach := range []string{
			`MATCH (a:Author)-[r:WROTE]->(b:Book) WHERE elementId(b) = $id DELETE r`,
			`MATCH (b:Book)-[r:IN_GENRE]->(g:Genre) WHERE elementId(b) = $id DELETE r`,
		} {
			res, err := tx.Run(ctx, detach, map[string]any{"id": id})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		if err := mergeAuthors(ctx, tx, id, authors); err != nil {
			return nil, err
		}
		if err := mergeGenres(ctx, tx, id, genres); err != nil {
			return nil, err
		}
		return bookID, nil
	})
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return domain.Book{}, ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("update book: %w", err)
	}
	bookID, ok := result.(string)
	if !ok {
		return domain.Book{}, fmt.Errorf("update book: unexpected result %T", result)
	}
	return domain.Book{
		ID:      id,
		BookID:  bookID,
		Title:   title,
		Authors: authors,
		Genres:  genres,
	}, nil
}

// updatedBookID classifies the outcome of the title update. A run or
// stream error is a store failure and propagates unchanged so the caller
// does not mistake it for a missing book; an empty result means no node
// matched the id.
func updatedBookID(records []*neo4j.Record, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", ErrBookNotFound
	}
	value, _ := records[0].Get("bookId")
	bookID, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected bookId value %T", value)
	}
	return bookID, nil
}

func (s *Neo4jStore) DeleteBook(ctx context.Context, id string) (int, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			`MATCH (b:Book) WHERE elementId(b) = $id DETACH DELETE b`,
			map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().NodesDeleted(), nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete book: %w", err)
	}
	return result.(int), nil
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// mergeAuthors creates-or-reuses each author by exact name and links it
// to the book; both MERGEs are idempotent, so re-linking an existing
// pair never produces a second edge.
func mergeAuthors(ctx context.Context, tx neo4j.ManagedTransaction, bookID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	res, err := tx.Run(ctx, `
		MATCH (b:Book) WHERE elementId(b) = $id
		UNWIND $names AS name
		MERGE (a:Author {name: name})
		MERGE (a)-[:WROTE]->(b)`,
		map[string]any{"id": bookID, "names": names})
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func mergeGenres(ctx context.Context, tx neo4j.ManagedTransaction, bookID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	res, err := tx.Run(ctx, `
		MATCH (b:Book) WHERE elementId(b) = $id
		UNWIND $names AS name
		MERGE (g:Genre {name: name})
		MERGE (b)-[:IN_GENRE]->(g)`,
		map[string]any{"id": bookID, "names": names})
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func bookFromRecord(record *neo4j.Record) domain.Book {
	id, _ := record.Get("id")
	bookID, _ := record.Get("bookId")
	title, _ := record.Get("title")
	authors, _ := record.Get("authors")
	genres, _ := record.Get("genres")
	return domain.Book{
		ID:      stringValue(id),
		BookID:  stringValue(bookID),
		Title:   stringValue(title),
		Authors: stringSlice(authors),
		Genres:  stringSlice(genres),
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
