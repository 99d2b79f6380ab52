package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dDxCg/lib-demo/pkg/domain"
)

// GormStore implements Store on a relational database. Author and genre
// edges live in junction tables; create-or-reuse is a single
// INSERT ... ON CONFLICT DO NOTHING under a unique name index, so
// concurrent creates of the same name cannot produce duplicates.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a Postgres database and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database DSN required")
	}
	return NewGormStoreWithDialector(postgres.Open(dsn))
}

// NewGormStoreWithDialector opens the store on any GORM dialector. Tests
// use this with an in-memory sqlite database.
func NewGormStoreWithDialector(dialector gorm.Dialector) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&BookModel{}, &AuthorModel{}, &GenreModel{}, &BookAuthorModel{}, &BookGenreModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) SearchBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	q := s.db.WithContext(ctx).Model(&BookModel{})
	if filter.ID != "" {
		id, ok := parseInternalID(filter.ID)
		if !ok {
			return []domain.Book{}, nil
		}
		q = q.Where("book_models.id = ?", id)
	}
	if filter.BookID != "" {
		q = q.Where("book_models.book_id = ?", filter.BookID)
	}
	if filter.Title != "" {
		q = q.Where(`LOWER(book_models.title) LIKE ? ESCAPE '\'`, likePattern(filter.Title))
	}
	if len(filter.Authors) > 0 {
		cond, args := existsNameClause("book_author_models", "author_models", "author_id", filter.Authors)
		q = q.Where(cond, args...)
	}
	if len(filter.Genres) > 0 {
		cond, args := existsNameClause("book_genre_models", "genre_models", "genre_id", filter.Genres)
		q = q.Where(cond, args...)
	}

	var books []BookModel
	if err := q.Order("book_models.id").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	out := make([]domain.Book, 0, len(books))
	if len(books) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	authorNames, err := s.namesByBook(ctx, "book_author_models", "author_models", "author_id", ids)
	if err != nil {
		return nil, err
	}
	genreNames, err := s.namesByBook(ctx, "book_genre_models", "genre_models", "genre_id", ids)
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		out = append(out, domain.Book{
			ID:      strconv.FormatUint(uint64(b.ID), 10),
			BookID:  b.BookID,
			Title:   b.Title,
			Authors: authorNames[b.ID],
			Genres:  genreNames[b.ID],
		})
	}
	return out, nil
}

func (s *GormStore) CreateBook(ctx context.Context, bookID, title string, authors, genres []string) (domain.Book, error) {
	authors = dedupeNames(authors)
	genres = dedupeNames(genres)
	book := BookModel{BookID: bookID, Title: title}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&book).Error; err != nil {
			return fmt.Errorf("create book: %w", err)
		}
		if err := linkAuthors(tx, book.ID, authors); err != nil {
			return err
		}
		return linkGenres(tx, book.ID, genres)
	})
	if err != nil {
		return domain.Book{}, err
	}
	return domain.Book{
		ID:      strconv.FormatUint(uint64(book.ID), 10),
		BookID:  bookID,
		Title:   title,
		Authors: authors,
		Genres:  genres,
	}, nil
}

func (s *GormStore) UpdateBook(ctx context.Context, id, title string, authors, genres []string) (domain.Book, error) {
	internalID, ok := parseInternalID(id)
	if !ok {
		return domain.Book{}, ErrBookNotFound
	}
	authors = dedupeNames(authors)
	genres = dedupeNames(genres)
	var book BookModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, "id = ?", internalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("load book: %w", err)
		}
		if err := tx.Model(&book).Update("title", title).Error; err != nil {
			return fmt.Errorf("set title: %w", err)
		}
		// Full replace: drop every existing edge before re-linking.
		if err := tx.Where("book_id = ?", internalID).Delete(&BookAuthorModel{}).Error; err != nil {
			return fmt.Errorf("detach authors: %w", err)
		}
		if err := tx.Where("book_id = ?", internalID).Delete(&BookGenreModel{}).Error; err != nil {
			return fmt.Errorf("detach genres: %w", err)
		}
		if err := linkAuthors(tx, internalID, authors); err != nil {
			return err
		}
		return linkGenres(tx, internalID, genres)
	})
	if err != nil {
		return domain.Book{}, err
	}
	return domain.Book{
		ID:      id,
		BookID:  book.BookID,
		Title:   title,
		Authors: authors,
		Genres:  genres,
	}, nil
}

func (s *GormStore) DeleteBook(ctx context.Context, id string) (int, error) {
	internalID, ok := parseInternalID(id)
	if !ok {
		return 0, nil
	}
	deleted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", internalID).Delete(&BookAuthorModel{}).Error; err != nil {
			return fmt.Errorf("detach authors: %w", err)
		}
		if err := tx.Where("book_id = ?", internalID).Delete(&BookGenreModel{}).Error; err != nil {
			return fmt.Errorf("detach genres: %w", err)
		}
		res := tx.Delete(&BookModel{}, "id = ?", internalID)
		if res.Error != nil {
			return fmt.Errorf("delete book: %w", res.Error)
		}
		deleted = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// linkAuthors creates missing author entities and the book edges, both
// idempotently via ON CONFLICT DO NOTHING.
func linkAuthors(tx *gorm.DB, bookID uint, names []string) error {
	if len(names) == 0 {
		return nil
	}
	entities := make([]AuthorModel, 0, len(names))
	for _, name := range names {
		entities = append(entities, AuthorModel{Name: name})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entities).Error; err != nil {
		return fmt.Errorf("ensure authors: %w", err)
	}
	var rows []AuthorModel
	if err := tx.Where("name IN ?", names).Find(&rows).Error; err != nil {
		return fmt.Errorf("load authors: %w", err)
	}
	edges := make([]BookAuthorModel, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, BookAuthorModel{BookID: bookID, AuthorID: row.ID})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error; err != nil {
		return fmt.Errorf("link authors: %w", err)
	}
	return nil
}

func linkGenres(tx *gorm.DB, bookID uint, names []string) error {
	if len(names) == 0 {
		return nil
	}
	entities := make([]GenreModel, 0, len(names))
	for _, name := range names {
		entities = append(entities, GenreModel{Name: name})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entities).Error; err != nil {
		return fmt.Errorf("ensure genres: %w", err)
	}
	var rows []GenreModel
	if err := tx.Where("name IN ?", names).Find(&rows).Error; err != nil {
		return fmt.Errorf("load genres: %w", err)
	}
	edges := make([]BookGenreModel, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, BookGenreModel{BookID: bookID, GenreID: row.ID})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error; err != nil {
		return fmt.Errorf("link genres: %w", err)
	}
	return nil
}

type bookNameRow struct {
	BookID uint
	Name   string
}

// namesByBook collects linked names per book id, deduplicated, with
// empty slices for books that have no edges.
func (s *GormStore) namesByBook(ctx context.Context, junction, entity, fk string, bookIDs []uint) (map[uint][]string, error) {
	var rows []bookNameRow
	err := s.db.WithContext(ctx).
		Table(junction).
		Select(fmt.Sprintf("%s.book_id AS book_id, %s.name AS name", junction, entity)).
		Joins(fmt.Sprintf("JOIN %s ON %s.id = %s.%s", entity, entity, junction, fk)).
		Where(fmt.Sprintf("%s.book_id IN ?", junction), bookIDs).
		Order(fmt.Sprintf("%s.id", entity)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("collect %s names: %w", entity, err)
	}
	out := make(map[uint][]string, len(bookIDs))
	for _, id := range bookIDs {
		out[id] = []string{}
	}
	seen := make(map[uint]map[string]struct{})
	for _, row := range rows {
		if _, ok := seen[row.BookID]; !ok {
			seen[row.BookID] = make(map[string]struct{})
		}
		if _, dup := seen[row.BookID][row.Name]; dup {
			continue
		}
		seen[row.BookID][row.Name] = struct{}{}
		out[row.BookID] = append(out[row.BookID], row.Name)
	}
	return out, nil
}

// existsNameClause builds the existential filter for author/genre terms:
// the book matches when any linked name contains any supplied term.
func existsNameClause(junction, entity, fk string, terms []string) (string, []any) {
	likes := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms))
	for _, term := range terms {
		likes = append(likes, fmt.Sprintf(`LOWER(%s.name) LIKE ? ESCAPE '\'`, entity))
		args = append(args, likePattern(term))
	}
	cond := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM %s JOIN %s ON %s.id = %s.%s WHERE %s.book_id = book_models.id AND (%s))",
		junction, entity, entity, junction, fk, junction, strings.Join(likes, " OR "),
	)
	return cond, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps the term for substring matching. LIKE metacharacters
// in the term are escaped so they match literally, the same as the other
// backends treat them.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func parseInternalID(id string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
