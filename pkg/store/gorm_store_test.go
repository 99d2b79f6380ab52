package store

import (
	"context"
	"testing"

	"github.com/dDxCg/lib-demo/pkg/domain"
)

func TestGormSharedAuthorResolvesToOneEntity(t *testing.T) {
	s := newSQLiteStore(t)
	mustCreate(t, s, "cat-1", "One", []string{"Shared"}, []string{"X"})
	mustCreate(t, s, "cat-2", "Two", []string{"Shared"}, []string{"Y"})

	var authorCount int64
	if err := s.db.Model(&AuthorModel{}).Where("name = ?", "Shared").Count(&authorCount).Error; err != nil {
		t.Fatalf("count authors: %v", err)
	}
	if authorCount != 1 {
		t.Fatalf("author entity count = %d, want 1", authorCount)
	}
	var edgeCount int64
	if err := s.db.Model(&BookAuthorModel{}).Count(&edgeCount).Error; err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if edgeCount != 2 {
		t.Fatalf("wrote edge count = %d, want 2", edgeCount)
	}
}

func TestGormUpdateKeepsOrphanAuthors(t *testing.T) {
	s := newSQLiteStore(t)
	created := mustCreate(t, s, "cat-1", "One", []string{"A", "B"}, []string{"X"})
	if _, err := s.UpdateBook(context.Background(), created.ID, "One", []string{"C"}, []string{"X"}); err != nil {
		t.Fatalf("update book: %v", err)
	}

	var authorCount int64
	if err := s.db.Model(&AuthorModel{}).Where("name IN ?", []string{"A", "B"}).Count(&authorCount).Error; err != nil {
		t.Fatalf("count authors: %v", err)
	}
	if authorCount != 2 {
		t.Fatalf("orphaned author entities = %d, want 2", authorCount)
	}
	var edgeCount int64
	if err := s.db.Model(&BookAuthorModel{}).Count(&edgeCount).Error; err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if edgeCount != 1 {
		t.Fatalf("wrote edges after replace = %d, want 1 (just C)", edgeCount)
	}
}

func TestGormNonNumericInternalID(t *testing.T) {
	s := newSQLiteStore(t)
	if _, err := s.UpdateBook(context.Background(), "not-a-number", "T", []string{"A"}, []string{"X"}); err != ErrBookNotFound {
		t.Fatalf("update: expected ErrBookNotFound, got %v", err)
	}
	count, err := s.DeleteBook(context.Background(), "not-a-number")
	if err != nil || count != 0 {
		t.Fatalf("delete: expected no-op, got count=%d err=%v", count, err)
	}
	if books := mustSearch(t, s, domain.BookFilter{ID: "not-a-number"}); len(books) != 0 {
		t.Fatalf("search by unparseable id should match nothing, got %v", books)
	}
}
