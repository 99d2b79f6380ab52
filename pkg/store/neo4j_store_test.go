package store

import (
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestUpdatedBookIDReturnsTheBookID(t *testing.T) {
	record := &neo4j.Record{Keys: []string{"bookId"}, Values: []any{"cat-9"}}
	bookID, err := updatedBookID([]*neo4j.Record{record}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bookID != "cat-9" {
		t.Fatalf("expected cat-9, got %q", bookID)
	}
}

func TestUpdatedBookIDEmptyResultIsNotFound(t *testing.T) {
	_, err := updatedBookID(nil, nil)
	if !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestUpdatedBookIDPropagatesStreamErrors(t *testing.T) {
	streamErr := errors.New("connection closed during commit")
	_, err := updatedBookID(nil, streamErr)
	if !errors.Is(err, streamErr) {
		t.Fatalf("expected the stream error, got %v", err)
	}
	if errors.Is(err, ErrBookNotFound) {
		t.Fatalf("stream error must not read as not-found: %v", err)
	}
}

func TestUpdatedBookIDRejectsNonStringValue(t *testing.T) {
	record := &neo4j.Record{Keys: []string{"bookId"}, Values: []any{int64(7)}}
	_, err := updatedBookID([]*neo4j.Record{record}, nil)
	if err == nil {
		t.Fatal("expected an error for a non-string bookId")
	}
	if errors.Is(err, ErrBookNotFound) {
		t.Fatalf("type mismatch must not read as not-found: %v", err)
	}
}
