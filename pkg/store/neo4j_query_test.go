package store

import (
	"strings"
	"testing"

	"github.com/dDxCg/lib-demo/pkg/domain"
)

func TestBuildSearchCypherNoFilter(t *testing.T) {
	cypher, params := buildSearchCypher(domain.BookFilter{})
	if strings.Contains(cypher, "WHERE") {
		t.Fatalf("zero conditions must produce no WHERE clause:\n%s", cypher)
	}
	if len(params) != 0 {
		t.Fatalf("expected no params, got %v", params)
	}
	if !strings.Contains(cypher, "collect(DISTINCT a.name)") || !strings.Contains(cypher, "collect(DISTINCT g.name)") {
		t.Fatalf("names must be collected and deduplicated per book:\n%s", cypher)
	}
}

func TestBuildSearchCypherSingleConditions(t *testing.T) {
	cases := []struct {
		name   string
		filter domain.BookFilter
		clause string
		param  string
	}{
		{"id", domain.BookFilter{ID: "x"}, "elementId(b) = $id", "id"},
		{"bookId", domain.BookFilter{BookID: "c"}, "b.bookId = $bookId", "bookId"},
		{"title", domain.BookFilter{Title: "dune"}, "toLower(b.title) CONTAINS toLower($title)", "title"},
		{"authors", domain.BookFilter{Authors: []string{"le guin"}}, "any(term IN $authors", "authors"},
		{"genres", domain.BookFilter{Genres: []string{"sf"}}, "any(term IN $genres", "genres"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cypher, params := buildSearchCypher(tc.filter)
			if !strings.Contains(cypher, tc.clause) {
				t.Fatalf("missing clause %q in:\n%s", tc.clause, cypher)
			}
			if _, ok := params[tc.param]; !ok {
				t.Fatalf("missing param %q in %v", tc.param, params)
			}
			if len(params) != 1 {
				t.Fatalf("one present field must contribute one param, got %v", params)
			}
			if strings.Contains(cypher, " AND ") {
				t.Fatalf("single condition must not be conjoined:\n%s", cypher)
			}
		})
	}
}

func TestBuildSearchCypherConjunction(t *testing.T) {
	cypher, params := buildSearchCypher(domain.BookFilter{
		Title:   "dark",
		BookID:  "cat-1",
		Authors: []string{"a"},
		Genres:  []string{"x"},
	})
	if got := strings.Count(cypher, " AND "); got != 3 {
		t.Fatalf("four conditions need three ANDs, got %d:\n%s", got, cypher)
	}
	for _, key := range []string{"title", "bookId", "authors", "genres"} {
		if _, ok := params[key]; !ok {
			t.Fatalf("missing param %q in %v", key, params)
		}
	}
}

func TestBuildSearchCypherEmptyListsAreNoFilter(t *testing.T) {
	cypher, params := buildSearchCypher(domain.BookFilter{Authors: []string{}, Genres: []string{}})
	if strings.Contains(cypher, "WHERE") {
		t.Fatalf("empty term lists must not filter:\n%s", cypher)
	}
	if len(params) != 0 {
		t.Fatalf("expected no params, got %v", params)
	}
}
