package store

import (
	"strings"

	"github.com/dDxCg/lib-demo/pkg/domain"
)

// buildSearchCypher folds the filter into one conjunctive Cypher query.
//
// Author and genre names are aggregated per book before filtering, so a
// book comes back exactly once with deduplicated name lists no matter
// how many author×genre rows the traversal produces, and the
// existential conditions (any linked name contains any term) can be
// expressed over the collected lists. Each present filter field
// contributes exactly one parameterized clause; with no fields the
// query has no WHERE and matches every book.
func buildSearchCypher(filter domain.BookFilter) (string, map[string]any) {
	conds := make([]string, 0, 5)
	params := make(map[string]any)
	if filter.ID != "" {
		conds = append(conds, "elementId(b) = $id")
		params["id"] = filter.ID
	}
	if filter.BookID != "" {
		conds = append(conds, "b.bookId = $bookId")
		params["bookId"] = filter.BookID
	}
	if filter.Title != "" {
		conds = append(conds, "toLower(b.title) CONTAINS toLower($title)")
		params["title"] = filter.Title
	}
	if len(filter.Authors) > 0 {
		conds = append(conds, "any(term IN $authors WHERE any(name IN authors WHERE toLower(name) CONTAINS toLower(term)))")
		params["authors"] = filter.Authors
	}
	if len(filter.Genres) > 0 {
		conds = append(conds, "any(term IN $genres WHERE any(name IN genres WHERE toLower(name) CONTAINS toLower(term)))")
		params["genres"] = filter.Genres
	}

	var sb strings.Builder
	sb.WriteString("MATCH (b:Book)\n")
	sb.WriteString("OPTIONAL MATCH (a:Author)-[:WROTE]->(b)\n")
	sb.WriteString("OPTIONAL MATCH (b)-[:IN_GENRE]->(g:Genre)\n")
	sb.WriteString("WITH b, collect(DISTINCT a.name) AS authors, collect(DISTINCT g.name) AS genres\n")
	if len(conds) > 0 {
		sb.WriteString("WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
		sb.WriteString("\n")
	}
	sb.WriteString("RETURN elementId(b) AS id, b.bookId AS bookId, b.title AS title, authors, genres")
	return sb.String(), params
}
