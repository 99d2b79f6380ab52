package domain

// Book is a catalog record together with the names of its linked
// authors and genres.
//
// ID is the store-assigned internal identifier used to address the
// record for update and delete. BookID is the caller-facing catalog
// identifier assigned once at creation and never changed afterwards.
type Book struct {
	ID      string   `json:"id"`
	BookID  string   `json:"bookId"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Genres  []string `json:"genres"`
}

// BookInput is the request body for creating or updating a book.
type BookInput struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Genres  []string `json:"genres"`
}

// BookFilter is a sparse set of search conditions. Every present field
// contributes one condition and all conditions are combined with AND;
// the zero value matches every book.
//
// Title matches by case-insensitive substring. BookID matches exactly.
// Authors and Genres match when any linked name contains any of the
// supplied terms, case-insensitively; empty lists mean "no filter".
type BookFilter struct {
	ID      string
	BookID  string
	Title   string
	Authors []string
	Genres  []string
}
