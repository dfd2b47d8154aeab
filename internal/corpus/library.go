package corpus

import "github.com/AdelinaPatlatii/SmartLibrarian/internal/domain"

// Library is the in-memory book store. It is built once at startup and
// read-only afterwards; lookups are by exact title.
type Library struct {
	books   []domain.Book
	byTitle map[string]int
}

// NewLibrary builds a Library from parsed books, keeping file order.
// A duplicate title keeps the first occurrence.
func NewLibrary(books []domain.Book) *Library {
	lib := &Library{byTitle: make(map[string]int, len(books))}
	for _, b := range books {
		if _, ok := lib.byTitle[b.Title]; ok {
			continue
		}
		lib.byTitle[b.Title] = len(lib.books)
		lib.books = append(lib.books, b)
	}
	return lib
}

// SummaryByTitle returns the full summary for an exact title.
func (l *Library) SummaryByTitle(title string) (string, bool) {
	i, ok := l.byTitle[title]
	if !ok {
		return "", false
	}
	return l.books[i].Summary, true
}

// Books returns the stored books in file order. Callers must not mutate
// the returned slice.
func (l *Library) Books() []domain.Book { return l.books }

// Len returns the number of stored books.
func (l *Library) Len() int { return len(l.books) }
