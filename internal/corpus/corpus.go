package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/domain"
)

// titleMarker starts a new item in a library file.
const titleMarker = "## Title:"

// ParseBooks reads a plain-text library file. Each item starts with a
// "## Title: <title>" line followed by the summary body; content before the
// first marker is ignored. Items with an empty title are dropped.
func ParseBooks(r io.Reader) ([]domain.Book, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var books []domain.Book
	var title string
	var body []string
	flush := func() {
		if title == "" {
			return
		}
		books = append(books, domain.Book{
			Title:   title,
			Summary: strings.TrimSpace(strings.Join(body, "\n")),
		})
	}
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, titleMarker) {
			flush()
			title = strings.TrimSpace(strings.TrimPrefix(line, titleMarker))
			body = nil
			continue
		}
		if title == "" {
			continue
		}
		body = append(body, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read library file: %w", err)
	}
	flush()
	return books, nil
}

// LoadFile parses the library file at path into a Library.
func LoadFile(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open library file: %w", err)
	}
	defer f.Close()
	books, err := ParseBooks(f)
	if err != nil {
		return nil, err
	}
	return NewLibrary(books), nil
}
