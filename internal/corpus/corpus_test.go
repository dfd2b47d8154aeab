package corpus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBooksTwoItems(t *testing.T) {
	input := "## Title: The Hobbit\n" +
		"O poveste plină de aventuri.\n" +
		"Tema principală este prietenia.\n" +
		"\n" +
		"## Title: 1984\n" +
		"O poveste distopică despre o societate totalitară.\n"

	books, err := ParseBooks(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "The Hobbit", books[0].Title)
	assert.Equal(t, "O poveste plină de aventuri.\nTema principală este prietenia.", books[0].Summary)
	assert.Equal(t, "1984", books[1].Title)
	assert.Equal(t, "O poveste distopică despre o societate totalitară.", books[1].Summary)
}

func TestParseBooksIgnoresLeadingContent(t *testing.T) {
	input := "Colecție de rezumate de cărți.\n" +
		"Aceste linii nu aparțin niciunei cărți.\n" +
		"## Title: Frankenstein\n" +
		"Victor Frankenstein creează o ființă vie din materie moartă.\n"

	books, err := ParseBooks(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Frankenstein", books[0].Title)
	assert.Equal(t, "Victor Frankenstein creează o ființă vie din materie moartă.", books[0].Summary)
}

func TestParseBooksEdgeCases(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		books, err := ParseBooks(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("empty title dropped", func(t *testing.T) {
		input := "## Title:\norfan fără titlu\n## Title: Jane Eyre\nDrumul unei fete orfane.\n"
		books, err := ParseBooks(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Jane Eyre", books[0].Title)
	})

	t.Run("empty body kept", func(t *testing.T) {
		books, err := ParseBooks(strings.NewReader("## Title: Don Quixote\n"))
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Don Quixote", books[0].Title)
		assert.Equal(t, "", books[0].Summary)
	})
}

func TestLibraryLookup(t *testing.T) {
	input := "## Title: Micul Prinț\nO poveste filosofică.\n## Title: Micul Prinț\nDuplicat, trebuie ignorat.\n## Title: Fahrenheit 451\nUn roman distopic.\n"
	books, err := ParseBooks(strings.NewReader(input))
	require.NoError(t, err)

	lib := NewLibrary(books)
	assert.Equal(t, 2, lib.Len())

	summary, ok := lib.SummaryByTitle("Micul Prinț")
	require.True(t, ok)
	assert.Equal(t, "O poveste filosofică.", summary)

	_, ok = lib.SummaryByTitle("micul prinț")
	assert.False(t, ok, "lookup is by exact title")

	_, ok = lib.SummaryByTitle("Moby Dick")
	assert.False(t, ok)

	titles := make([]string, 0, lib.Len())
	for _, b := range lib.Books() {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"Micul Prinț", "Fahrenheit 451"}, titles)
}
