package domain

// Book is a single library item. The title is its canonical identity across
// the whole pipeline; the summary is the full stored text.
type Book struct {
	Title   string
	Summary string
}

// Candidate is one retrieved match for a user query, ready to be rendered
// into a recommendation prompt. Distance is nil when the index did not
// report one (smaller = closer match).
type Candidate struct {
	Title    string
	Snippet  string
	Distance *float64
	ID       string
}
