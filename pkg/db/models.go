package db

import "time"

// WordCount is the stored occurrence count and relative frequency of a word
// in one language.
type WordCount struct {
	Word      string
	Language  string
	Count     int64
	Frequency float64
}

// Source is a provenance record for a corpus document that contributed counts.
type Source struct {
	ID         int64
	SourceType string
	Location   string
	Checksum   string
	Language   string
	TokenCount int64
	AddedAt    time.Time
}
