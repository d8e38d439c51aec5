// Package freq provides word-frequency oracles: lookups of how often a word
// is used in a language, as a relative frequency in [0,1].
package freq

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultLanguage is the language of the dictionary's headwords.
const DefaultLanguage = "en"

// ErrUnsupportedLanguage is returned when an oracle has no data for a language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Oracle reports the relative frequency of word in language. Unknown words
// report 0 with a nil error. Implementations must be deterministic.
type Oracle interface {
	Frequency(word, language string) (float64, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(word, language string) (float64, error)

func (f OracleFunc) Frequency(word, language string) (float64, error) { return f(word, language) }

// Normalize folds a word to the form frequencies are stored under.
func Normalize(word string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(word)))
}

// Table is an in-memory oracle keyed by language then word.
type Table map[string]map[string]float64

// Frequency implements Oracle.
func (t Table) Frequency(word, language string) (float64, error) {
	words, ok := t[language]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	return words[Normalize(word)], nil
}

// TableFromCounts converts raw occurrence counts to a single-language Table.
func TableFromCounts(language string, counts map[string]int64) Table {
	var total int64
	for _, n := range counts {
		total += n
	}
	words := make(map[string]float64, len(counts))
	for w, n := range counts {
		if total > 0 {
			words[w] = float64(n) / float64(total)
		}
	}
	return Table{language: words}
}
