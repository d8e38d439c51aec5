package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func validateKey(word, language string) (string, error) {
	w := strings.TrimSpace(word)
	if w == "" {
		return "", fmt.Errorf("word must be non-empty")
	}
	if strings.TrimSpace(language) == "" {
		return "", fmt.Errorf("language must be non-empty")
	}
	return w, nil
}

// AddWordCount adds n occurrences of word to the running count for language.
func AddWordCount(db DBExecutor, word, language string, n int64) error {
	w, err := validateKey(word, language)
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("count increment must be positive, got %d", n)
	}
	_, err = db.Exec(`INSERT INTO word_counts (word, language, count)
		VALUES (?, ?, ?)
		ON CONFLICT(word, language) DO UPDATE SET
		  count = word_counts.count + excluded.count,
		  updated_at = CURRENT_TIMESTAMP`, w, language, n)
	if err != nil {
		return fmt.Errorf("add word count %q: %w", w, err)
	}
	return nil
}

// SetWordCount replaces the count of word for language.
func SetWordCount(db DBExecutor, word, language string, n int64) error {
	w, err := validateKey(word, language)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("count must not be negative, got %d", n)
	}
	_, err = db.Exec(`INSERT INTO word_counts (word, language, count)
		VALUES (?, ?, ?)
		ON CONFLICT(word, language) DO UPDATE SET
		  count = excluded.count,
		  updated_at = CURRENT_TIMESTAMP`, w, language, n)
	if err != nil {
		return fmt.Errorf("set word count %q: %w", w, err)
	}
	return nil
}

// ClearLanguage removes every stored count for language.
func ClearLanguage(db DBExecutor, language string) error {
	_, err := db.Exec(`DELETE FROM word_counts WHERE language = ?`, language)
	return err
}

// RecomputeFrequencies sets frequency = count / total count for every word of
// language. It returns the total count.
func RecomputeFrequencies(db DBExecutor, language string) (int64, error) {
	var total sql.NullInt64
	if err := db.QueryRow(`SELECT SUM(count) FROM word_counts WHERE language = ?`, language).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum counts: %w", err)
	}
	if !total.Valid || total.Int64 == 0 {
		return 0, nil
	}
	_, err := db.Exec(`UPDATE word_counts SET frequency = CAST(count AS REAL) / ? WHERE language = ?`, total.Int64, language)
	if err != nil {
		return 0, fmt.Errorf("update frequencies: %w", err)
	}
	return total.Int64, nil
}

// LookupFrequency returns the stored frequency of word. found is false when
// the word has no row for language.
func LookupFrequency(db DBExecutor, word, language string) (freq float64, found bool, err error) {
	err = db.QueryRow(`SELECT frequency FROM word_counts WHERE word = ? AND language = ?`, word, language).Scan(&freq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return freq, true, nil
}

// HasLanguage reports whether any counts are stored for language.
func HasLanguage(db DBExecutor, language string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM word_counts WHERE language = ? LIMIT 1`, language).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TopWords returns the limit most frequent words of language, ties broken by word.
func TopWords(db DBExecutor, language string, limit int) ([]WordCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`SELECT word, language, count, frequency FROM word_counts
		WHERE language = ? ORDER BY count DESC, word ASC LIMIT ?`, language, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WordCount
	for rows.Next() {
		var wc WordCount
		if err := rows.Scan(&wc.Word, &wc.Language, &wc.Count, &wc.Frequency); err != nil {
			return nil, err
		}
		out = append(out, wc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordSource stores a provenance row for a corpus document. created is
// false when a document with the same checksum was already recorded for
// language, in which case the existing id is returned.
func RecordSource(db DBExecutor, sourceType, location, checksum, language string, tokens int64) (id int64, created bool, err error) {
	if strings.TrimSpace(sourceType) == "" {
		return 0, false, fmt.Errorf("sourceType must be non-empty")
	}
	if strings.TrimSpace(checksum) == "" {
		return 0, false, fmt.Errorf("checksum must be non-empty")
	}
	res, err := db.Exec(`INSERT OR IGNORE INTO sources (source_type, location, checksum, language, token_count)
		VALUES (?, ?, ?, ?, ?)`, sourceType, location, checksum, language, tokens)
	if err != nil {
		return 0, false, fmt.Errorf("insert source: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		id, err = res.LastInsertId()
		return id, true, err
	}
	err = db.QueryRow(`SELECT id FROM sources WHERE checksum = ? AND language = ?`, checksum, language).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// SourceSeen reports whether a document with checksum was already counted for language.
func SourceSeen(db DBExecutor, checksum, language string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM sources WHERE checksum = ? AND language = ?`, checksum, language).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListSources returns the recorded corpus documents for language, oldest first.
func ListSources(db DBExecutor, language string) ([]Source, error) {
	rows, err := db.Query(`SELECT id, source_type, location, checksum, language, token_count, added_at
		FROM sources WHERE language = ? ORDER BY id`, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.SourceType, &s.Location, &s.Checksum, &s.Language, &s.TokenCount, &s.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
