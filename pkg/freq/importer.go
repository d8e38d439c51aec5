package freq

import (
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/japaniel/dictkit/pkg/db"
)

// Importer loads word counts into the store.
type Importer struct {
	conn   *sql.DB
	logger *zap.Logger
}

// NewImporter creates an importer writing to conn. A nil logger discards logs.
func NewImporter(conn *sql.DB, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{conn: conn, logger: logger}
}

// Replace swaps the stored counts of language for counts and recomputes
// frequencies, in a single transaction. It returns the number of words stored.
func (im *Importer) Replace(language string, counts map[string]int64) (int, error) {
	if len(counts) == 0 {
		return 0, fmt.Errorf("no word counts to import for %q", language)
	}
	tx, err := im.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	if err := db.ClearLanguage(tx, language); err != nil {
		return 0, fmt.Errorf("clear %q: %w", language, err)
	}

	// Sorted so that a failure always names the same word.
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Strings(words)
	for _, w := range words {
		if err := db.SetWordCount(tx, w, language, counts[w]); err != nil {
			return 0, err
		}
	}

	total, err := db.RecomputeFrequencies(tx, language)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	im.logger.Info("imported frequency list",
		zap.String("language", language),
		zap.Int("words", len(words)),
		zap.Int64("total_count", total))
	return len(words), nil
}
