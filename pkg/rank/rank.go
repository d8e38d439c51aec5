// Package rank orders the words of a dictionary directory by how common they
// are, most frequent first.
package rank

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/dictkit/pkg/dictionary"
	"github.com/japaniel/dictkit/pkg/freq"
)

var (
	// ErrFrequencyLookup wraps any oracle failure while scoring words.
	ErrFrequencyLookup = errors.New("frequency lookup failed")
	// ErrOutputWrite wraps failures writing the ranked list.
	ErrOutputWrite = errors.New("writing ranked word list failed")
)

// RankedWordList is the dictionary's word set ordered by descending frequency,
// ties in ascending lexicographic order.
type RankedWordList []dictionary.WordID

// String joins the list with newlines, without a trailing newline.
func (l RankedWordList) String() string {
	var b strings.Builder
	for i, w := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(w))
	}
	return b.String()
}

// Ranker scores dictionary words with an Oracle.
type Ranker struct {
	Oracle   freq.Oracle
	Language string
	Logger   *zap.Logger
	// OnScanned is called with the number of discovered words before scoring begins.
	OnScanned func(count int)
}

// NewRanker creates a Ranker for the default language.
func NewRanker(oracle freq.Oracle) *Ranker {
	return &Ranker{
		Oracle:   oracle,
		Language: freq.DefaultLanguage,
	}
}

type scored struct {
	word  dictionary.WordID
	score float64
}

// Rank scans sourceDir and returns its words ordered by (-frequency, word).
func (r *Ranker) Rank(sourceDir string) (RankedWordList, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lang := r.Language
	if lang == "" {
		lang = freq.DefaultLanguage
	}

	scan, err := dictionary.ScanWords(sourceDir)
	if err != nil {
		return nil, err
	}
	for id, files := range scan.Collisions {
		logger.Warn("entry files differ only in case and collapse to one word",
			zap.String("word", id.String()),
			zap.Strings("files", files))
	}
	logger.Debug("scanned dictionary", zap.String("dir", sourceDir), zap.Int("words", len(scan.Words)))
	if r.OnScanned != nil {
		r.OnScanned(len(scan.Words))
	}

	items := make([]scored, 0, len(scan.Words))
	for _, w := range scan.Words {
		f, err := r.Oracle.Frequency(string(w), lang)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrFrequencyLookup, w, err)
		}
		if math.IsNaN(f) || f < 0 {
			return nil, fmt.Errorf("%w: %q: invalid frequency %v", ErrFrequencyLookup, w, f)
		}
		items = append(items, scored{word: w, score: f})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].word < items[j].word
	})

	out := make(RankedWordList, len(items))
	for i, it := range items {
		out[i] = it.word
	}
	return out, nil
}

// RankToFile ranks sourceDir and replaces outputFile with the result. Nothing
// is written unless ranking succeeds, and the file is replaced atomically.
func (r *Ranker) RankToFile(sourceDir, outputFile string) (RankedWordList, error) {
	list, err := r.Rank(sourceDir)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(outputFile, list.String()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOutputWrite, outputFile, err)
	}
	if r.Logger != nil {
		r.Logger.Info("wrote ranked word list", zap.String("path", outputFile), zap.Int("words", len(list)))
	}
	return list, nil
}

func writeFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ranked-*.txt")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
