package corpus

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/dictkit/pkg/db"
	"github.com/japaniel/dictkit/pkg/freq"
)

// Stats summarises a corpus build.
type Stats struct {
	Documents  int   // newly counted documents
	Duplicates int   // documents whose checksum was already recorded
	Failed     int   // unreadable or unextractable documents
	Tokens     int64 // tokens added to the store
	Total      int64 // language-wide token count after recompute
}

// Builder accumulates word counts from documents into the frequency store.
type Builder struct {
	DB        *sql.DB
	Language  string
	Tokenizer freq.Tokenizer
	BatchSize int
	Workers   int
	Logger    *zap.Logger
	// Client fetches URL documents. nil means DefaultFetchClient.
	Client *http.Client
	// OnProgress is called with the number of processed documents and the total.
	OnProgress func(done, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewBuilder creates a Builder for language using tok.
func NewBuilder(conn *sql.DB, language string, tok freq.Tokenizer) *Builder {
	return &Builder{
		DB:        conn,
		Language:  language,
		Tokenizer: tok,
		BatchSize: 20,
		Workers:   4,
	}
}

type document struct {
	Path     string
	Kind     string
	Checksum string
	Counts   map[string]int64
	Tokens   int64
	Seen     bool // already recorded; not extracted
	Err      error
}

// Build counts every document in paths and recomputes the language's
// frequencies. A path may also be an http(s) URL, fetched as HTML. Documents already recorded (same content checksum) are not
// counted twice, so rerunning on the same corpus is idempotent.
func (b *Builder) Build(ctx context.Context, paths []string) (Stats, error) {
	var stats Stats
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if b.DB == nil {
		return stats, fmt.Errorf("corpus builder: no database")
	}
	if b.Tokenizer == nil {
		b.Tokenizer = freq.SimpleTokenizer{}
	}
	language := b.Language
	if language == "" {
		language = freq.DefaultLanguage
	}
	workers := b.Workers
	if workers <= 0 {
		workers = 1
	}

	var wp WorkerPoolInterface
	if b.PoolFactory != nil {
		wp = b.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bw := NewBatchWriter(b.DB, b.BatchSize, 100*time.Millisecond)
	var mu sync.Mutex // guards stats from the committer goroutine

	results := make(chan document, workers*2)
	submitErr := make(chan error, 1)

	wp.Start(ctx)
	go func() {
		defer close(results)
		defer wp.Close()
		for _, p := range paths {
			path := p
			job := func(ctx context.Context) {
				doc := b.process(ctx, path, language)
				select {
				case results <- doc:
				case <-ctx.Done():
				}
			}
			if err := wp.SubmitCtx(ctx, job); err != nil {
				if err != ctx.Err() && err != ErrPoolClosed {
					submitErr <- err
				}
				return
			}
		}
	}()

	var firstErr error
	done := 0
	for doc := range results {
		done++
		if b.OnProgress != nil {
			b.OnProgress(done, len(paths))
		}
		if firstErr != nil {
			continue // drain
		}
		if doc.Seen {
			logger.Debug("document already counted", zap.String("path", doc.Path))
			mu.Lock()
			stats.Duplicates++
			mu.Unlock()
			continue
		}
		if doc.Err != nil {
			logger.Warn("skipping document", zap.String("path", doc.Path), zap.Error(doc.Err))
			mu.Lock()
			stats.Failed++
			mu.Unlock()
			continue
		}

		d := doc
		err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			_, created, err := db.RecordSource(tx, d.Kind, d.Path, d.Checksum, language, d.Tokens)
			if err != nil {
				return fmt.Errorf("record source %s: %w", d.Path, err)
			}
			if !created {
				logger.Debug("document already counted", zap.String("path", d.Path))
				mu.Lock()
				stats.Duplicates++
				mu.Unlock()
				return nil
			}
			for _, w := range sortedWords(d.Counts) {
				if err := db.AddWordCount(tx, w, language, d.Counts[w]); err != nil {
					return err
				}
			}
			mu.Lock()
			stats.Documents++
			stats.Tokens += d.Tokens
			mu.Unlock()
			return nil
		})
		if err != nil {
			firstErr = err
			cancel()
		}
	}

	if err := bw.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	batches, writes := bw.Committed()
	logger.Debug("count batches committed", zap.Int("batches", batches), zap.Int("documents", writes))
	select {
	case err := <-submitErr:
		if firstErr == nil {
			firstErr = err
		}
	default:
	}
	if firstErr == nil {
		firstErr = ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return stats, firstErr
	}

	n, err := db.RecomputeFrequencies(b.DB, language)
	if err != nil {
		return stats, fmt.Errorf("recompute frequencies: %w", err)
	}
	stats.Total = n
	logger.Info("corpus build complete",
		zap.String("language", language),
		zap.Int("documents", stats.Documents),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("failed", stats.Failed),
		zap.Int64("tokens", stats.Tokens),
		zap.Int64("total", stats.Total))
	return stats, nil
}

// process runs on a worker: read, extract, tokenize, count.
func (b *Builder) process(ctx context.Context, loc, language string) document {
	doc := document{Path: loc, Kind: KindOf(loc)}
	var (
		raw  []byte
		text string
		err  error
	)
	if IsURL(loc) {
		doc.Kind = KindHTML
		raw, err = FetchPage(ctx, b.Client, loc)
	} else {
		raw, err = os.ReadFile(loc)
	}
	if err != nil {
		doc.Err = err
		return doc
	}
	sum := sha256.Sum256(raw)
	doc.Checksum = hex.EncodeToString(sum[:])
	if seen, err := db.SourceSeen(b.DB, doc.Checksum, language); err == nil && seen {
		doc.Seen = true
		return doc
	}

	if IsURL(loc) {
		u, perr := url.Parse(loc)
		if perr != nil {
			doc.Err = perr
			return doc
		}
		text, err = extract(KindHTML, u, raw)
	} else {
		text, err = ExtractText(loc, raw)
	}
	if err != nil {
		doc.Err = err
		return doc
	}
	doc.Counts = make(map[string]int64)
	for _, tok := range b.Tokenizer.Tokenize(text) {
		w := freq.Normalize(tok)
		if w == "" {
			continue
		}
		doc.Counts[w]++
		doc.Tokens++
	}
	return doc
}

func sortedWords(m map[string]int64) []string {
	out := make([]string, 0, len(m))
	for w := range m {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
