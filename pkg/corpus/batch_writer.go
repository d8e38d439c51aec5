package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// WriteFunc stores the counts of one document: its sources row and the
// word_counts increments, all through tx.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// ErrBatchWriterClosed is returned by Submit and Close once Close has run.
var ErrBatchWriterClosed = errors.New("batch writer closed")

// BatchWriter groups document count writes so a corpus build pays for one
// SQLite transaction per batch instead of one per document.
//
// A batch is sent for commit when it holds size writes or when the flush
// interval elapses. Batches commit in submission order on a single goroutine,
// so increments of the same word never race. After the first failed batch the
// remaining ones are discarded: the build is aborting and its counts would be
// incomplete anyway.
type BatchWriter struct {
	db   *sql.DB
	size int

	// OnError, if set, is called for every failed batch.
	OnError func(error)

	mu      sync.Mutex
	pending []WriteFunc
	closed  bool

	batches chan []WriteFunc
	stop    chan struct{}
	wg      sync.WaitGroup

	stateMu sync.Mutex
	err     error
	commits int
	writes  int
}

// NewBatchWriter starts a writer committing to db. A size below one falls
// back to 10 writes per batch; a zero interval disables timed flushes.
func NewBatchWriter(db *sql.DB, size int, interval time.Duration) *BatchWriter {
	if size <= 0 {
		size = 10
	}
	bw := &BatchWriter{
		db:      db,
		size:    size,
		pending: make([]WriteFunc, 0, size),
		batches: make(chan []WriteFunc, 2),
		stop:    make(chan struct{}),
	}

	bw.wg.Add(1)
	go bw.commitLoop()

	if interval > 0 {
		bw.wg.Add(1)
		go bw.flushEvery(interval)
	}
	return bw
}

// Submit queues the writes of one document. It blocks while two full batches
// are already waiting for the committer, and fails fast once a batch has
// failed.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	if err := bw.Err(); err != nil {
		return err
	}
	bw.pending = append(bw.pending, w)
	if len(bw.pending) >= bw.size {
		bw.sendLocked()
	}
	return nil
}

// Err returns the error of the first failed batch.
func (bw *BatchWriter) Err() error {
	bw.stateMu.Lock()
	defer bw.stateMu.Unlock()
	return bw.err
}

// Committed reports how many batches and document writes have been committed.
func (bw *BatchWriter) Committed() (batches, writes int) {
	bw.stateMu.Lock()
	defer bw.stateMu.Unlock()
	return bw.commits, bw.writes
}

// sendLocked hands the pending writes to the committer. Caller holds bw.mu.
func (bw *BatchWriter) sendLocked() {
	if len(bw.pending) == 0 {
		return
	}
	bw.batches <- bw.pending
	bw.pending = make([]WriteFunc, 0, bw.size)
}

func (bw *BatchWriter) flushEvery(interval time.Duration) {
	defer bw.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-bw.stop:
			return
		case <-t.C:
			bw.mu.Lock()
			if !bw.closed {
				bw.sendLocked()
			}
			bw.mu.Unlock()
		}
	}
}

func (bw *BatchWriter) commitLoop() {
	defer bw.wg.Done()
	for batch := range bw.batches {
		if bw.Err() != nil {
			continue
		}
		err := bw.commit(batch)

		bw.stateMu.Lock()
		if err != nil {
			bw.err = err
		} else {
			bw.commits++
			bw.writes += len(batch)
		}
		bw.stateMu.Unlock()

		if err != nil && bw.OnError != nil {
			bw.OnError(err)
		}
	}
}

// commit runs one batch in a single transaction. Without a database the
// writes run with a nil tx.
func (bw *BatchWriter) commit(batch []WriteFunc) error {
	// Not tied to the build context: a batch accepted before cancellation
	// is still committed or rolled back as a whole.
	ctx := context.Background()

	if bw.db == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin count batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit count batch of %d documents: %w", len(batch), err)
	}
	return nil
}

// Close commits what is still pending, waits for the committer and returns
// the first batch error.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	bw.sendLocked()
	bw.mu.Unlock()

	close(bw.stop)
	close(bw.batches)
	bw.wg.Wait()
	return bw.Err()
}
