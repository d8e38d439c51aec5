package freq

import (
	"fmt"
	"sync"

	"github.com/japaniel/dictkit/pkg/db"
)

// StoreOracle answers frequency queries from the SQLite word_counts table.
type StoreOracle struct {
	DB db.DBExecutor

	mu    sync.Mutex
	langs map[string]bool
}

// NewStoreOracle creates an oracle backed by conn.
func NewStoreOracle(conn db.DBExecutor) *StoreOracle {
	return &StoreOracle{DB: conn, langs: make(map[string]bool)}
}

// Frequency implements Oracle. A language with no stored counts at all is
// reported as unsupported rather than scoring every word 0.
func (o *StoreOracle) Frequency(word, language string) (float64, error) {
	if err := o.checkLanguage(language); err != nil {
		return 0, err
	}
	f, _, err := db.LookupFrequency(o.DB, Normalize(word), language)
	if err != nil {
		return 0, fmt.Errorf("lookup %q: %w", word, err)
	}
	return f, nil
}

func (o *StoreOracle) checkLanguage(language string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.langs == nil {
		o.langs = make(map[string]bool)
	}
	ok, known := o.langs[language]
	if !known {
		var err error
		ok, err = db.HasLanguage(o.DB, language)
		if err != nil {
			return fmt.Errorf("check language %q: %w", language, err)
		}
		o.langs[language] = ok
	}
	if !ok {
		return fmt.Errorf("%w: no frequency data for %q", ErrUnsupportedLanguage, language)
	}
	return nil
}
