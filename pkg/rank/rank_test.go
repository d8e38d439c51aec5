package rank

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/japaniel/dictkit/pkg/dictionary"
	"github.com/japaniel/dictkit/pkg/freq"
)

func makeDict(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
	return dir
}

func TestRankToFileOrdersByFrequency(t *testing.T) {
	dir := makeDict(t, "apple.json", "zebra.json", "the.json")
	oracle := freq.Table{"en": {"the": 0.04, "apple": 0.0002, "zebra": 0.00001}}
	out := filepath.Join(t.TempDir(), "words.txt")

	var scanned int
	r := NewRanker(oracle)
	r.OnScanned = func(n int) { scanned = n }

	list, err := r.RankToFile(dir, out)
	if err != nil {
		t.Fatalf("RankToFile: %v", err)
	}
	if scanned != 3 {
		t.Errorf("OnScanned got %d, want 3", scanned)
	}
	if diff := cmp.Diff(RankedWordList{"the", "apple", "zebra"}, list); diff != "" {
		t.Errorf("ranked list mismatch (-want +got):\n%s", diff)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(b) != "the\napple\nzebra" {
		t.Errorf("unexpected output %q", b)
	}
}

func TestRankUnknownWordsAreLexicographic(t *testing.T) {
	dir := makeDict(t, "foo.json", "bar.json")
	list, err := NewRanker(freq.Table{"en": {}}).Rank(dir)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got := list.String(); got != "bar\nfoo" {
		t.Errorf("got %q, want %q", got, "bar\nfoo")
	}
}

func TestRankUnknownWordsSortLast(t *testing.T) {
	dir := makeDict(t, "qqq.json", "aaa.json", "common.json", "rare.json")
	oracle := freq.Table{"en": {"common": 0.01, "rare": 0.000001}}
	list, err := NewRanker(oracle).Rank(dir)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	want := RankedWordList{"common", "rare", "aaa", "qqq"}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRankCaseFoldsFilenames(t *testing.T) {
	dir := makeDict(t, "Paris.json", "apple.json")
	list, err := NewRanker(freq.Table{"en": {"paris": 0.001}}).Rank(dir)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got := list.String(); got != "paris\napple" {
		t.Errorf("got %q", got)
	}
}

// The output is a permutation of the filename stems, sorted by (-score, word),
// and byte-identical across runs.
func TestRankProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	scores := map[string]float64{}
	var names []string
	for i := 0; i < 200; i++ {
		w := fmt.Sprintf("w%03d", i)
		names = append(names, w+".json")
		// Few distinct values so ties are common.
		scores[w] = float64(rng.Intn(5)) / 100
	}
	names = append(names, "notes.txt")
	dir := makeDict(t, names...)
	oracle := freq.Table{"en": scores}
	out := filepath.Join(t.TempDir(), "words.txt")

	list, err := NewRanker(oracle).RankToFile(dir, out)
	if err != nil {
		t.Fatalf("RankToFile: %v", err)
	}
	first, _ := os.ReadFile(out)

	if len(list) != len(scores) {
		t.Fatalf("expected %d words, got %d", len(scores), len(list))
	}
	got := make([]string, len(list))
	for i, w := range list {
		got[i] = string(w)
	}
	sorted := append([]string(nil), got...)
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			t.Fatalf("duplicate word %q", sorted[i])
		}
	}
	for _, w := range sorted {
		if _, ok := scores[w]; !ok {
			t.Fatalf("unexpected word %q", w)
		}
	}
	for i := 1; i < len(got); i++ {
		a, b := got[i-1], got[i]
		if scores[a] < scores[b] || (scores[a] == scores[b] && a >= b) {
			t.Fatalf("out of order at %d: %q(%v) before %q(%v)", i, a, scores[a], b, scores[b])
		}
	}

	if _, err := NewRanker(oracle).RankToFile(dir, out); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(out)
	if string(first) != string(second) {
		t.Fatal("output differs between runs")
	}
}

func TestRankNoEntriesLeavesOutputUntouched(t *testing.T) {
	dir := makeDict(t, "readme.md")
	out := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(out, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewRanker(freq.Table{"en": {}}).RankToFile(dir, out)
	if !errors.Is(err, dictionary.ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
	b, _ := os.ReadFile(out)
	if string(b) != "previous" {
		t.Fatalf("output modified: %q", b)
	}
}

func TestRankMissingDirDoesNotCreateOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "words.txt")
	_, err := NewRanker(freq.Table{"en": {}}).RankToFile(filepath.Join(t.TempDir(), "missing"), out)
	if !errors.Is(err, dictionary.ErrSourceDirMissing) {
		t.Fatalf("expected ErrSourceDirMissing, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output should not exist, stat err=%v", err)
	}
}

func TestRankOracleErrorAbortsBeforeWrite(t *testing.T) {
	dir := makeDict(t, "a.json", "b.json")
	out := filepath.Join(t.TempDir(), "words.txt")
	boom := errors.New("malformed word")
	oracle := freq.OracleFunc(func(word, lang string) (float64, error) {
		if word == "b" {
			return 0, boom
		}
		return 0.1, nil
	})

	_, err := NewRanker(oracle).RankToFile(dir, out)
	if !errors.Is(err, ErrFrequencyLookup) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output should not exist, stat err=%v", err)
	}
}

func TestRankRejectsInvalidScores(t *testing.T) {
	dir := makeDict(t, "a.json")
	oracle := freq.OracleFunc(func(string, string) (float64, error) { return -1, nil })
	if _, err := NewRanker(oracle).Rank(dir); !errors.Is(err, ErrFrequencyLookup) {
		t.Fatalf("expected ErrFrequencyLookup, got %v", err)
	}
}

func TestRankUsesConfiguredLanguage(t *testing.T) {
	dir := makeDict(t, "neko.json")
	r := NewRanker(freq.Table{"ja": {"neko": 0.1}})
	if _, err := r.Rank(dir); !errors.Is(err, freq.ErrUnsupportedLanguage) {
		t.Fatalf("expected unsupported language for default en, got %v", err)
	}
	r.Language = "ja"
	if _, err := r.Rank(dir); err != nil {
		t.Fatalf("Rank(ja): %v", err)
	}
}

func TestRankOutputWriteFailure(t *testing.T) {
	dir := makeDict(t, "a.json")
	out := filepath.Join(t.TempDir(), "no-such-dir", "words.txt")
	_, err := NewRanker(freq.Table{"en": {}}).RankToFile(dir, out)
	if !errors.Is(err, ErrOutputWrite) {
		t.Fatalf("expected ErrOutputWrite, got %v", err)
	}
}
