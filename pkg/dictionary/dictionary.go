package dictionary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// EntryExt marks a file as a dictionary entry.
const EntryExt = ".json"

var (
	// ErrSourceDirMissing is returned when the dictionary directory does not exist
	// or is not a directory.
	ErrSourceDirMissing = errors.New("dictionary source directory does not exist")
	// ErrNoEntries is returned when a scan finds no entry files.
	ErrNoEntries = errors.New("no dictionary entries found")
	// ErrNotText is returned by ReadEntry for content that is not valid UTF-8.
	ErrNotText = errors.New("entry is not valid UTF-8 text")
)

// WordID is the canonical identifier of a dictionary word: the lowercased
// filename stem of its entry file.
type WordID string

func (w WordID) String() string { return string(w) }

// Entry is one dictionary-entry file on disk.
type Entry struct {
	ID   WordID
	Name string // on-disk filename, case preserved (e.g. "Apple.json")
	Path string
}

// WordIDFromFilename derives the word identifier from an entry filename.
// ok is false when the name does not carry EntryExt.
func WordIDFromFilename(name string) (WordID, bool) {
	if !strings.HasSuffix(name, EntryExt) {
		return "", false
	}
	stem := strings.TrimSuffix(name, EntryExt)
	if stem == "" {
		return "", false
	}
	return WordID(strings.ToLower(stem)), true
}

// CheckDir verifies that dir exists and is a directory.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceDirMissing, dir)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSourceDirMissing, dir)
	}
	return nil
}

// ListEntries returns the entry files of dir in directory-listing order.
// Subdirectories and files without EntryExt are skipped.
func ListEntries(dir string) ([]Entry, error) {
	if err := CheckDir(dir); err != nil {
		return nil, err
	}
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dictionary dir: %w", err)
	}
	var out []Entry
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		id, ok := WordIDFromFilename(de.Name())
		if !ok {
			continue
		}
		out = append(out, Entry{ID: id, Name: de.Name(), Path: filepath.Join(dir, de.Name())})
	}
	return out, nil
}

// Scan is the result of collecting the word set of a dictionary directory.
type Scan struct {
	Words []WordID
	// Collisions maps a word to every filename that folded onto it, for words
	// backed by more than one file (e.g. "Apple.json" and "apple.json").
	Collisions map[WordID][]string
}

// ScanWords collects the unique word identifiers of dir. Files whose names
// differ only in case collapse to one word; those are reported in
// Scan.Collisions rather than rejected.
func ScanWords(dir string) (Scan, error) {
	entries, err := ListEntries(dir)
	if err != nil {
		return Scan{}, err
	}
	if len(entries) == 0 {
		return Scan{}, fmt.Errorf("%w in %s", ErrNoEntries, dir)
	}

	names := make(map[WordID][]string, len(entries))
	var words []WordID
	for _, e := range entries {
		if _, seen := names[e.ID]; !seen {
			words = append(words, e.ID)
		}
		names[e.ID] = append(names[e.ID], e.Name)
	}

	var collisions map[WordID][]string
	for id, files := range names {
		if len(files) < 2 {
			continue
		}
		if collisions == nil {
			collisions = make(map[WordID][]string)
		}
		sort.Strings(files)
		collisions[id] = files
	}
	return Scan{Words: words, Collisions: collisions}, nil
}

// ReadEntry returns the full text content of an entry file.
func ReadEntry(e Entry) (string, error) {
	b, err := os.ReadFile(e.Path)
	if err != nil {
		return "", fmt.Errorf("read entry %s: %w", e.Name, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("read entry %s: %w", e.Name, ErrNotText)
	}
	return string(b), nil
}
