package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestWordIDFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want WordID
		ok   bool
	}{
		{"apple.json", "apple", true},
		{"Apple.json", "apple", true},
		{"aux.json", "aux", true},
		{"notes.txt", "", false},
		{"apple.JSON", "", false},
		{".json", "", false},
		{"ice.cream.json", "ice.cream", true},
	}
	for _, tt := range tests {
		got, ok := WordIDFromFilename(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("WordIDFromFilename(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestScanWordsMissingDir(t *testing.T) {
	_, err := ScanWords(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrSourceDirMissing) {
		t.Fatalf("expected ErrSourceDirMissing, got %v", err)
	}
}

func TestScanWordsNotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"file.json": "{}"})
	_, err := ScanWords(filepath.Join(dir, "file.json"))
	if !errors.Is(err, ErrSourceDirMissing) {
		t.Fatalf("expected ErrSourceDirMissing, got %v", err)
	}
}

func TestScanWordsNoEntries(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"README.md": "hi"})
	_, err := ScanWords(dir)
	if !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
}

func TestScanWordsSkipsOtherFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"apple.json": "{}",
		"Zebra.json": "{}",
		"notes.txt":  "",
	})
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	scan, err := ScanWords(dir)
	if err != nil {
		t.Fatalf("ScanWords: %v", err)
	}
	got := make([]string, 0, len(scan.Words))
	for _, w := range scan.Words {
		got = append(got, w.String())
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "apple" || got[1] != "zebra" {
		t.Fatalf("unexpected words: %v", got)
	}
	if len(scan.Collisions) != 0 {
		t.Fatalf("expected no collisions, got %v", scan.Collisions)
	}
}

func TestScanWordsCollapsesCaseCollisions(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Polish.json": "{}",
		"polish.json": "{}",
		"tree.json":   "{}",
	})
	// Case-insensitive filesystems cannot hold both files.
	if des, _ := os.ReadDir(dir); len(des) != 3 {
		t.Skip("filesystem is case-insensitive")
	}

	scan, err := ScanWords(dir)
	if err != nil {
		t.Fatalf("ScanWords: %v", err)
	}
	if len(scan.Words) != 2 {
		t.Fatalf("expected 2 words, got %v", scan.Words)
	}
	files := scan.Collisions["polish"]
	if len(files) != 2 || files[0] != "Polish.json" || files[1] != "polish.json" {
		t.Fatalf("unexpected collisions: %v", scan.Collisions)
	}
}

func TestReadEntry(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"cat.json": `{"word":"cat"}`,
		"bad.json": string([]byte{0xff, 0xfe, 0x00}),
	})
	entries, err := ListEntries(dir)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// os.ReadDir sorts by name.
	if entries[0].Name != "bad.json" || entries[1].Name != "cat.json" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	if _, err := ReadEntry(entries[0]); !errors.Is(err, ErrNotText) {
		t.Errorf("expected ErrNotText, got %v", err)
	}
	content, err := ReadEntry(entries[1])
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if content != `{"word":"cat"}` {
		t.Errorf("unexpected content %q", content)
	}
}
