package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

// ErrUnsupportedDocument is returned for files that are neither HTML nor plain text.
var ErrUnsupportedDocument = errors.New("unsupported document type")

// Document kinds, also stored as the source type in the frequency store.
const (
	KindHTML = "html"
	KindText = "text"
)

// KindOf maps a file extension to a document kind, or "" if unsupported.
func KindOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return KindHTML
	case ".txt", ".text", ".md":
		return KindText
	}
	return ""
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content. Readability keeps furigana as text, which would count
// "漢字" as "漢字かんじ".
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}

// ExtractText returns the readable text of a document. HTML goes through
// readability with ruby annotations removed first; text must be valid UTF-8.
func ExtractText(path string, raw []byte) (string, error) {
	return extract(KindOf(path), &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}, raw)
}

func extract(kind string, pageURL *url.URL, raw []byte) (string, error) {
	switch kind {
	case KindHTML:
		article, err := readability.FromReader(bytes.NewReader(SanitizeRuby(raw)), pageURL)
		if err != nil {
			return "", fmt.Errorf("readability %s: %w", pageURL, err)
		}
		return article.TextContent, nil
	case KindText:
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%s: not valid UTF-8", pageURL.Path)
		}
		return string(raw), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, pageURL.Path)
}

// CollectDocuments walks root and returns every supported document, sorted.
// root may also name a single file.
func CollectDocuments(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if KindOf(path) != "" {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
