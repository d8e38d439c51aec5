package freq

import (
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Tokenizer splits text into the units frequencies are counted by.
type Tokenizer interface {
	Tokenize(text string) []string
}

// SimpleTokenizer splits on anything that is not a letter, digit, combining
// mark or in-word apostrophe. It suits space-delimited languages.
type SimpleTokenizer struct{}

func (SimpleTokenizer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '\'' || r == '’')
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'’")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// KagomeTokenizer segments Japanese text with the IPA dictionary.
type KagomeTokenizer struct {
	t *tokenizer.Tokenizer
}

// NewKagomeTokenizer creates a new tokenizer instance.
func NewKagomeTokenizer() (*KagomeTokenizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &KagomeTokenizer{t: t}, nil
}

// Tokenize returns token surfaces, dropping whitespace and symbols.
func (k *KagomeTokenizer) Tokenize(text string) []string {
	var out []string
	for _, token := range k.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}
		// IPA feature 0 is the primary part of speech; 記号 covers punctuation.
		if features := token.Features(); len(features) > 0 && features[0] == "記号" {
			continue
		}
		out = append(out, token.Surface)
	}
	return out
}

// Tokenizers picks a tokenizer per language, falling back to SimpleTokenizer.
type Tokenizers map[string]Tokenizer

// For returns the tokenizer registered for language.
func (ts Tokenizers) For(language string) Tokenizer {
	if t, ok := ts[language]; ok && t != nil {
		return t
	}
	return SimpleTokenizer{}
}

// DefaultTokenizers registers kagome for Japanese. The kagome dictionary is
// only loaded when withJapanese is set since it is large.
func DefaultTokenizers(withJapanese bool) (Tokenizers, error) {
	ts := Tokenizers{}
	if withJapanese {
		k, err := NewKagomeTokenizer()
		if err != nil {
			return nil, err
		}
		ts["ja"] = k
	}
	return ts, nil
}
