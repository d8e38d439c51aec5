package freq

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadList parses a frequency list: one "word count" pair per line, separated
// by whitespace. Blank lines and lines starting with '#' are ignored. Words are
// normalized and duplicates summed.
func LoadList(r io.Reader) (map[string]int64, error) {
	counts := make(map[string]int64)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected \"word count\", got %q", line, text)
		}
		// Multi-word entries keep their inner spaces.
		word := Normalize(strings.Join(fields[:len(fields)-1], " "))
		n, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("line %d: invalid count %q", line, fields[len(fields)-1])
		}
		if word == "" || n == 0 {
			continue
		}
		counts[word] += n
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
