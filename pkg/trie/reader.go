package trie

import (
	"container/heap"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultSuggestionLimit is the number of completions the client shows.
	DefaultSuggestionLimit = 7
	maxVisitedNodes        = 2000
)

// ErrCorrupt is returned by Decode for malformed input.
var ErrCorrupt = errors.New("corrupt trie data")

// Trie is a decoded packed trie.
type Trie struct {
	structure []uint32
	bestRanks []uint16
}

// Decode parses data produced by Encode.
func Decode(data []byte) (*Trie, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	structLen := int(binary.LittleEndian.Uint32(data[0:]))
	ptrLen := int(binary.LittleEndian.Uint32(data[4:]))
	rankLen := int(binary.LittleEndian.Uint32(data[8:]))
	if structLen%4 != 0 || ptrLen != structLen || 12+structLen+ptrLen+rankLen != len(data) {
		return nil, fmt.Errorf("%w: section lengths %d/%d/%d for %d bytes", ErrCorrupt, structLen, ptrLen, rankLen, len(data))
	}

	n := structLen / 4
	t := &Trie{structure: make([]uint32, n), bestRanks: make([]uint16, n)}
	body := data[12:]
	ranks := body[structLen+ptrLen:]
	for i := 0; i < n; i++ {
		t.structure[i] = binary.LittleEndian.Uint32(body[4*i:])
		off := int(binary.LittleEndian.Uint32(body[structLen+4*i:]))
		if off >= len(ranks) {
			return nil, fmt.Errorf("%w: rank pointer %d out of range", ErrCorrupt, off)
		}
		v, sz := binary.Uvarint(ranks[off:])
		if sz <= 0 {
			return nil, fmt.Errorf("%w: bad rank varint at %d", ErrCorrupt, off)
		}
		if v > NoRank {
			v = NoRank
		}
		t.bestRanks[i] = uint16(v)
	}
	return t, nil
}

// Nodes is the number of nodes in the trie.
func (t *Trie) Nodes() int { return len(t.structure) }

func (t *Trie) children(i int) (first, count int) {
	p := t.structure[i]
	return int(p & 0xFFFFF), int((p >> 20) & 0x3F)
}

func (t *Trie) isEnd(i int) bool { return (t.structure[i]>>26)&1 == 1 }

func (t *Trie) code(i int) uint32 { return t.structure[i] >> 27 }

// find returns the node reached by prefix, or -1.
func (t *Trie) find(prefix string) int {
	if len(t.structure) == 0 {
		return -1
	}
	idx := 0
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if c < 'a' || c > 'z' {
			return -1
		}
		want := uint32(c-'a') + 1
		first, count := t.children(idx)
		next := -1
		for j := first; j < first+count && j < len(t.structure); j++ {
			if t.code(j) == want {
				next = j
				break
			}
		}
		if next < 0 {
			return -1
		}
		idx = next
	}
	return idx
}

// Contains reports whether word is in the trie.
func (t *Trie) Contains(word string) bool {
	i := t.find(strings.ToLower(word))
	return i >= 0 && t.isEnd(i)
}

type candidate struct {
	index    int
	word     string
	priority uint16
}

type candidateQueue []candidate

func (q candidateQueue) Len() int            { return len(q) }
func (q candidateQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q candidateQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *candidateQueue) Push(x interface{}) { *q = append(*q, x.(candidate)) }
func (q *candidateQueue) Pop() interface{} {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}

// Suggest returns up to limit words starting with prefix, most common first.
// The search is best-first on node rank and gives up after visiting a fixed
// number of nodes.
func (t *Trie) Suggest(prefix string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	prefix = strings.ToLower(prefix)
	start := t.find(prefix)
	if start < 0 {
		return nil
	}

	type hit struct {
		word     string
		priority uint16
	}
	var hits []hit
	worst := uint16(NoRank)
	add := func(h hit) {
		pos := sort.Search(len(hits), func(i int) bool { return h.priority < hits[i].priority })
		hits = append(hits, hit{})
		copy(hits[pos+1:], hits[pos:])
		hits[pos] = h
		if len(hits) > limit {
			hits = hits[:limit]
		}
		if len(hits) == limit {
			worst = hits[len(hits)-1].priority
		}
	}

	pq := &candidateQueue{{index: start, word: prefix, priority: t.bestRanks[start]}}
	for visited := 0; pq.Len() > 0 && visited < maxVisitedNodes; visited++ {
		c := heap.Pop(pq).(candidate)
		if len(hits) == limit && c.priority > worst {
			break
		}
		if t.isEnd(c.index) {
			add(hit{word: c.word, priority: c.priority})
		}
		first, count := t.children(c.index)
		for j := first; j < first+count && j < len(t.structure); j++ {
			p := t.bestRanks[j]
			if len(hits) == limit && p > worst {
				continue
			}
			heap.Push(pq, candidate{index: j, word: c.word + string(rune('a'+t.code(j)-1)), priority: p})
		}
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.word
	}
	return out
}
