// Package trie packs a ranked word list into the compact binary prefix tree
// the web client uses for autocomplete, and reads it back.
//
// File layout, all integers little-endian:
//
//	header     3 x uint32: byte lengths of structure, pointers, ranks
//	structure  1 x uint32 per node (breadth-first, root first)
//	pointers   1 x uint32 per node: byte offset of the node's rank
//	ranks      LEB128 varint best rank per node
//
// A structure word packs firstChildIndex (bits 0-19), childCount (20-25),
// isEndOfWord (26) and the letter code a=1..z=26 (27-31). Children of a node
// are contiguous and ordered by best rank, the lowest list index of any word
// below them.
package trie

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
)

const (
	// NoRank marks a node with no word below it.
	NoRank = 65535

	maxNodes    = 1 << 20
	maxChildren = 1<<6 - 1
)

// ErrTrieTooLarge is returned when the word list does not fit the packed format.
var ErrTrieTooLarge = errors.New("trie exceeds packed format limits")

var validWord = regexp.MustCompile(`^[a-zA-Z]+$`)

// ReadWordList reads a newline-separated ranked list, keeping only purely
// alphabetic words. Order is preserved; the index is the rank.
func ReadWordList(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w != "" && validWord.MatchString(w) {
			words = append(words, w)
		}
	}
	return words, sc.Err()
}

type node struct {
	char     byte
	children []*node // insertion order
	index    map[byte]*node
	end      bool
	bestRank int
}

func newNode(c byte) *node {
	return &node{char: c, index: make(map[byte]*node), bestRank: -1}
}

func (n *node) lower(rank int) {
	if n.bestRank < 0 || rank < n.bestRank {
		n.bestRank = rank
	}
}

// Build creates the in-memory trie; the rank of a word is its index in words.
func Build(words []string) *Builder {
	root := newNode(0)
	for rank, word := range words {
		clean := cleanWord(word)
		if clean == "" {
			continue
		}
		root.lower(rank)
		n := root
		for i := 0; i < len(clean); i++ {
			c := clean[i]
			child, ok := n.index[c]
			if !ok {
				child = newNode(c)
				n.index[c] = child
				n.children = append(n.children, child)
			}
			child.lower(rank)
			n = child
		}
		n.end = true
	}
	return &Builder{root: root}
}

func cleanWord(w string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(w) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Builder holds an in-memory trie ready to be flattened and encoded.
type Builder struct {
	root *node
}

// Stats describes an encoded trie.
type Stats struct {
	Nodes          int
	StructureBytes int
	PointerBytes   int
	RankBytes      int
	TotalBytes     int
}

type flatNode struct {
	code       uint32
	end        bool
	childCount uint32
	firstChild uint32
	bestRank   int
}

func (b *Builder) flatten() ([]flatNode, error) {
	flat := []flatNode{{bestRank: b.root.bestRank}}
	queue := []*node{b.root}
	for head := 0; head < len(queue); head++ {
		n := queue[head]
		if len(n.children) == 0 {
			continue
		}
		if len(n.children) > maxChildren {
			return nil, ErrTrieTooLarge
		}
		kids := append([]*node(nil), n.children...)
		sort.SliceStable(kids, func(i, j int) bool { return kids[i].bestRank < kids[j].bestRank })

		flat[head].childCount = uint32(len(kids))
		flat[head].firstChild = uint32(len(flat))
		for _, k := range kids {
			queue = append(queue, k)
			flat = append(flat, flatNode{
				code:     uint32(k.char-'a') + 1,
				end:      k.end,
				bestRank: k.bestRank,
			})
		}
		if len(flat) > maxNodes {
			return nil, ErrTrieTooLarge
		}
	}
	return flat, nil
}
