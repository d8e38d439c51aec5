package trie

import (
	"encoding/binary"
	"io"
)

func pack(n flatNode) uint32 {
	var p uint32
	p |= n.firstChild & 0xFFFFF
	p |= (n.childCount & 0x3F) << 20
	if n.end {
		p |= 1 << 26
	}
	p |= n.code << 27
	return p
}

// Encode serializes the trie in the packed binary format.
func (b *Builder) Encode() ([]byte, Stats, error) {
	flat, err := b.flatten()
	if err != nil {
		return nil, Stats{}, err
	}

	structure := make([]byte, 4*len(flat))
	pointers := make([]byte, 4*len(flat))
	var ranks []byte
	for i, n := range flat {
		binary.LittleEndian.PutUint32(structure[4*i:], pack(n))
		binary.LittleEndian.PutUint32(pointers[4*i:], uint32(len(ranks)))
		rank := n.bestRank
		if rank < 0 {
			rank = NoRank
		}
		ranks = binary.AppendUvarint(ranks, uint64(rank))
	}

	out := make([]byte, 12, 12+len(structure)+len(pointers)+len(ranks))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(structure)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(pointers)))
	binary.LittleEndian.PutUint32(out[8:], uint32(len(ranks)))
	out = append(out, structure...)
	out = append(out, pointers...)
	out = append(out, ranks...)

	return out, Stats{
		Nodes:          len(flat),
		StructureBytes: len(structure),
		PointerBytes:   len(pointers),
		RankBytes:      len(ranks),
		TotalBytes:     len(out),
	}, nil
}

// WriteTo encodes the trie to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	data, _, err := b.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}
