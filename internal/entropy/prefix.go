package entropy

import (
	"sort"

	"github.com/jxlgo/jxl/internal/bio"
	"github.com/pkg/errors"
)

// RunSymbol is a (run_length, non_zero_value) pair: runLength zeros
// followed by one non-zero coefficient, the alphabet used by the
// run-length + prefix coder (spec.md §4.7, "used at low effort levels").
type RunSymbol struct {
	RunLength int32
	Value     int32
}

// ZigzagRunLength scans a zigzag-ordered coefficient array and returns the
// (run, value) symbols: one symbol per non-zero coefficient, with an
// implicit trailing end-of-block symbol (RunLength -1) if the array's tail
// is all zero.
func ZigzagRunLength(coeffs []int32) []RunSymbol {
	var out []RunSymbol
	run := int32(0)
	for _, c := range coeffs {
		if c == 0 {
			run++
			continue
		}
		out = append(out, RunSymbol{RunLength: run, Value: c})
		run = 0
	}
	if run > 0 {
		out = append(out, RunSymbol{RunLength: -1})
	}
	return out
}

// ExpandRunLength is the inverse of ZigzagRunLength: it reconstructs a
// zigzag-ordered coefficient array of length n from its run symbols.
func ExpandRunLength(symbols []RunSymbol, n int) []int32 {
	out := make([]int32, n)
	pos := 0
	for _, s := range symbols {
		if s.RunLength < 0 {
			break
		}
		pos += int(s.RunLength)
		if pos < n {
			out[pos] = s.Value
			pos++
		}
	}
	return out
}

// code is one entry of a canonical prefix (Huffman) code: a symbol and its
// bit length.
type code struct {
	symbol int
	length int
	bits   uint32
}

// PrefixCode is a canonical prefix code over a small integer alphabet,
// built from symbol frequencies.
type PrefixCode struct {
	lengths map[int]int
	codes   map[int]code
	maxLen  int
}

// ErrDegenerateAlphabet is returned when BuildPrefixCode is given fewer
// than two distinct symbols with nonzero frequency.
var ErrDegenerateAlphabet = errors.New("entropy: prefix code needs at least two symbols")

// BuildPrefixCode constructs a canonical Huffman code from symbol
// frequencies (map from symbol to count).
func BuildPrefixCode(freq map[int]uint32) (*PrefixCode, error) {
	type node struct {
		symbol       int
		weight       uint64
		left, right  *node
	}
	var symbols []int
	for s, f := range freq {
		if f > 0 {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) < 2 {
		return nil, ErrDegenerateAlphabet
	}
	sort.Ints(symbols)

	var nodes []*node
	for _, s := range symbols {
		nodes = append(nodes, &node{symbol: s, weight: uint64(freq[s])})
	}
	for len(nodes) > 1 {
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].weight != nodes[j].weight {
				return nodes[i].weight < nodes[j].weight
			}
			return nodes[i].symbol < nodes[j].symbol
		})
		a, b := nodes[0], nodes[1]
		parent := &node{symbol: -1, weight: a.weight + b.weight, left: a, right: b}
		nodes = append(nodes[2:], parent)
	}

	lengths := make(map[int]int)
	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		if n.left == nil && n.right == nil {
			lengths[n.symbol] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(nodes[0], 0)

	return canonicalize(lengths)
}

// canonicalize assigns canonical codewords given each symbol's bit length:
// symbols are ordered by (length, symbol), and codewords increment in that
// order, left-shifting whenever length increases.
func canonicalize(lengths map[int]int) (*PrefixCode, error) {
	type entry struct {
		symbol, length int
	}
	var entries []entry
	maxLen := 0
	for s, l := range lengths {
		entries = append(entries, entry{s, l})
		if l > maxLen {
			maxLen = l
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].length != entries[j].length {
			return entries[i].length < entries[j].length
		}
		return entries[i].symbol < entries[j].symbol
	})

	codes := make(map[int]code)
	var bits uint32
	prevLen := entries[0].length
	for _, e := range entries {
		bits <<= uint(e.length - prevLen)
		codes[e.symbol] = code{symbol: e.symbol, length: e.length, bits: bits}
		bits++
		prevLen = e.length
	}
	return &PrefixCode{lengths: lengths, codes: codes, maxLen: maxLen}, nil
}

// ErrUnknownSymbol is returned when Encode is given a symbol outside the
// code's alphabet.
var ErrUnknownSymbol = errors.New("entropy: symbol not in prefix code")

// Encode writes symbols as a sequence of canonical prefix codewords.
func (p *PrefixCode) Encode(w *bio.Writer, symbols []int) error {
	for _, s := range symbols {
		c, ok := p.codes[s]
		if !ok {
			return errors.Wrapf(ErrUnknownSymbol, "%d", s)
		}
		w.WriteBits(c.bits, c.length)
	}
	return nil
}

// Decode reads n symbols encoded with Encode, one bit at a time, matching
// each prefix against the canonical code table.
func (p *PrefixCode) Decode(r *bio.Reader, n int) ([]int, error) {
	// Build a length-indexed lookup: for each length, the map from
	// codeword bits to symbol. Canonical codes are prefix-free, so reading
	// bit by bit and checking at each length against that length's table
	// terminates correctly.
	byLength := make(map[int]map[uint32]int)
	for sym, c := range p.codes {
		if byLength[c.length] == nil {
			byLength[c.length] = make(map[uint32]int)
		}
		byLength[c.length][c.bits] = sym
	}

	out := make([]int, n)
	for i := 0; i < n; i++ {
		var bits uint32
		matched := false
		for length := 1; length <= p.maxLen; length++ {
			bit, err := r.ReadBit()
			if err != nil {
				return nil, err
			}
			bits = bits<<1 | uint32(bit)
			if table, ok := byLength[length]; ok {
				if sym, ok := table[bits]; ok {
					out[i] = sym
					matched = true
					break
				}
			}
		}
		if !matched {
			return nil, errors.New("entropy: no matching prefix codeword")
		}
	}
	return out, nil
}
