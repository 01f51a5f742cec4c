// Package bitseq holds the immutable bit sequence every AIS field is decoded
// from, plus the field codecs (unsigned, signed, boolean, scaled and six-bit
// text) that read it.
//
// Bits are addressed MSB-first by half-open [start,end) offsets. Reads that run
// past the end of the sequence see zero bits: short trailing fields are
// zero-extended rather than rejected, so a marginally truncated message still
// decodes the fields it does carry. Length validation happens one layer up.
package bitseq

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// MaxFieldWidth is the widest range the integer codecs accept.
const MaxFieldWidth = 64

// Sequence is an ordered, immutable run of bits.
//
// The zero value is an empty sequence.
type Sequence struct {
	data []byte
	n    int
}

// Builder accumulates bits for a Sequence. A Builder must not be reused after
// Sequence is called.
type Builder struct {
	data []byte
	n    int
}

// NewBuilder returns a builder with room for sizeHint bits.
func NewBuilder(sizeHint int) *Builder {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Builder{data: make([]byte, 0, (sizeHint+7)/8)}
}

// Append adds the low width bits of v, most significant first.
func (b *Builder) Append(v uint64, width int) {
	if width < 0 || width > MaxFieldWidth {
		panic(fmt.Sprintf("bitseq: invalid append width %d", width))
	}
	for i := width - 1; i >= 0; i-- {
		if b.n%8 == 0 {
			b.data = append(b.data, 0)
		}
		if (v>>uint(i))&1 == 1 {
			b.data[b.n/8] |= 0x80 >> uint(b.n%8)
		}
		b.n++
	}
}

// Len is the number of bits appended so far.
func (b *Builder) Len() int { return b.n }

// Sequence returns the first n bits appended (n is clamped to Len). Bits after
// n are cleared so they can never leak into zero-extended reads.
func (b *Builder) Sequence(n int) Sequence {
	if n < 0 {
		n = 0
	}
	if n > b.n {
		n = b.n
	}
	data := make([]byte, (n+7)/8)
	copy(data, b.data)
	if rem := n % 8; rem != 0 {
		data[len(data)-1] &= byte(0xff << uint(8-rem))
	}
	return Sequence{data: data, n: n}
}

// FromString builds a sequence from a string of '0' and '1' characters. Any
// other character is an error. It is mostly useful in tests and tooling.
func FromString(s string) (Sequence, error) {
	b := NewBuilder(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			b.Append(0, 1)
		case '1':
			b.Append(1, 1)
		default:
			return Sequence{}, fmt.Errorf("bitseq: invalid bit %q at offset %d", s[i], i)
		}
	}
	return b.Sequence(b.Len()), nil
}

// Len is the number of bits in the sequence.
func (s Sequence) Len() int { return s.n }

// Bit reports bit i. Offsets outside the sequence read as zero.
func (s Sequence) Bit(i int) bool {
	if i < 0 || i >= s.n {
		return false
	}
	return s.data[i/8]&(0x80>>uint(i%8)) != 0
}

// Unsigned decodes [start,end) as an unsigned big-endian integer.
func (s Sequence) Unsigned(start, end int) uint64 {
	checkRange(start, end)
	var v uint64
	for i := start; i < end; i++ {
		v <<= 1
		if s.Bit(i) {
			v |= 1
		}
	}
	return v
}

// Signed decodes [start,end) as a two's-complement integer.
func (s Sequence) Signed(start, end int) int64 {
	v := s.Unsigned(start, end)
	w := uint(end - start)
	if w == 0 {
		return 0
	}
	if w < 64 && v&(1<<(w-1)) != 0 {
		v |= ^uint64(0) << w
	}
	return int64(v)
}

// Bool decodes the single bit at offset i.
func (s Sequence) Bool(i int) bool {
	return s.Bit(i)
}

// Scaled decodes [start,end) as unsigned and divides by div.
func (s Sequence) Scaled(start, end int, div float64) float64 {
	return float64(s.Unsigned(start, end)) / div
}

// SignedScaled decodes [start,end) as two's-complement and divides by div.
func (s Sequence) SignedScaled(start, end int, div float64) float64 {
	return float64(s.Signed(start, end)) / div
}

// Text decodes [start,end) as six-bit AIS text. Values below 32 map to
// '@'..'_', the rest to ' '..'?'. '@' is the padding character: it reads as a
// space, and surrounding spaces are trimmed. A trailing partial character is
// ignored.
func (s Sequence) Text(start, end int) string {
	if end < start {
		panic(fmt.Sprintf("bitseq: invalid range [%d,%d)", start, end))
	}
	var b strings.Builder
	b.Grow((end - start) / 6)
	for i := start; i+6 <= end; i += 6 {
		c := TextChar(byte(s.Unsigned(i, i+6)))
		if c == '@' {
			c = ' '
		}
		b.WriteByte(c)
	}
	return strings.Trim(b.String(), " ")
}

// TextChar maps a six-bit text value to its ASCII character.
func TextChar(v byte) byte {
	v &= 0x3f
	if v < 32 {
		return v + 64
	}
	return v
}

// Slice returns a copy of bits [start,end). Unlike the integer codecs it does
// not zero-extend: end is clamped to Len, so an opaque payload is passed
// through exactly as received.
func (s Sequence) Slice(start, end int) Sequence {
	if start < 0 {
		start = 0
	}
	if end > s.n {
		end = s.n
	}
	if start >= end {
		return Sequence{}
	}
	b := NewBuilder(end - start)
	for i := start; i < end; i++ {
		if s.Bit(i) {
			b.Append(1, 1)
		} else {
			b.Append(0, 1)
		}
	}
	return b.Sequence(b.Len())
}

// Bytes returns the sequence packed MSB-first; the last byte is zero padded.
func (s Sequence) Bytes() []byte {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// Hex is Bytes rendered as lowercase hex.
func (s Sequence) Hex() string {
	return hex.EncodeToString(s.data)
}

// String renders the sequence as '0'/'1' characters.
func (s Sequence) String() string {
	var b strings.Builder
	b.Grow(s.n)
	for i := 0; i < s.n; i++ {
		if s.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// MarshalText renders the sequence as '0'/'1' characters, so binary payloads
// read naturally in JSON.
func (s Sequence) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Equal reports whether both sequences hold the same bits.
func (s Sequence) Equal(o Sequence) bool {
	if s.n != o.n {
		return false
	}
	for i := range s.data {
		if s.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

func checkRange(start, end int) {
	if start < 0 || end < start || end-start > MaxFieldWidth {
		panic(fmt.Sprintf("bitseq: invalid range [%d,%d)", start, end))
	}
}
