package ais

import (
	"math"
	"testing"

	"aisdecode/internal/bitseq"
	"aisdecode/internal/nmea"
)

// field is one value/width pair used to lay out a synthetic message.
type field struct {
	v uint64
	w int
}

func u(v uint64, w int) field { return field{v: v, w: w} }

func sg(v int64, w int) field { return field{v: uint64(v) & (1<<uint(w) - 1), w: w} }

func flag(b bool) field {
	if b {
		return field{v: 1, w: 1}
	}
	return field{v: 0, w: 1}
}

// text lays out str as six-bit characters, '@' padded to n characters.
func text(str string, n int) []field {
	out := make([]field, 0, n)
	for i := 0; i < n; i++ {
		c := byte('@')
		if i < len(str) {
			c = str[i]
		}
		if c >= 64 {
			c -= 64
		}
		out = append(out, u(uint64(c), 6))
	}
	return out
}

// pack builds a sequence from fields, each either a field or a []field.
func pack(t *testing.T, wantLen int, parts ...any) bitseq.Sequence {
	t.Helper()
	b := bitseq.NewBuilder(wantLen)
	for _, p := range parts {
		switch f := p.(type) {
		case field:
			b.Append(f.v, f.w)
		case []field:
			for _, x := range f {
				b.Append(x.v, x.w)
			}
		default:
			t.Fatalf("pack: unexpected part %T", p)
		}
	}
	if wantLen >= 0 && b.Len() != wantLen {
		t.Fatalf("pack: built %d bits, want %d", b.Len(), wantLen)
	}
	return b.Sequence(b.Len())
}

func hdr(typ MessageType, repeat uint8, mmsi uint32) []field {
	return []field{u(uint64(typ), 6), u(uint64(repeat), 2), u(uint64(mmsi), 30)}
}

func mustDecode(t *testing.T, bits bitseq.Sequence) Message {
	t.Helper()
	m, err := Decode(bits, DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func mustDecodeLines(t *testing.T, lines ...string) Message {
	t.Helper()
	var sentences []nmea.Sentence
	for _, line := range lines {
		s, err := nmea.Parse(line)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		sentences = append(sentences, s)
	}
	m, err := DecodeSentences(sentences, DecodeOptions{})
	if err != nil {
		t.Fatalf("decode %q: %v", lines, err)
	}
	return m
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
