// Package sixbit expands the ASCII armor of an AIVDM/AIVDO payload into the
// bit sequence it encodes.
package sixbit

import (
	"errors"
	"fmt"

	"aisdecode/internal/bitseq"
)

// Alphabet lists the 64 armor characters in value order.
const Alphabet = "0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVW`abcdefghijklmnopqrstuvw"

// MaxFillBits is the largest fill-bit count a sentence may declare.
const MaxFillBits = 6

var (
	ErrInvalidArmorCharacter = errors.New("sixbit: invalid armor character")
	ErrInvalidFillBits       = errors.New("sixbit: invalid fill bits")
)

// values maps each byte to its six-bit value, or -1.
var values [256]int8

func init() {
	for i := range values {
		values[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		values[Alphabet[i]] = int8(i)
	}
}

// Value returns the six-bit value of an armor character.
func Value(c byte) (byte, bool) {
	v := values[c]
	if v < 0 {
		return 0, false
	}
	return byte(v), true
}

// Decode expands armored text and drops fill bits from the tail.
func Decode(text string, fill int) (bitseq.Sequence, error) {
	if fill < 0 || fill > MaxFillBits {
		return bitseq.Sequence{}, fmt.Errorf("%w: %d outside 0..%d", ErrInvalidFillBits, fill, MaxFillBits)
	}
	total := len(text) * 6
	if fill > total {
		return bitseq.Sequence{}, fmt.Errorf("%w: %d exceeds %d payload bits", ErrInvalidFillBits, fill, total)
	}
	b := bitseq.NewBuilder(total)
	for i := 0; i < len(text); i++ {
		v, ok := Value(text[i])
		if !ok {
			return bitseq.Sequence{}, fmt.Errorf("%w %q at offset %d", ErrInvalidArmorCharacter, text[i], i)
		}
		b.Append(uint64(v), 6)
	}
	return b.Sequence(total - fill), nil
}
