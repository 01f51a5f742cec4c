// Package nmea parses the !AIVDM/!AIVDO envelope that carries AIS payloads.
package nmea

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedEnvelope       = errors.New("nmea: malformed envelope")
	ErrUnsupportedSentenceType = errors.New("nmea: unsupported sentence type")
	ErrChecksumMismatch        = errors.New("nmea: checksum mismatch")
)

const (
	FormatVDM = "VDM"
	FormatVDO = "VDO"
)

const fieldCount = 7

// Sentence is one parsed AIVDM/AIVDO line. It is immutable once returned by
// Parse.
type Sentence struct {
	// Raw is the line from '!' onwards with surrounding whitespace removed.
	Raw string
	// Talker is the sentence-type prefix before VDM/VDO, e.g. "AI" or "BS".
	Talker string
	// Format is FormatVDM (other stations) or FormatVDO (own ship).
	Format string

	Total int
	Index int

	SequenceID    int
	HasSequenceID bool

	Channel  string
	Payload  string
	FillBits int

	Checksum        byte
	ChecksumPresent bool
	// ChecksumValid is true when a checksum was present and matched.
	ChecksumValid bool
}

// Parse parses one AIVDM/AIVDO line. Anything before the first '!' is
// discarded, so feeds that prefix lines with a timestamp or tag block still
// parse. A bad checksum is not an error here; see Verify.
func Parse(line string) (Sentence, error) {
	line = strings.TrimSpace(line)
	bang := strings.IndexByte(line, '!')
	if bang == -1 {
		return Sentence{}, fmt.Errorf("%w: missing '!'", ErrMalformedEnvelope)
	}
	line = line[bang:]

	fields := strings.Split(line[1:], ",")
	if len(fields) != fieldCount {
		return Sentence{}, fmt.Errorf("%w: %d fields, want %d", ErrMalformedEnvelope, len(fields), fieldCount)
	}

	typeField := fields[0]
	var format string
	switch {
	case strings.HasSuffix(typeField, FormatVDM):
		format = FormatVDM
	case strings.HasSuffix(typeField, FormatVDO):
		format = FormatVDO
	default:
		return Sentence{}, fmt.Errorf("%w: %q", ErrUnsupportedSentenceType, typeField)
	}

	tail := strings.Split(fields[6], "*")
	if len(tail) != 2 {
		return Sentence{}, fmt.Errorf("%w: fill/checksum field %q", ErrMalformedEnvelope, fields[6])
	}

	s := Sentence{
		Raw:     line,
		Talker:  typeField[:len(typeField)-len(format)],
		Format:  format,
		Channel: fields[4],
		Payload: fields[5],
	}

	var err error
	if s.Total, _, err = optionalInt("fragment count", fields[1], 10); err != nil {
		return Sentence{}, err
	}
	if s.Index, _, err = optionalInt("fragment number", fields[2], 10); err != nil {
		return Sentence{}, err
	}
	if s.SequenceID, s.HasSequenceID, err = optionalInt("sequence id", fields[3], 10); err != nil {
		return Sentence{}, err
	}
	if s.FillBits, _, err = optionalInt("fill bits", tail[0], 10); err != nil {
		return Sentence{}, err
	}
	ck, present, err := optionalInt("checksum", tail[1], 16)
	if err != nil {
		return Sentence{}, err
	}
	if ck < 0 || ck > 0xff {
		return Sentence{}, fmt.Errorf("%w: checksum %q out of range", ErrMalformedEnvelope, tail[1])
	}
	s.Checksum = byte(ck)
	s.ChecksumPresent = present

	star := strings.LastIndexByte(line, '*')
	s.ChecksumValid = present && Checksum(line[1:star]) == s.Checksum
	return s, nil
}

// Checksum is the XOR of every byte in body (the text between '!' and '*').
func Checksum(body string) byte {
	ck := byte(0)
	for i := 0; i < len(body); i++ {
		ck ^= body[i]
	}
	return ck
}

// Verify reports a checksum problem as an error wrapping ErrChecksumMismatch.
// Callers usually log it and keep decoding.
func (s Sentence) Verify() error {
	if s.ChecksumValid {
		return nil
	}
	if !s.ChecksumPresent {
		return fmt.Errorf("%w: checksum absent", ErrChecksumMismatch)
	}
	star := strings.LastIndexByte(s.Raw, '*')
	return fmt.Errorf("%w: got %02X want %02X", ErrChecksumMismatch, s.Checksum, Checksum(s.Raw[1:star]))
}

// Multipart reports whether the sentence is one fragment of several.
func (s Sentence) Multipart() bool {
	return s.Total > 1
}

func (s Sentence) String() string {
	return s.Raw
}

func optionalInt(name, field string, base int) (int, bool, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(field, base, 32)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s %q", ErrMalformedEnvelope, name, field)
	}
	return int(v), true, nil
}
