// Package stream turns a feed of NMEA lines into decoded AIS messages.
//
// A Decoder owns one fragment reassembler and keeps running counters. One bad
// line never stops the stream: Feed reports the problem and the next line is
// decoded normally.
package stream

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	gonmea "github.com/adrianmo/go-nmea"

	"aisdecode/internal/ais"
	"aisdecode/internal/nmea"
	"aisdecode/internal/reassembly"
	"aisdecode/internal/sixbit"
)

type Config struct {
	// StrictLength rejects messages whose bit length the length table does
	// not allow. When false they decode with missing fields read as zero.
	StrictLength bool
	// OnUnhandled receives sentences the reassembler could not group.
	OnUnhandled func([]nmea.Sentence)
	// Logf defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Error classes counted in Stats.Errors.
const (
	ClassMalformedEnvelope   = "malformed_envelope"
	ClassUnsupportedSentence = "unsupported_sentence"
	ClassInvalidArmor        = "invalid_armor"
	ClassInvalidFillBits     = "invalid_fill_bits"
	ClassUnsupportedType     = "unsupported_message_type"
	ClassIllegalLength       = "illegal_message_length"
	ClassOther               = "other"
)

// Stats is a snapshot of the decoder counters.
type Stats struct {
	Lines            uint64                     `json:"lines"`
	Sentences        uint64                     `json:"sentences"`
	Messages         uint64                     `json:"messages"`
	ChecksumWarnings uint64                     `json:"checksum_warnings"`
	Unhandled        uint64                     `json:"unhandled"`
	Expired          uint64                     `json:"expired"`
	GNSSLines        uint64                     `json:"gnss_lines"`
	PendingGroups    int                        `json:"pending_groups"`
	ByType           map[ais.MessageType]uint64 `json:"by_type"`
	Errors           map[string]uint64          `json:"errors"`
}

// StationFix is the receiver's own position, taken from the $-prefixed GNSS
// sentences some AIS receivers interleave with AIVDM/AIVDO output.
type StationFix struct {
	Valid      bool      `json:"valid"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKt    float64   `json:"speed_kt"`
	CourseDeg  float64   `json:"course_deg"`
	Satellites int64     `json:"satellites"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Decoder struct {
	cfg   Config
	opts  ais.DecodeOptions
	reasm *reassembly.Reassembler

	mu      sync.Mutex
	stats   Stats
	station StationFix
}

func New(cfg Config) *Decoder {
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	return &Decoder{
		cfg:   cfg,
		opts:  ais.DecodeOptions{SkipLengthCheck: !cfg.StrictLength},
		reasm: reassembly.New(),
		stats: Stats{
			ByType: make(map[ais.MessageType]uint64),
			Errors: make(map[string]uint64),
		},
	}
}

// Feed decodes one line. It returns a message when the line completes one,
// nil with a nil error when more fragments are needed or the line carried no
// AIS data, and an error when the line or the assembled payload is bad.
func (d *Decoder) Feed(line string) (ais.Message, error) {
	return d.FeedAt(time.Now().UTC(), line)
}

// FeedAt is Feed with an explicit receive time for new fragment groups.
func (d *Decoder) FeedAt(now time.Time, line string) (ais.Message, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	d.count(func(s *Stats) { s.Lines++ })

	if !strings.Contains(line, "!") && strings.Contains(line, "$") {
		d.applyGNSS(now, line)
		return nil, nil
	}

	s, err := nmea.Parse(line)
	if err != nil {
		d.countErr(err)
		return nil, err
	}
	d.count(func(st *Stats) { st.Sentences++ })
	if err := s.Verify(); err != nil {
		d.count(func(st *Stats) { st.ChecksumWarnings++ })
		d.cfg.Logf("stream: %v line=%q", err, s.Raw)
	}

	res := d.reasm.SubmitAt(now, s)
	if len(res.Unhandled) > 0 {
		d.unhandled(res.Unhandled)
	}
	if !res.Complete() {
		return nil, nil
	}

	m, err := ais.DecodeSentences(res.Sentences, d.opts)
	if err != nil {
		d.countErr(err)
		return nil, err
	}
	d.count(func(st *Stats) {
		st.Messages++
		st.ByType[m.Type()]++
	})
	return m, nil
}

// Expire drops fragment groups first seen more than maxAge before now. The
// dropped sentences go to OnUnhandled and are returned.
func (d *Decoder) Expire(now time.Time, maxAge time.Duration) [][]nmea.Sentence {
	groups := d.reasm.Expire(now, maxAge)
	for _, g := range groups {
		d.count(func(st *Stats) { st.Expired++ })
		d.unhandled(g)
	}
	return groups
}

// Flush drops every pending fragment group, typically at shutdown, and
// returns them for reporting.
func (d *Decoder) Flush() [][]nmea.Sentence {
	groups := d.reasm.Flush()
	for _, g := range groups {
		d.unhandled(g)
	}
	return groups
}

// Stats returns a copy of the counters.
func (d *Decoder) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.stats
	out.PendingGroups = d.reasm.Pending()
	out.ByType = make(map[ais.MessageType]uint64, len(d.stats.ByType))
	for k, v := range d.stats.ByType {
		out.ByType[k] = v
	}
	out.Errors = make(map[string]uint64, len(d.stats.Errors))
	for k, v := range d.stats.Errors {
		out.Errors[k] = v
	}
	return out
}

// Station returns the last receiver position seen on the feed.
func (d *Decoder) Station() StationFix {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.station
}

func (d *Decoder) applyGNSS(now time.Time, line string) {
	if i := strings.IndexByte(line, '$'); i > 0 {
		line = line[i:]
	}
	sentence, err := gonmea.Parse(line)
	if err != nil {
		d.countErr(err)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.GNSSLines++
	switch sentence.DataType() {
	case gonmea.TypeRMC:
		m := sentence.(gonmea.RMC)
		d.station.Valid = m.Validity == gonmea.ValidRMC
		d.station.Latitude = m.Latitude
		d.station.Longitude = m.Longitude
		d.station.SpeedKt = m.Speed
		d.station.CourseDeg = m.Course
		d.station.UpdatedAt = now
	case gonmea.TypeGGA:
		m := sentence.(gonmea.GGA)
		d.station.Valid = m.FixQuality != gonmea.Invalid
		d.station.Latitude = m.Latitude
		d.station.Longitude = m.Longitude
		d.station.Satellites = m.NumSatellites
		d.station.UpdatedAt = now
	}
}

func (d *Decoder) unhandled(sentences []nmea.Sentence) {
	d.count(func(st *Stats) { st.Unhandled += uint64(len(sentences)) })
	if d.cfg.OnUnhandled != nil {
		d.cfg.OnUnhandled(sentences)
	}
}

func (d *Decoder) count(fn func(*Stats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}

func (d *Decoder) countErr(err error) {
	class := ErrorClass(err)
	d.count(func(st *Stats) { st.Errors[class]++ })
}

// ErrorClass maps a Feed error to its Stats.Errors key.
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, nmea.ErrMalformedEnvelope):
		return ClassMalformedEnvelope
	case errors.Is(err, nmea.ErrUnsupportedSentenceType):
		return ClassUnsupportedSentence
	case errors.Is(err, sixbit.ErrInvalidArmorCharacter):
		return ClassInvalidArmor
	case errors.Is(err, sixbit.ErrInvalidFillBits):
		return ClassInvalidFillBits
	case errors.Is(err, ais.ErrUnsupportedMessageType):
		return ClassUnsupportedType
	case errors.Is(err, ais.ErrIllegalMessageLength):
		return ClassIllegalLength
	}
	return ClassOther
}
