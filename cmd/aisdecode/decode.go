package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"aisdecode/internal/ais"
	"aisdecode/internal/nmea"
	"aisdecode/internal/replay"
	"aisdecode/internal/stream"
)

type decodeSummary struct {
	Segments    int
	Sentences   int
	MaxDuration time.Duration
	Stats       stream.Stats
	// Incomplete holds fragment groups still open at end of input.
	Incomplete [][]nmea.Sentence
}

// decodeRecords feeds every record through one decoder and writes a JSON
// envelope per decoded message to out (if non-nil). Record offsets stand in
// for receive times so fragment ages follow the capture.
func decodeRecords(records []replay.Record, strict bool, out io.Writer) (decodeSummary, error) {
	s := decodeSummary{}
	dec := stream.New(stream.Config{
		StrictLength: strict,
		Logf:         func(string, ...any) {},
	})

	base := time.Unix(0, 0).UTC()
	origin := time.Duration(0)
	hasLines := false
	for _, r := range records {
		if r.IsStart() {
			s.Segments++
			origin = r.At
			continue
		}
		hasLines = true
		s.Sentences++
		at := r.At - origin
		if at < 0 {
			at = 0
		}
		if at > s.MaxDuration {
			s.MaxDuration = at
		}

		m, err := dec.FeedAt(base.Add(r.At), r.Line)
		if err != nil || m == nil || out == nil {
			continue
		}
		b, err := ais.MarshalEnvelope(m)
		if err != nil {
			return s, fmt.Errorf("encode type=%d mmsi=%d: %w", m.Type(), m.SourceMMSI(), err)
		}
		if _, err := out.Write(append(b, '\n')); err != nil {
			return s, err
		}
	}
	if s.Segments == 0 && hasLines {
		s.Segments = 1
	}
	s.Incomplete = dec.Flush()
	s.Stats = dec.Stats()
	return s, nil
}

func decodeFile(path string, strict bool, out, summary io.Writer) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	recs, err := replay.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := decodeRecords(recs, strict, out)
	if err != nil {
		return err
	}
	if summary != nil {
		printDecodeSummary(summary, path, s)
	}
	return nil
}

func printDecodeSummary(w io.Writer, path string, s decodeSummary) {
	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "sentences: %d\n", s.Sentences)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)
	fmt.Fprintf(w, "messages: %d\n", s.Stats.Messages)
	fmt.Fprintf(w, "checksum_warnings: %d\n", s.Stats.ChecksumWarnings)
	fmt.Fprintf(w, "gnss_lines: %d\n", s.Stats.GNSSLines)
	fmt.Fprintf(w, "unhandled_sentences: %d\n", s.Stats.Unhandled)

	types := make([]int, 0, len(s.Stats.ByType))
	for t := range s.Stats.ByType {
		types = append(types, int(t))
	}
	sort.Ints(types)
	fmt.Fprintf(w, "by_type:\n")
	for _, t := range types {
		mt := ais.MessageType(t)
		fmt.Fprintf(w, "  %2d %s: %d\n", t, mt, s.Stats.ByType[mt])
	}

	classes := make([]string, 0, len(s.Stats.Errors))
	for c := range s.Stats.Errors {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	fmt.Fprintf(w, "errors:\n")
	for _, c := range classes {
		fmt.Fprintf(w, "  %s: %d\n", c, s.Stats.Errors[c])
	}

	fmt.Fprintf(w, "incomplete_groups: %d\n", len(s.Incomplete))
	for _, g := range s.Incomplete {
		for _, sentence := range g {
			fmt.Fprintf(w, "  %s\n", sentence.Raw)
		}
	}
}
