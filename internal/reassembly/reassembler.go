// Package reassembly joins multi-sentence AIS payloads back together.
//
// Fragments are grouped by sequence id (sentences without one share a single
// group) and released once every index 1..Total is present, in any arrival
// order. The reassembler never times groups out on its own: callers decide
// when to Expire or Flush.
package reassembly

import (
	"sort"
	"strings"
	"sync"
	"time"

	"aisdecode/internal/nmea"
)

// Result is the outcome of one Submit.
type Result struct {
	// Sentences holds a complete payload group in index order, or nil.
	Sentences []nmea.Sentence
	// Unhandled holds sentences that could not be grouped: the submitted
	// sentence itself, or an in-progress group it displaced.
	Unhandled []nmea.Sentence
}

// Complete reports whether Sentences holds a full payload.
func (r Result) Complete() bool {
	return len(r.Sentences) > 0
}

// Payload returns the concatenated armor of a complete group and the fill bits
// of its last fragment.
func (r Result) Payload() (string, int) {
	return Payload(r.Sentences)
}

// Payload joins the armored text of ordered fragments. The fill bits are those
// of the last fragment.
func Payload(fragments []nmea.Sentence) (string, int) {
	if len(fragments) == 0 {
		return "", 0
	}
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(f.Payload)
	}
	return b.String(), fragments[len(fragments)-1].FillBits
}

// MaxFragments is the largest fragment count a sentence may announce. The
// count field is a single digit in NMEA 0183.
const MaxFragments = 9

type groupKey struct {
	seq int
	has bool
}

type group struct {
	total     int
	parts     []nmea.Sentence
	have      []bool
	count     int
	firstSeen time.Time
}

func newGroup(total int, now time.Time) *group {
	return &group{
		total:     total,
		parts:     make([]nmea.Sentence, total),
		have:      make([]bool, total),
		firstSeen: now,
	}
}

func (g *group) add(s nmea.Sentence) {
	g.parts[s.Index-1] = s
	g.have[s.Index-1] = true
	g.count++
}

func (g *group) sentences() []nmea.Sentence {
	out := make([]nmea.Sentence, 0, g.count)
	for i, ok := range g.have {
		if ok {
			out = append(out, g.parts[i])
		}
	}
	return out
}

// Reassembler is safe for concurrent use.
type Reassembler struct {
	mu     sync.Mutex
	groups map[groupKey]*group
}

func New() *Reassembler {
	return &Reassembler{groups: make(map[groupKey]*group)}
}

// Submit adds one sentence, stamping a new group with the current time.
func (r *Reassembler) Submit(s nmea.Sentence) Result {
	return r.SubmitAt(time.Now(), s)
}

// SubmitAt adds one sentence; now is recorded as first-seen time when the
// sentence opens a group.
func (r *Reassembler) SubmitAt(now time.Time, s nmea.Sentence) Result {
	if s.Total < 1 || s.Total > MaxFragments || s.Index < 1 || s.Index > s.Total {
		return Result{Unhandled: []nmea.Sentence{s}}
	}
	if s.Total == 1 {
		return Result{Sentences: []nmea.Sentence{s}}
	}

	k := groupKey{seq: s.SequenceID, has: s.HasSequenceID}

	r.mu.Lock()
	defer r.mu.Unlock()

	var res Result
	g := r.groups[k]
	if g != nil && s.Index == 1 && (g.have[0] || g.total != s.Total) {
		// A fresh first fragment supersedes whatever was pending under this id.
		res.Unhandled = g.sentences()
		delete(r.groups, k)
		g = nil
	}
	if g == nil {
		g = newGroup(s.Total, now)
		r.groups[k] = g
	} else if g.total != s.Total || g.have[s.Index-1] {
		res.Unhandled = append(res.Unhandled, s)
		return res
	}

	g.add(s)
	if g.count == g.total {
		delete(r.groups, k)
		res.Sentences = g.parts
	}
	return res
}

// Pending is the number of incomplete groups.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

// Flush drops every incomplete group and returns their sentences, oldest group
// first.
func (r *Reassembler) Flush() [][]nmea.Sentence {
	return r.drop(func(*group) bool { return true })
}

// Expire drops groups first seen more than maxAge before now.
func (r *Reassembler) Expire(now time.Time, maxAge time.Duration) [][]nmea.Sentence {
	return r.drop(func(g *group) bool { return now.Sub(g.firstSeen) > maxAge })
}

func (r *Reassembler) drop(match func(*group) bool) [][]nmea.Sentence {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped []*group
	for k, g := range r.groups {
		if match(g) {
			dropped = append(dropped, g)
			delete(r.groups, k)
		}
	}
	if len(dropped) == 0 {
		return nil
	}
	sort.SliceStable(dropped, func(i, j int) bool {
		return dropped[i].firstSeen.Before(dropped[j].firstSeen)
	})
	out := make([][]nmea.Sentence, 0, len(dropped))
	for _, g := range dropped {
		out = append(out, g.sentences())
	}
	return out
}
