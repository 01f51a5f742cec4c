package web

import (
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"aisdecode/internal/feed"
	"aisdecode/internal/stream"
)

// SourceStatus is one input feed and the decoder behind it.
type SourceStatus struct {
	Feed    feed.Snapshot     `json:"feed"`
	Decoder stream.Stats      `json:"decoder"`
	Station stream.StationFix `json:"station"`
}

// Status aggregates runtime counters for /api/status. Providers are
// registered once at startup by the runtime.
type Status struct {
	startUnixNano int64
	forwarded     uint64
	published     uint64
	publishErrors uint64
	sources       atomic.Value // func() []SourceStatus
	vessels       atomic.Value // func() int
	settings      atomic.Value // map[string]any
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.sources.Store(func() []SourceStatus { return nil })
	s.vessels.Store(func() int { return 0 })
	s.settings.Store(map[string]any{})
	return s
}

func (s *Status) SetSources(fn func() []SourceStatus) {
	if fn != nil {
		s.sources.Store(fn)
	}
}

func (s *Status) SetVesselCount(fn func() int) {
	if fn != nil {
		s.vessels.Store(fn)
	}
}

// SetSettings records the effective configuration summary shown to clients.
func (s *Status) SetSettings(settings map[string]any) {
	if settings != nil {
		s.settings.Store(settings)
	}
}

func (s *Status) MarkForwarded() { atomic.AddUint64(&s.forwarded, 1) }

func (s *Status) MarkPublished(err error) {
	if err != nil {
		atomic.AddUint64(&s.publishErrors, 1)
		return
	}
	atomic.AddUint64(&s.published, 1)
}

type BuildInfo struct {
	GoVersion string `json:"go_version"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

type StatusSnapshot struct {
	Service       string         `json:"service"`
	NowUTC        string         `json:"now_utc"`
	UptimeSec     int64          `json:"uptime_sec"`
	Build         BuildInfo      `json:"build"`
	Settings      map[string]any `json:"settings"`
	Sources       []SourceStatus `json:"sources"`
	Vessels       int            `json:"vessels"`
	Forwarded     uint64         `json:"forwarded"`
	Published     uint64         `json:"published"`
	PublishErrors uint64         `json:"publish_errors"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	snap := StatusSnapshot{
		Service:       "aisdecode",
		NowUTC:        nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:     int64(nowUTC.Sub(start).Seconds()),
		Build:         readBuildInfo(),
		Settings:      s.settings.Load().(map[string]any),
		Sources:       s.sources.Load().(func() []SourceStatus)(),
		Vessels:       s.vessels.Load().(func() int)(),
		Forwarded:     atomic.LoadUint64(&s.forwarded),
		Published:     atomic.LoadUint64(&s.published),
		PublishErrors: atomic.LoadUint64(&s.publishErrors),
	}
	if snap.Sources == nil {
		snap.Sources = []SourceStatus{}
	}
	return snap
}

func readBuildInfo() BuildInfo {
	out := BuildInfo{GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return out
	}
	out.Version = bi.Main.Version
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.modified":
			out.Dirty = s.Value == "true"
		case "vcs.time":
			out.BuildTime = s.Value
		}
	}
	return out
}
