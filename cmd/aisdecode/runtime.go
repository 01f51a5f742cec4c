package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"aisdecode/internal/ais"
	"aisdecode/internal/config"
	"aisdecode/internal/feed"
	"aisdecode/internal/nmea"
	"aisdecode/internal/publish"
	"aisdecode/internal/replay"
	"aisdecode/internal/stream"
	"aisdecode/internal/udp"
	"aisdecode/internal/vessel"
	"aisdecode/internal/web"
)

// defaultPublishQueueLen bounds the messages waiting for the broker.
const defaultPublishQueueLen = 256

var errPublishQueueFull = errors.New("mqtt: publish queue full, message dropped")

// messagePublisher is the MQTT sink as seen by the runtime.
type messagePublisher interface {
	Publish(m ais.Message) error
	Close()
}

// source is one input feed with its own decoder, so fragments from
// different receivers never end up in the same group.
type source struct {
	name   string
	client *feed.Client
	dec    *stream.Decoder

	// Replay sources have no client; their state is tracked here.
	replayPath  string
	replayState atomic.Value // string
	replayLines atomic.Uint64
}

func (s *source) snapshot() web.SourceStatus {
	st := web.SourceStatus{Decoder: s.dec.Stats(), Station: s.dec.Station()}
	if s.client != nil {
		st.Feed = s.client.Snapshot()
		return st
	}
	state, _ := s.replayState.Load().(string)
	st.Feed = feed.Snapshot{
		Name:   s.name,
		Kind:   "replay",
		Target: s.replayPath,
		State:  state,
		Lines:  s.replayLines.Load(),
	}
	return st
}

type liveRuntime struct {
	cfg     config.Config
	status  *web.Status
	hub     *web.Hub
	vessels *vessel.Store

	recorder  *replay.Writer
	forwarder *udp.Forwarder
	publisher messagePublisher
	// pubQ feeds publishLoop so a slow broker never blocks a feed reader.
	pubQ            chan ais.Message
	publishQueueLen int

	sources []*source

	// now is replaceable in tests.
	now func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func newLiveRuntime(cfg config.Config, status *web.Status, hub *web.Hub) (*liveRuntime, error) {
	if status == nil {
		return nil, fmt.Errorf("status is nil")
	}
	if hub == nil {
		return nil, fmt.Errorf("hub is nil")
	}
	r := &liveRuntime{
		cfg:    cfg,
		status: status,
		hub:    hub,
		vessels: vessel.NewStore(vessel.StoreConfig{
			MaxTargets: cfg.Vessels.MaxTargets,
			TTL:        cfg.Vessels.TTL,
		}),
		now:             func() time.Time { return time.Now().UTC() },
		publishQueueLen: defaultPublishQueueLen,
	}

	for _, tc := range cfg.Sources.TCP {
		c, err := feed.NewTCP(tc.Name, tc.Addr, tc.ReconnectDelay)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.sources = append(r.sources, r.newSource(tc.Name, c))
	}
	if cfg.Sources.Serial.Enable {
		c, err := feed.NewSerial("serial", cfg.Sources.Serial.Device, cfg.Sources.Serial.Baud)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.sources = append(r.sources, r.newSource("serial", c))
	}
	if cfg.Sources.Replay.Enable {
		src := r.newSource("replay", nil)
		src.replayPath = cfg.Sources.Replay.Path
		src.replayState.Store("stopped")
		r.sources = append(r.sources, src)
	}

	if cfg.Record.Enable {
		w, err := replay.CreateWriter(cfg.Record.Path)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("record: %w", err)
		}
		r.recorder = w
		log.Printf("recording sentences to %s", cfg.Record.Path)
	}
	if cfg.Forward.Enable {
		f, err := udp.NewForwarder(cfg.Forward.Dest)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("forward: %w", err)
		}
		r.forwarder = f
		log.Printf("forwarding sentences to udp %s", f.Dest())
	}
	if cfg.MQTT.Enable {
		p, err := publish.Connect(publish.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		})
		if err != nil {
			r.Close()
			return nil, err
		}
		r.publisher = p
	}

	status.SetSources(r.SourceStatuses)
	status.SetVesselCount(r.vessels.Len)
	status.SetSettings(settingsSummary(cfg))
	return r, nil
}

func (r *liveRuntime) newSource(name string, c *feed.Client) *source {
	return &source{
		name:   name,
		client: c,
		dec: stream.New(stream.Config{
			StrictLength: r.cfg.Decoder.Strict(),
			OnUnhandled: func(sentences []nmea.Sentence) {
				for _, s := range sentences {
					log.Printf("%s: dropped fragment %d/%d: %s", name, s.Index, s.Total, s.Raw)
				}
			},
		}),
	}
}

// Start launches every source and the fragment expiry loop.
func (r *liveRuntime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	if r.publisher != nil {
		r.pubQ = make(chan ais.Message, r.publishQueueLen)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.publishLoop(ctx)
		}()
	}

	for _, src := range r.sources {
		if src.client != nil {
			if err := src.client.Start(ctx, func(line []byte) error {
				// Decode errors are counted per source; the feed stays healthy.
				_ = r.handleLine(src, r.now(), string(line))
				return nil
			}); err != nil {
				return fmt.Errorf("source %s: %w", src.name, err)
			}
			log.Printf("source %s started", src.name)
			continue
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.runReplay(ctx, src)
		}()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.expireLoop(ctx)
	}()
	return nil
}

func (r *liveRuntime) runReplay(ctx context.Context, src *source) {
	rc := r.cfg.Sources.Replay
	records, err := replay.ReadFile(rc.Path)
	if err != nil {
		src.replayState.Store("error")
		log.Printf("replay %s: %v", rc.Path, err)
		return
	}
	src.replayState.Store("playing")
	log.Printf("replay %s records=%d speed=%g loop=%t", rc.Path, len(records), rc.Speed, rc.Loop)

	err = replay.Play(records, rc.Speed, rc.Loop, replay.ContextSleeper{Ctx: ctx}, func(line string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		src.replayLines.Add(1)
		// Decode errors are counted by the decoder and must not end playback.
		_ = r.handleLine(src, r.now(), line)
		return nil
	})
	switch {
	case err == nil:
		src.replayState.Store("finished")
		log.Printf("replay %s finished", rc.Path)
	case errors.Is(err, context.Canceled):
		src.replayState.Store("stopped")
	default:
		src.replayState.Store("error")
		log.Printf("replay %s: %v", rc.Path, err)
	}
}

// publishLoop hands queued messages to the broker until ctx is done. Messages
// still queued at shutdown are dropped.
func (r *liveRuntime) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(r.pubQ); n > 0 {
				log.Printf("mqtt: %d queued messages dropped at shutdown", n)
			}
			return
		case m := <-r.pubQ:
			err := r.publisher.Publish(m)
			r.status.MarkPublished(err)
			if err != nil {
				log.Printf("mqtt: type=%d mmsi=%d: %v", m.Type(), m.SourceMMSI(), err)
			}
		}
	}
}

func (r *liveRuntime) expireLoop(ctx context.Context) {
	t := time.NewTicker(r.cfg.Decoder.ExpireInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			now := r.now()
			for _, src := range r.sources {
				src.dec.Expire(now, r.cfg.Decoder.FragmentMaxAge)
			}
		}
	}
}

// handleLine records, decodes and fans out one line from src. It returns the
// decode error, if any.
func (r *liveRuntime) handleLine(src *source, now time.Time, line string) error {
	if r.recorder != nil {
		if err := r.recorder.WriteLine(now, line); err != nil {
			log.Printf("record: %v", err)
		}
	}

	m, err := src.dec.FeedAt(now, line)
	if err != nil {
		log.Printf("%s: %s: %v", src.name, stream.ErrorClass(err), err)
		return err
	}
	if m == nil {
		return nil
	}

	r.vessels.Update(now, m)

	if payload, err := ais.MarshalEnvelope(m); err != nil {
		log.Printf("%s: encode type=%d mmsi=%d: %v", src.name, m.Type(), m.SourceMMSI(), err)
	} else {
		r.hub.Publish(payload)
	}

	if r.publisher != nil {
		// A nil queue (not started) also takes the default branch.
		select {
		case r.pubQ <- m:
		default:
			r.status.MarkPublished(errPublishQueueFull)
			log.Printf("%s: %v", src.name, errPublishQueueFull)
		}
	}

	if r.forwarder != nil {
		for _, s := range m.Sentences() {
			if err := r.forwarder.Send(s.Raw); err != nil {
				log.Printf("forward: %v", err)
				break
			}
			r.status.MarkForwarded()
		}
	}
	return nil
}

// SourceStatuses reports every source in configuration order.
func (r *liveRuntime) SourceStatuses() []web.SourceStatus {
	out := make([]web.SourceStatus, 0, len(r.sources))
	for _, src := range r.sources {
		out = append(out, src.snapshot())
	}
	return out
}

func (r *liveRuntime) Vessels() *vessel.Store { return r.vessels }

// Close stops every source, reports fragments still waiting for their
// siblings and releases the sinks.
func (r *liveRuntime) Close() {
	if r == nil {
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	for _, src := range r.sources {
		if src.client != nil {
			src.client.Close()
		}
	}
	r.wg.Wait()

	for _, src := range r.sources {
		if groups := src.dec.Flush(); len(groups) > 0 {
			log.Printf("%s: %d incomplete fragment groups at shutdown", src.name, len(groups))
		}
	}

	if r.recorder != nil {
		if err := r.recorder.Close(); err != nil {
			log.Printf("record close: %v", err)
		}
		r.recorder = nil
	}
	if r.forwarder != nil {
		_ = r.forwarder.Close()
		r.forwarder = nil
	}
	if r.publisher != nil {
		r.publisher.Close()
		r.publisher = nil
	}
}

func settingsSummary(cfg config.Config) map[string]any {
	tcp := make([]string, 0, len(cfg.Sources.TCP))
	for _, s := range cfg.Sources.TCP {
		tcp = append(tcp, s.Name+"="+s.Addr)
	}
	out := map[string]any{
		"strict_length":    cfg.Decoder.Strict(),
		"fragment_max_age": cfg.Decoder.FragmentMaxAge.String(),
		"tcp_sources":      tcp,
		"vessel_ttl":       cfg.Vessels.TTL.String(),
		"max_vessels":      cfg.Vessels.MaxTargets,
	}
	if cfg.Sources.Serial.Enable {
		out["serial"] = fmt.Sprintf("%s@%d", cfg.Sources.Serial.Device, cfg.Sources.Serial.Baud)
	}
	if cfg.Sources.Replay.Enable {
		out["replay"] = cfg.Sources.Replay.Path
	}
	if cfg.Record.Enable {
		out["record"] = cfg.Record.Path
	}
	if cfg.MQTT.Enable {
		out["mqtt"] = cfg.MQTT.Broker + " " + cfg.MQTT.Topic
	}
	if cfg.Forward.Enable {
		out["forward"] = cfg.Forward.Dest
	}
	return out
}
