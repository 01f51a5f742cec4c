// Package vessel keeps the latest known state of every station heard on the
// air, merging position reports with static and voyage data by MMSI.
package vessel

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bbailey1024/geohash"
	"github.com/patrickmn/go-cache"

	"aisdecode/internal/ais"
)

type StoreConfig struct {
	// MaxTargets limits memory use. When exceeded, the least recently heard
	// vessels are evicted.
	MaxTargets int
	// TTL controls how long a vessel is kept without updates.
	TTL time.Duration
}

// Vessel is the merged view of one station.
type Vessel struct {
	MMSI  uint32 `json:"mmsi"`
	Class string `json:"class"`

	Name        string  `json:"name,omitempty"`
	CallSign    string  `json:"callsign,omitempty"`
	IMO         uint32  `json:"imo,omitempty"`
	ShipType    string  `json:"shiptype,omitempty"`
	Destination string  `json:"destination,omitempty"`
	ETA         string  `json:"eta,omitempty"`
	Draught     float64 `json:"draught,omitempty"`
	LengthM     int     `json:"length_m,omitempty"`
	BeamM       int     `json:"beam_m,omitempty"`

	HasPosition bool     `json:"has_position"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
	Geohash     uint64   `json:"geohash,omitempty"`
	Speed       *float64 `json:"speed,omitempty"`
	Course      *float64 `json:"course,omitempty"`
	Heading     *uint16  `json:"heading,omitempty"`
	NavStatus   string   `json:"nav_status,omitempty"`

	LastType    ais.MessageType `json:"last_type"`
	Messages    uint64          `json:"messages"`
	LastSeenUTC time.Time       `json:"last_seen_utc"`
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	cfg     StoreConfig
	vessels *cache.Cache
}

func NewStore(cfg StoreConfig) *Store {
	if cfg.MaxTargets <= 0 {
		cfg.MaxTargets = 5000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	// No janitor goroutine; expired entries are purged on Snapshot.
	return &Store{cfg: cfg, vessels: cache.New(cfg.TTL, 0)}
}

func key(mmsi uint32) string { return strconv.FormatUint(uint64(mmsi), 10) }

// Update merges msg into the vessel it came from. It reports false for
// messages that carry no vessel state (binary, safety, control traffic).
func (s *Store) Update(nowUTC time.Time, msg ais.Message) bool {
	if s == nil || msg == nil {
		return false
	}
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mmsi := msg.SourceMMSI()
	var v Vessel
	if cur, ok := s.vessels.Get(key(mmsi)); ok {
		v = cur.(Vessel)
	} else {
		v = Vessel{MMSI: mmsi}
	}
	if !merge(&v, msg) {
		return false
	}
	v.LastType = msg.Type()
	v.Messages++
	v.LastSeenUTC = nowUTC.UTC()
	s.vessels.SetDefault(key(mmsi), v)

	if s.vessels.ItemCount() > s.cfg.MaxTargets {
		s.evictOldestLocked()
	}
	return true
}

func (s *Store) evictOldestLocked() {
	items := s.vessels.Items()
	for len(items) > s.cfg.MaxTargets {
		var oldestKey string
		var oldestAt time.Time
		first := true
		for k, it := range items {
			seen := it.Object.(Vessel).LastSeenUTC
			if first || seen.Before(oldestAt) {
				oldestKey = k
				oldestAt = seen
				first = false
			}
		}
		s.vessels.Delete(oldestKey)
		delete(items, oldestKey)
	}
}

// Get returns the vessel with the given MMSI if it has not expired.
func (s *Store) Get(mmsi uint32) (Vessel, bool) {
	if s == nil {
		return Vessel{}, false
	}
	v, ok := s.vessels.Get(key(mmsi))
	if !ok {
		return Vessel{}, false
	}
	return v.(Vessel), true
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.vessels.Items())
}

// Snapshot returns every live vessel sorted by MMSI.
func (s *Store) Snapshot() []Vessel {
	if s == nil {
		return nil
	}
	s.vessels.DeleteExpired()
	items := s.vessels.Items()
	out := make([]Vessel, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(Vessel))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MMSI < out[j].MMSI })
	return out
}

// BBox is a latitude/longitude box in degrees. It must not cross the
// antimeridian.
type BBox struct {
	South, West, North, East float64
}

func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// Within returns the positioned vessels inside box, sorted by MMSI. The
// geohash of the south-west and north-east corners bounds every point inside
// the box, so the range check prunes before the exact test.
func (s *Store) Within(box BBox) []Vessel {
	lo := geohash.EncodeInt(box.South, box.West)
	hi := geohash.EncodeInt(box.North, box.East)

	var out []Vessel
	for _, v := range s.Snapshot() {
		if !v.HasPosition || v.Geohash < lo || v.Geohash > hi {
			continue
		}
		if box.Contains(v.Latitude, v.Longitude) {
			out = append(out, v)
		}
	}
	return out
}

func merge(v *Vessel, msg ais.Message) bool {
	switch m := msg.(type) {
	case *ais.PositionReport:
		v.Class = "A"
		v.NavStatus = m.NavigationStatus.String()
		setMotion(v, m.SpeedOverGround, m.CourseOverGround, m.TrueHeading)
	case *ais.ShipAndVoyageData:
		v.Class = "A"
		v.Name = m.ShipName
		v.CallSign = m.CallSign
		v.IMO = m.IMO
		v.ShipType = m.ShipType.String()
		v.Destination = m.Destination
		v.ETA = m.ETA()
		v.Draught = m.Draught
		setDimensions(v, m.Dimensions)
		return true
	case *ais.BaseStationReport:
		v.Class = "base"
	case *ais.SARAircraftPositionReport:
		v.Class = "sar"
		v.Course = floatPtr(m.CourseOverGround, ais.CourseNotAvailable)
	case *ais.ClassBPositionReport:
		v.Class = "B"
		setMotion(v, m.SpeedOverGround, m.CourseOverGround, m.TrueHeading)
	case *ais.ExtendedClassBPositionReport:
		v.Class = "B"
		v.Name = m.ShipName
		v.ShipType = m.ShipType.String()
		setDimensions(v, m.Dimensions)
		setMotion(v, m.SpeedOverGround, m.CourseOverGround, m.TrueHeading)
	case *ais.AidToNavigationReport:
		v.Class = "aton"
		v.Name = m.Name
		v.ShipType = m.AidType.String()
		setDimensions(v, m.Dimensions)
	case *ais.StaticDataReport:
		if !m.IsPartA() && !m.IsPartB() {
			return false
		}
		if v.Class == "" {
			v.Class = "B"
		}
		if m.IsPartA() {
			v.Name = m.ShipName
			return true
		}
		v.ShipType = m.ShipType.String()
		v.CallSign = m.CallSign
		if m.MothershipMMSI == 0 {
			setDimensions(v, m.Dimensions)
		}
		return true
	case *ais.LongRangeBroadcast:
		if v.Class == "" {
			v.Class = "A"
		}
		v.NavStatus = m.NavigationStatus.String()
	default:
		return false
	}

	if p, ok := msg.(ais.Positioner); ok {
		if lat, lon, ok := p.Position(); ok {
			v.HasPosition = true
			v.Latitude = lat
			v.Longitude = lon
			v.Geohash = geohash.EncodeInt(lat, lon)
		}
	}
	return true
}

func setMotion(v *Vessel, sog, cog float64, heading uint16) {
	v.Speed = floatPtr(sog, ais.SpeedNotAvailable)
	v.Course = floatPtr(cog, ais.CourseNotAvailable)
	v.Heading = nil
	if heading != ais.HeadingNotAvailable {
		h := heading
		v.Heading = &h
	}
}

func floatPtr(val, unavailable float64) *float64 {
	if val >= unavailable {
		return nil
	}
	return &val
}

func setDimensions(v *Vessel, d ais.Dimensions) {
	if l := d.Length(); l > 0 {
		v.LengthM = l
	}
	if b := d.Beam(); b > 0 {
		v.BeamM = b
	}
}
