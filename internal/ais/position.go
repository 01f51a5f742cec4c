package ais

import (
	"math"
	"time"

	"aisdecode/internal/bitseq"
)

// Sentinel values the protocol uses for "not available".
const (
	LongitudeNotAvailable = 181.0
	LatitudeNotAvailable  = 91.0
	HeadingNotAvailable   = 511
	SpeedNotAvailable     = 102.3
	CourseNotAvailable    = 360.0
	RateOfTurnUnavailable = -128
)

// Coordinate scales: 1/10000 minute for full-resolution positions, 1/10 minute
// for the coarse ones in messages 17, 22, 23 and 27.
const (
	fineDivisor   = 600000.0
	coarseDivisor = 600.0
)

// Positioner is implemented by messages that report a position.
type Positioner interface {
	Message
	// Position returns latitude and longitude in degrees; ok is false when the
	// station reported "not available" or an out-of-range value.
	Position() (lat, lon float64, ok bool)
}

func positionOK(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Dimensions are distances in metres from the position reference point.
type Dimensions struct {
	ToBow       uint16 `json:"to_bow"`
	ToStern     uint16 `json:"to_stern"`
	ToPort      uint8  `json:"to_port"`
	ToStarboard uint8  `json:"to_starboard"`
}

// Length is the overall length in metres.
func (d Dimensions) Length() int { return int(d.ToBow) + int(d.ToStern) }

// Beam is the overall width in metres.
func (d Dimensions) Beam() int { return int(d.ToPort) + int(d.ToStarboard) }

func decodeDimensions(b bitseq.Sequence, start int) Dimensions {
	return Dimensions{
		ToBow:       uint16(b.Unsigned(start, start+9)),
		ToStern:     uint16(b.Unsigned(start+9, start+18)),
		ToPort:      uint8(b.Unsigned(start+18, start+24)),
		ToStarboard: uint8(b.Unsigned(start+24, start+30)),
	}
}

// PositionReport is a class A position report (types 1, 2 and 3).
type PositionReport struct {
	Header

	NavigationStatus  NavigationStatus  `json:"nav_status"`
	RateOfTurn        int8              `json:"rate_of_turn"`
	SpeedOverGround   float64           `json:"speed_over_ground"`
	PositionAccuracy  bool              `json:"position_accuracy"`
	Longitude         float64           `json:"longitude"`
	Latitude          float64           `json:"latitude"`
	CourseOverGround  float64           `json:"course_over_ground"`
	TrueHeading       uint16            `json:"true_heading"`
	Second            uint8             `json:"second"`
	ManeuverIndicator ManeuverIndicator `json:"maneuver_indicator"`
	RAIM              bool              `json:"raim"`
	RadioStatus       uint32            `json:"radio_status"`
}

func decodePositionReport(h Header, b bitseq.Sequence) *PositionReport {
	return &PositionReport{
		Header:            h,
		NavigationStatus:  NavigationStatus(b.Unsigned(38, 42)),
		RateOfTurn:        int8(b.Signed(42, 50)),
		SpeedOverGround:   b.Scaled(50, 60, 10),
		PositionAccuracy:  b.Bool(60),
		Longitude:         b.SignedScaled(61, 89, fineDivisor),
		Latitude:          b.SignedScaled(89, 116, fineDivisor),
		CourseOverGround:  b.Scaled(116, 128, 10),
		TrueHeading:       uint16(b.Unsigned(128, 137)),
		Second:            uint8(b.Unsigned(137, 143)),
		ManeuverIndicator: ManeuverIndicator(b.Unsigned(143, 145)),
		RAIM:              b.Bool(148),
		RadioStatus:       uint32(b.Unsigned(149, 168)),
	}
}

func (m *PositionReport) Position() (float64, float64, bool) {
	return m.Latitude, m.Longitude, positionOK(m.Latitude, m.Longitude)
}

// HeadingAvailable is false when TrueHeading carries the 511 sentinel.
func (m *PositionReport) HeadingAvailable() bool { return m.TrueHeading != HeadingNotAvailable }

// RateOfTurnDegrees converts the ROT indicator to degrees per minute. ok is
// false when no turn information is available; the +/-127 "turning faster
// than 5 degrees per 30 s" values convert like any other.
func (m *PositionReport) RateOfTurnDegrees() (float64, bool) {
	if m.RateOfTurn == RateOfTurnUnavailable {
		return 0, false
	}
	v := float64(m.RateOfTurn) / 4.733
	return math.Copysign(v*v, v), true
}

// BaseStationReport is a base station report (type 4) or UTC/date response
// (type 11); both share one layout.
type BaseStationReport struct {
	Header

	Year                 uint16               `json:"year"`
	Month                uint8                `json:"month"`
	Day                  uint8                `json:"day"`
	Hour                 uint8                `json:"hour"`
	Minute               uint8                `json:"minute"`
	Second               uint8                `json:"second"`
	PositionAccuracy     bool                 `json:"position_accuracy"`
	Longitude            float64              `json:"longitude"`
	Latitude             float64              `json:"latitude"`
	PositionFixingDevice PositionFixingDevice `json:"epfd"`
	RAIM                 bool                 `json:"raim"`
	RadioStatus          uint32               `json:"radio_status"`
}

func decodeBaseStationReport(h Header, b bitseq.Sequence) *BaseStationReport {
	return &BaseStationReport{
		Header:               h,
		Year:                 uint16(b.Unsigned(38, 52)),
		Month:                uint8(b.Unsigned(52, 56)),
		Day:                  uint8(b.Unsigned(56, 61)),
		Hour:                 uint8(b.Unsigned(61, 66)),
		Minute:               uint8(b.Unsigned(66, 72)),
		Second:               uint8(b.Unsigned(72, 78)),
		PositionAccuracy:     b.Bool(78),
		Longitude:            b.SignedScaled(79, 107, fineDivisor),
		Latitude:             b.SignedScaled(107, 134, fineDivisor),
		PositionFixingDevice: PositionFixingDevice(b.Unsigned(134, 138)),
		RAIM:                 b.Bool(148),
		RadioStatus:          uint32(b.Unsigned(149, 168)),
	}
}

func (m *BaseStationReport) Position() (float64, float64, bool) {
	return m.Latitude, m.Longitude, positionOK(m.Latitude, m.Longitude)
}

// Timestamp returns the reported UTC time. ok is false when any component
// holds its "not available" value or is out of range.
func (m *BaseStationReport) Timestamp() (time.Time, bool) {
	if m.Year == 0 || m.Month == 0 || m.Month > 12 || m.Day == 0 || m.Day > 31 ||
		m.Hour > 23 || m.Minute > 59 || m.Second > 59 {
		return time.Time{}, false
	}
	ts := time.Date(int(m.Year), time.Month(m.Month), int(m.Day), int(m.Hour), int(m.Minute), int(m.Second), 0, time.UTC)
	if ts.Day() != int(m.Day) {
		return time.Time{}, false
	}
	return ts, true
}

// SARAircraftPositionReport is a standard SAR aircraft position report (type
// 9). Speed is in whole knots.
type SARAircraftPositionReport struct {
	Header

	Altitude         uint16  `json:"altitude"`
	SpeedOverGround  uint16  `json:"speed_over_ground"`
	PositionAccuracy bool    `json:"position_accuracy"`
	Longitude        float64 `json:"longitude"`
	Latitude         float64 `json:"latitude"`
	CourseOverGround float64 `json:"course_over_ground"`
	Second           uint8   `json:"second"`
	Regional         uint8   `json:"regional"`
	Dte              bool    `json:"dte"`
	Assigned         bool    `json:"assigned"`
	RAIM             bool    `json:"raim"`
	RadioStatus      uint32  `json:"radio_status"`
}

func decodeSARAircraftPositionReport(h Header, b bitseq.Sequence) *SARAircraftPositionReport {
	return &SARAircraftPositionReport{
		Header:           h,
		Altitude:         uint16(b.Unsigned(38, 50)),
		SpeedOverGround:  uint16(b.Unsigned(50, 60)),
		PositionAccuracy: b.Bool(60),
		Longitude:        b.SignedScaled(61, 89, fineDivisor),
		Latitude:         b.SignedScaled(89, 116, fineDivisor),
		CourseOverGround: b.Scaled(116, 128, 10),
		Second:           uint8(b.Unsigned(128, 134)),
		Regional:         uint8(b.Unsigned(134, 142)),
		Dte:              b.Bool(142),
		Assigned:         b.Bool(146),
		RAIM:             b.Bool(147),
		RadioStatus:      uint32(b.Unsigned(148, 168)),
	}
}

func (m *SARAircraftPositionReport) Position() (float64, float64, bool) {
	return m.Latitude, m.Longitude, positionOK(m.Latitude, m.Longitude)
}

// ClassBPositionReport is a standard class B CS position report (type 18).
type ClassBPositionReport struct {
	Header

	SpeedOverGround  float64 `json:"speed_over_ground"`
	PositionAccuracy bool    `json:"position_accuracy"`
	Longitude        float64 `json:"longitude"`
	Latitude         float64 `json:"latitude"`
	CourseOverGround float64 `json:"course_over_ground"`
	TrueHeading      uint16  `json:"true_heading"`
	Second           uint8   `json:"second"`
	Regional         uint8   `json:"regional"`
	CSUnit           bool    `json:"cs_unit"`
	Display          bool    `json:"display"`
	DSC              bool    `json:"dsc"`
	Band             bool    `json:"band"`
	Message22        bool    `json:"msg22"`
	Assigned         bool    `json:"assigned"`
	RAIM             bool    `json:"raim"`
	RadioStatus      uint32  `json:"radio_status"`
}

func decodeClassBPositionReport(h Header, b bitseq.Sequence) *ClassBPositionReport {
	return &ClassBPositionReport{
		Header:           h,
		SpeedOverGround:  b.Scaled(46, 56, 10),
		PositionAccuracy: b.Bool(56),
		Longitude:        b.SignedScaled(57, 85, fineDivisor),
		Latitude:         b.SignedScaled(85, 112, fineDivisor),
		CourseOverGround: b.Scaled(112, 124, 10),
		TrueHeading:      uint16(b.Unsigned(124, 133)),
		Second:           uint8(b.Unsigned(133, 139)),
		Regional:         uint8(b.Unsigned(139, 141)),
		CSUnit:           b.Bool(141),
		Display:          b.Bool(142),
		DSC:              b.Bool(143),
		Band:             b.Bool(144),
		Message22:        b.Bool(145),
		Assigned:         b.Bool(146),
		RAIM:             b.Bool(147),
		RadioStatus:      uint32(b.Unsigned(148, 168)),
	}
}

func (m *ClassBPositionReport) Position() (float64, float64, bool) {
	return m.Latitude, m.Longitude, positionOK(m.Latitude, m.Longitude)
}

func (m *ClassBPositionReport) HeadingAvailable() bool { return m.TrueHeading != HeadingNotAvailable }

// ExtendedClassBPositionReport is an extended class B equipment position
// report (type 19): a type 18 position plus static data.
type ExtendedClassBPositionReport struct {
	Header

	SpeedOverGround      float64              `json:"speed_over_ground"`
	PositionAccuracy     bool                 `json:"position_accuracy"`
	Longitude            float64              `json:"longitude"`
	Latitude             float64              `json:"latitude"`
	CourseOverGround     float64              `json:"course_over_ground"`
	TrueHeading          uint16               `json:"true_heading"`
	Second               uint8                `json:"second"`
	Regional             uint8                `json:"regional"`
	ShipName             string               `json:"shipname"`
	ShipType             ShipType             `json:"shiptype"`
	Dimensions           Dimensions           `json:"dimensions"`
	PositionFixingDevice PositionFixingDevice `json:"epfd"`
	RAIM                 bool                 `json:"raim"`
	Dte                  bool                 `json:"dte"`
	Assigned             bool                 `json:"assigned"`
}

func decodeExtendedClassBPositionReport(h Header, b bitseq.Sequence) *ExtendedClassBPositionReport {
	return &ExtendedClassBPositionReport{
		Header:               h,
		SpeedOverGround:      b.Scaled(46, 56, 10),
		PositionAccuracy:     b.Bool(56),
		Longitude:            b.SignedScaled(57, 85, fineDivisor),
		Latitude:             b.SignedScaled(85, 112, fineDivisor),
		CourseOverGround:     b.Scaled(112, 124, 10),
		TrueHeading:          uint16(b.Unsigned(124, 133)),
		Second:               uint8(b.Unsigned(133, 139)),
		Regional:             uint8(b.Unsigned(139, 143)),
		ShipName:             b.Text(143, 263),
		ShipType:             ShipType(b.Unsigned(263, 271)),
		Dimensions:           decodeDimensions(b, 271),
		PositionFixingDevice: PositionFixingDevice(b.Unsigned(301, 305)),
		RAIM:                 b.Bool(305),
		Dte:                  b.Bool(306),
		Assigned:             b.Bool(307),
	}
}

func (m *ExtendedClassBPositionReport) Position() (float64, float64, bool) {
	return m.Latitude, m.Longitude, positionOK(m.Latitude, m.Longitude)
}

func (m *ExtendedClassBPositionReport) HeadingAvailable() bool {
	return m.TrueHeading != HeadingNotAvailable
}

// AidToNavigationReport is an aid-to-navigation report (type 21). Name
// includes the name extension when present.
type AidToNavigationReport struct {
	Header

	AidType              AidType              `json:"aid_type"`
	Name                 string               `json:"name"`
	PositionAccuracy     bool                 `json:"position_accuracy"`
	Longitude            float64              `json:"longitude"`
	Latitude             float64              `json:"latitude"`
	Dimensions           Dimensions           `json:"dimensions"`
	PositionFixingDevice PositionFixingDevice `json:"epfd"`
	Second               uint8                `json:"second"`
	OffPosition          bool                 `json:"off_position"`
	Regional             uint8                `json:"regional"`
	RAIM                 bool                 `json:"raim"`
	VirtualAid           bool                 `json:"virtual_aid"`
	Assigned             bool                 `json:"assigned"`
}

func decodeAidToNavigationReport(h Header, b bitseq.Sequence) *AidToNavigationReport {
	name := b.Text(43, 163)
	if b.Len() > 272 {
		name += b.Text(272, b.Len())
	}
	return &AidToNavigationReport{
		Header:               h,
		AidType:              AidType(b.Unsigned(38, 43)),
		Name:                 name,
		PositionAccuracy:     b.Bool(163),
		Longitude:            b.SignedScaled(164, 192, fineDivisor),
		Latitude:             b.SignedScaled(192, 219, fineDivisor),
		Dimensions:           decodeDimensions(b, 219),
		PositionFixingDevice: PositionFixingDevice(b.Unsigned(249, 253)),
		Second:               uint8(b.Unsigned(253, 259)),
		OffPosition:          b.Bool(259),
		Regional:             uint8(b.Unsigned(260, 268)),
		RAIM:                 b.Bool(268),
		VirtualAid:           b.Bool(269),
		Assigned:             b.Bool(270),
	}
}

func (m *AidToNavigationReport) Position() (float64, float64, bool) {
	return m.Latitude, m.Longitude, positionOK(m.Latitude, m.Longitude)
}

// LongRangeBroadcast is a long range AIS broadcast (type 27). Position is in
// 1/10 minute resolution, speed in knots and course in degrees.
type LongRangeBroadcast struct {
	Header

	PositionAccuracy bool             `json:"position_accuracy"`
	RAIM             bool             `json:"raim"`
	NavigationStatus NavigationStatus `json:"nav_status"`
	Longitude        float64          `json:"longitude"`
	Latitude         float64          `json:"latitude"`
	SpeedOverGround  uint8            `json:"speed_over_ground"`
	CourseOverGround uint16           `json:"course_over_ground"`
	GNSS             bool             `json:"gnss"`
}

func decodeLongRangeBroadcast(h Header, b bitseq.Sequence) *LongRangeBroadcast {
	return &LongRangeBroadcast{
		Header:           h,
		PositionAccuracy: b.Bool(38),
		RAIM:             b.Bool(39),
		NavigationStatus: NavigationStatus(b.Unsigned(40, 44)),
		Longitude:        b.SignedScaled(44, 62, coarseDivisor),
		Latitude:         b.SignedScaled(62, 79, coarseDivisor),
		SpeedOverGround:  uint8(b.Unsigned(79, 85)),
		CourseOverGround: uint16(b.Unsigned(85, 94)),
		GNSS:             b.Bool(94),
	}
}

func (m *LongRangeBroadcast) Position() (float64, float64, bool) {
	return m.Latitude, m.Longitude, positionOK(m.Latitude, m.Longitude)
}
