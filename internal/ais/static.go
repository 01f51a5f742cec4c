package ais

import (
	"fmt"

	"aisdecode/internal/bitseq"
)

// ShipAndVoyageData is class A static and voyage related data (type 5).
type ShipAndVoyageData struct {
	Header

	AISVersion           uint8                `json:"ais_version"`
	IMO                  uint32               `json:"imo"`
	CallSign             string               `json:"callsign"`
	ShipName             string               `json:"shipname"`
	ShipType             ShipType             `json:"shiptype"`
	Dimensions           Dimensions           `json:"dimensions"`
	PositionFixingDevice PositionFixingDevice `json:"epfd"`
	ETAMonth             uint8                `json:"eta_month"`
	ETADay               uint8                `json:"eta_day"`
	ETAHour              uint8                `json:"eta_hour"`
	ETAMinute            uint8                `json:"eta_minute"`
	Draught              float64              `json:"draught"`
	Destination          string               `json:"destination"`
	Dte                  bool                 `json:"dte"`
}

func decodeShipAndVoyageData(h Header, b bitseq.Sequence) *ShipAndVoyageData {
	return &ShipAndVoyageData{
		Header:               h,
		AISVersion:           uint8(b.Unsigned(38, 40)),
		IMO:                  uint32(b.Unsigned(40, 70)),
		CallSign:             b.Text(70, 112),
		ShipName:             b.Text(112, 232),
		ShipType:             ShipType(b.Unsigned(232, 240)),
		Dimensions:           decodeDimensions(b, 240),
		PositionFixingDevice: PositionFixingDevice(b.Unsigned(270, 274)),
		ETAMonth:             uint8(b.Unsigned(274, 278)),
		ETADay:               uint8(b.Unsigned(278, 283)),
		ETAHour:              uint8(b.Unsigned(283, 288)),
		ETAMinute:            uint8(b.Unsigned(288, 294)),
		Draught:              b.Scaled(294, 302, 10),
		Destination:          b.Text(302, 422),
		Dte:                  b.Bool(422),
	}
}

// ETA formats the estimated time of arrival as "dd-MM HH:mm".
func (m *ShipAndVoyageData) ETA() string {
	return fmt.Sprintf("%02d-%02d %02d:%02d", m.ETADay, m.ETAMonth, m.ETAHour, m.ETAMinute)
}

// StaticDataReport is one part of a class B static data report (type 24).
// Part A carries the name; part B the remaining static fields.
type StaticDataReport struct {
	Header

	PartNumber uint8 `json:"partno"`

	ShipName string `json:"shipname,omitempty"`

	ShipType       ShipType   `json:"shiptype"`
	VendorID       string     `json:"vendorid,omitempty"`
	Model          uint8      `json:"model"`
	Serial         uint32     `json:"serial"`
	CallSign       string     `json:"callsign,omitempty"`
	Dimensions     Dimensions `json:"dimensions"`
	MothershipMMSI uint32     `json:"mothership_mmsi,omitempty"`
}

const (
	StaticPartA = 0
	StaticPartB = 1
)

func decodeStaticDataReport(h Header, b bitseq.Sequence) *StaticDataReport {
	m := &StaticDataReport{
		Header:     h,
		PartNumber: uint8(b.Unsigned(38, 40)),
	}
	switch m.PartNumber {
	case StaticPartA:
		m.ShipName = b.Text(40, 160)
		return m
	case StaticPartB:
	default:
		// Part numbers 2 and 3 are reserved; the body is not interpreted.
		return m
	}
	m.ShipType = ShipType(b.Unsigned(40, 48))
	m.VendorID = b.Text(48, 66)
	m.Model = uint8(b.Unsigned(66, 70))
	m.Serial = uint32(b.Unsigned(70, 90))
	m.CallSign = b.Text(90, 132)
	if IsAuxiliaryCraft(h.MMSI) {
		m.MothershipMMSI = uint32(b.Unsigned(132, 162))
	} else {
		m.Dimensions = decodeDimensions(b, 132)
	}
	return m
}

func (m *StaticDataReport) IsPartA() bool { return m.PartNumber == StaticPartA }

func (m *StaticDataReport) IsPartB() bool { return m.PartNumber == StaticPartB }

// IsAuxiliaryCraft reports whether mmsi has the 98XXXYYYY form used by craft
// associated with a parent ship.
func IsAuxiliaryCraft(mmsi uint32) bool {
	return mmsi/10000000 == 98
}
