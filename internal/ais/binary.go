package ais

import "aisdecode/internal/bitseq"

// ApplicationID identifies the layout of a binary payload: designated area
// code and function identifier.
type ApplicationID struct {
	DAC uint16 `json:"dac"`
	FID uint8  `json:"fid"`
}

func decodeApplicationID(b bitseq.Sequence, start int) ApplicationID {
	return ApplicationID{
		DAC: uint16(b.Unsigned(start, start+10)),
		FID: uint8(b.Unsigned(start+10, start+16)),
	}
}

// AddressedBinaryMessage is an addressed binary message (type 6).
type AddressedBinaryMessage struct {
	Header
	ApplicationID

	SequenceNumber  uint8           `json:"seqno"`
	DestinationMMSI uint32          `json:"dest_mmsi"`
	Retransmit      bool            `json:"retransmit"`
	Data            bitseq.Sequence `json:"data"`
}

func decodeAddressedBinaryMessage(h Header, b bitseq.Sequence) *AddressedBinaryMessage {
	return &AddressedBinaryMessage{
		Header:          h,
		SequenceNumber:  uint8(b.Unsigned(38, 40)),
		DestinationMMSI: uint32(b.Unsigned(40, 70)),
		Retransmit:      b.Bool(70),
		ApplicationID:   decodeApplicationID(b, 72),
		Data:            b.Slice(88, b.Len()),
	}
}

// BinaryBroadcastMessage is a binary broadcast message (type 8).
type BinaryBroadcastMessage struct {
	Header
	ApplicationID

	Data bitseq.Sequence `json:"data"`
}

func decodeBinaryBroadcastMessage(h Header, b bitseq.Sequence) *BinaryBroadcastMessage {
	return &BinaryBroadcastMessage{
		Header:        h,
		ApplicationID: decodeApplicationID(b, 40),
		Data:          b.Slice(56, b.Len()),
	}
}

// GNSSBroadcastMessage is a GNSS broadcast binary message (type 17) carrying
// DGNSS corrections for the reference station position.
type GNSSBroadcastMessage struct {
	Header

	Longitude float64         `json:"longitude"`
	Latitude  float64         `json:"latitude"`
	Data      bitseq.Sequence `json:"data"`
}

func decodeGNSSBroadcastMessage(h Header, b bitseq.Sequence) *GNSSBroadcastMessage {
	return &GNSSBroadcastMessage{
		Header:    h,
		Longitude: b.SignedScaled(40, 58, coarseDivisor),
		Latitude:  b.SignedScaled(58, 75, coarseDivisor),
		Data:      b.Slice(80, b.Len()),
	}
}

func (m *GNSSBroadcastMessage) Position() (float64, float64, bool) {
	return m.Latitude, m.Longitude, positionOK(m.Latitude, m.Longitude)
}

// SlotBinary is the shared body of the single and multiple slot binary
// messages. DestinationMMSI is set only when Addressed; ApplicationID only
// when Structured.
type SlotBinary struct {
	Addressed       bool            `json:"addressed"`
	Structured      bool            `json:"structured"`
	DestinationMMSI uint32          `json:"dest_mmsi,omitempty"`
	ApplicationID   *ApplicationID  `json:"app_id,omitempty"`
	Data            bitseq.Sequence `json:"data"`
}

func decodeSlotBinary(b bitseq.Sequence, end int) SlotBinary {
	s := SlotBinary{
		Addressed:  b.Bool(38),
		Structured: b.Bool(39),
	}
	pos := 40
	if s.Addressed {
		s.DestinationMMSI = uint32(b.Unsigned(40, 70))
		pos = 70
	}
	if s.Structured {
		id := decodeApplicationID(b, pos)
		s.ApplicationID = &id
		pos += 16
	}
	s.Data = b.Slice(pos, end)
	return s
}

// SingleSlotBinaryMessage is a single slot binary message (type 25).
type SingleSlotBinaryMessage struct {
	Header
	SlotBinary
}

func decodeSingleSlotBinaryMessage(h Header, b bitseq.Sequence) *SingleSlotBinaryMessage {
	return &SingleSlotBinaryMessage{
		Header:     h,
		SlotBinary: decodeSlotBinary(b, b.Len()),
	}
}

// MultipleSlotBinaryMessage is a multiple slot binary message with
// communications state (type 26). The last 20 bits are radio status.
type MultipleSlotBinaryMessage struct {
	Header
	SlotBinary

	RadioStatus uint32 `json:"radio_status"`
}

const radioStatusBits = 20

func decodeMultipleSlotBinaryMessage(h Header, b bitseq.Sequence) *MultipleSlotBinaryMessage {
	end := b.Len() - radioStatusBits
	m := &MultipleSlotBinaryMessage{
		Header:     h,
		SlotBinary: decodeSlotBinary(b, end),
	}
	if end >= 40 {
		m.RadioStatus = uint32(b.Unsigned(end, b.Len()))
	}
	return m
}
