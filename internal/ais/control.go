package ais

import "aisdecode/internal/bitseq"

// AcknowledgedStation is one destination acknowledged by a type 7 or 13
// message.
type AcknowledgedStation struct {
	MMSI           uint32 `json:"mmsi"`
	SequenceNumber uint8  `json:"seqno"`
}

// Acknowledge is a binary acknowledge (type 7) or safety related acknowledge
// (type 13), holding one to four acknowledged stations.
type Acknowledge struct {
	Header

	Stations []AcknowledgedStation `json:"stations"`
}

func decodeAcknowledge(h Header, b bitseq.Sequence) *Acknowledge {
	m := &Acknowledge{Header: h}
	for pos := 40; pos+32 <= b.Len() && len(m.Stations) < 4; pos += 32 {
		m.Stations = append(m.Stations, AcknowledgedStation{
			MMSI:           uint32(b.Unsigned(pos, pos+30)),
			SequenceNumber: uint8(b.Unsigned(pos+30, pos+32)),
		})
	}
	return m
}

// UTCDateInquiry is a UTC and date inquiry (type 10).
type UTCDateInquiry struct {
	Header

	DestinationMMSI uint32 `json:"dest_mmsi"`
}

func decodeUTCDateInquiry(h Header, b bitseq.Sequence) *UTCDateInquiry {
	return &UTCDateInquiry{
		Header:          h,
		DestinationMMSI: uint32(b.Unsigned(40, 70)),
	}
}

// AddressedSafetyMessage is an addressed safety related message (type 12).
type AddressedSafetyMessage struct {
	Header

	SequenceNumber  uint8  `json:"seqno"`
	DestinationMMSI uint32 `json:"dest_mmsi"`
	Retransmit      bool   `json:"retransmit"`
	Text            string `json:"text"`
}

func decodeAddressedSafetyMessage(h Header, b bitseq.Sequence) *AddressedSafetyMessage {
	return &AddressedSafetyMessage{
		Header:          h,
		SequenceNumber:  uint8(b.Unsigned(38, 40)),
		DestinationMMSI: uint32(b.Unsigned(40, 70)),
		Retransmit:      b.Bool(70),
		Text:            b.Text(72, b.Len()),
	}
}

// SafetyBroadcastMessage is a safety related broadcast message (type 14).
type SafetyBroadcastMessage struct {
	Header

	Text string `json:"text"`
}

func decodeSafetyBroadcastMessage(h Header, b bitseq.Sequence) *SafetyBroadcastMessage {
	return &SafetyBroadcastMessage{
		Header: h,
		Text:   b.Text(40, b.Len()),
	}
}

// InterrogationRequest asks a station for one message type, answered at
// Offset slots from the interrogation.
type InterrogationRequest struct {
	MessageType MessageType `json:"type"`
	Offset      uint16      `json:"offset"`
}

// Interrogation is an interrogation (type 15). The first station always has
// one request; the 110/112 bit forms add a second request to it and the 160
// bit form adds a second station.
type Interrogation struct {
	Header

	Station1  uint32                 `json:"mmsi1"`
	Requests1 []InterrogationRequest `json:"requests1"`
	Station2  uint32                 `json:"mmsi2,omitempty"`
	Requests2 []InterrogationRequest `json:"requests2,omitempty"`
}

func decodeInterrogation(h Header, b bitseq.Sequence) *Interrogation {
	m := &Interrogation{
		Header:   h,
		Station1: uint32(b.Unsigned(40, 70)),
	}
	m.Requests1 = append(m.Requests1, InterrogationRequest{
		MessageType: MessageType(b.Unsigned(70, 76)),
		Offset:      uint16(b.Unsigned(76, 88)),
	})
	if b.Len() >= 108 {
		m.Requests1 = append(m.Requests1, InterrogationRequest{
			MessageType: MessageType(b.Unsigned(90, 96)),
			Offset:      uint16(b.Unsigned(96, 108)),
		})
	}
	if b.Len() >= 158 {
		m.Station2 = uint32(b.Unsigned(110, 140))
		m.Requests2 = []InterrogationRequest{{
			MessageType: MessageType(b.Unsigned(140, 146)),
			Offset:      uint16(b.Unsigned(146, 158)),
		}}
	}
	return m
}

// SlotAssignment assigns a station a reporting schedule.
type SlotAssignment struct {
	MMSI      uint32 `json:"mmsi"`
	Offset    uint16 `json:"offset"`
	Increment uint16 `json:"increment"`
}

// AssignedModeCommand is an assigned mode command (type 16) for one or two
// stations.
type AssignedModeCommand struct {
	Header

	Assignments []SlotAssignment `json:"assignments"`
}

func decodeAssignedModeCommand(h Header, b bitseq.Sequence) *AssignedModeCommand {
	m := &AssignedModeCommand{Header: h}
	for pos := 40; pos+52 <= b.Len() && len(m.Assignments) < 2; pos += 52 {
		m.Assignments = append(m.Assignments, SlotAssignment{
			MMSI:      uint32(b.Unsigned(pos, pos+30)),
			Offset:    uint16(b.Unsigned(pos+30, pos+42)),
			Increment: uint16(b.Unsigned(pos+42, pos+52)),
		})
	}
	return m
}

// SlotReservation is one data link reservation block.
type SlotReservation struct {
	Offset    uint16 `json:"offset"`
	Number    uint8  `json:"number"`
	Timeout   uint8  `json:"timeout"`
	Increment uint16 `json:"increment"`
}

// DataLinkManagement is a data link management message (type 20) with one to
// four reservations.
type DataLinkManagement struct {
	Header

	Reservations []SlotReservation `json:"reservations"`
}

func decodeDataLinkManagement(h Header, b bitseq.Sequence) *DataLinkManagement {
	m := &DataLinkManagement{Header: h}
	for pos := 40; pos+30 <= b.Len() && len(m.Reservations) < 4; pos += 30 {
		m.Reservations = append(m.Reservations, SlotReservation{
			Offset:    uint16(b.Unsigned(pos, pos+12)),
			Number:    uint8(b.Unsigned(pos+12, pos+16)),
			Timeout:   uint8(b.Unsigned(pos+16, pos+19)),
			Increment: uint16(b.Unsigned(pos+19, pos+30)),
		})
	}
	return m
}

// Area is a rectangle given by its north-east and south-west corners in
// degrees.
type Area struct {
	NELongitude float64 `json:"ne_lon"`
	NELatitude  float64 `json:"ne_lat"`
	SWLongitude float64 `json:"sw_lon"`
	SWLatitude  float64 `json:"sw_lat"`
}

func decodeArea(b bitseq.Sequence, start int) Area {
	return Area{
		NELongitude: b.SignedScaled(start, start+18, coarseDivisor),
		NELatitude:  b.SignedScaled(start+18, start+35, coarseDivisor),
		SWLongitude: b.SignedScaled(start+35, start+53, coarseDivisor),
		SWLatitude:  b.SignedScaled(start+53, start+70, coarseDivisor),
	}
}

// ChannelManagement is a channel management message (type 22). It applies
// either to two addressed stations or to a geographic area.
type ChannelManagement struct {
	Header

	ChannelA       uint16 `json:"channel_a"`
	ChannelB       uint16 `json:"channel_b"`
	TxRxMode       uint8  `json:"txrx"`
	LowPower       bool   `json:"power"`
	Area           *Area  `json:"area,omitempty"`
	Destination1   uint32 `json:"dest1,omitempty"`
	Destination2   uint32 `json:"dest2,omitempty"`
	Addressed      bool   `json:"addressed"`
	BandwidthA     bool   `json:"band_a"`
	BandwidthB     bool   `json:"band_b"`
	TransitionZone uint8  `json:"zonesize"`
}

func decodeChannelManagement(h Header, b bitseq.Sequence) *ChannelManagement {
	m := &ChannelManagement{
		Header:         h,
		ChannelA:       uint16(b.Unsigned(40, 52)),
		ChannelB:       uint16(b.Unsigned(52, 64)),
		TxRxMode:       uint8(b.Unsigned(64, 68)),
		LowPower:       b.Bool(68),
		Addressed:      b.Bool(139),
		BandwidthA:     b.Bool(140),
		BandwidthB:     b.Bool(141),
		TransitionZone: uint8(b.Unsigned(142, 145)),
	}
	if m.Addressed {
		m.Destination1 = uint32(b.Unsigned(69, 99))
		m.Destination2 = uint32(b.Unsigned(104, 134))
	} else {
		area := decodeArea(b, 69)
		m.Area = &area
	}
	return m
}

// GroupAssignmentCommand is a group assignment command (type 23) addressed to
// every station of a type inside an area.
type GroupAssignmentCommand struct {
	Header

	Area         Area     `json:"area"`
	StationType  uint8    `json:"station_type"`
	ShipType     ShipType `json:"ship_type"`
	TxRxMode     uint8    `json:"txrx"`
	Interval     uint8    `json:"interval"`
	QuietMinutes uint8    `json:"quiet"`
}

func decodeGroupAssignmentCommand(h Header, b bitseq.Sequence) *GroupAssignmentCommand {
	return &GroupAssignmentCommand{
		Header:       h,
		Area:         decodeArea(b, 40),
		StationType:  uint8(b.Unsigned(110, 114)),
		ShipType:     ShipType(b.Unsigned(114, 122)),
		TxRxMode:     uint8(b.Unsigned(144, 146)),
		Interval:     uint8(b.Unsigned(146, 150)),
		QuietMinutes: uint8(b.Unsigned(150, 154)),
	}
}
