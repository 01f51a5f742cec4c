// Package ais decodes AIS binary messages (ITU-R M.1371 types 1 to 27) from
// the bit sequence carried in AIVDM/AIVDO payloads.
//
// Every field is decoded once, when the message is built, by a pure function
// of the bit sequence. Messages keep their bits and originating sentences so
// callers can re-derive or audit any field later.
package ais

import (
	"fmt"

	"aisdecode/internal/bitseq"
	"aisdecode/internal/nmea"
	"aisdecode/internal/reassembly"
	"aisdecode/internal/sixbit"
)

// Message is implemented by every decoded variant.
type Message interface {
	Type() MessageType
	RepeatIndicator() uint8
	SourceMMSI() uint32
	Bits() bitseq.Sequence
	Sentences() []nmea.Sentence
}

// Header carries the fields common to every message type.
type Header struct {
	MessageType MessageType `json:"type"`
	Repeat      uint8       `json:"repeat"`
	MMSI        uint32      `json:"mmsi"`

	bits      bitseq.Sequence
	sentences []nmea.Sentence
}

func decodeHeader(b bitseq.Sequence) Header {
	return Header{
		MessageType: MessageType(b.Unsigned(0, 6)),
		Repeat:      uint8(b.Unsigned(6, 8)),
		MMSI:        uint32(b.Unsigned(8, 38)),
		bits:        b,
	}
}

func (h *Header) Type() MessageType { return h.MessageType }

func (h *Header) RepeatIndicator() uint8 { return h.Repeat }

func (h *Header) SourceMMSI() uint32 { return h.MMSI }

// Bits is the sequence every field was decoded from.
func (h *Header) Bits() bitseq.Sequence { return h.bits }

// Sentences returns the NMEA sentences the message arrived in, in fragment
// order. It is empty for messages built directly from bits.
func (h *Header) Sentences() []nmea.Sentence {
	out := make([]nmea.Sentence, len(h.sentences))
	copy(out, h.sentences)
	return out
}

func (h *Header) header() *Header { return h }

type headerer interface {
	header() *Header
}

// DecodeOptions tunes Decode.
type DecodeOptions struct {
	// SkipLengthCheck accepts messages whose bit length the length table
	// rejects. Missing trailing fields then read as zero.
	SkipLengthCheck bool
}

// Decode builds the message variant for bits. The type code and, unless
// opts.SkipLengthCheck is set, the length are validated first; on error no
// message is returned.
func Decode(bits bitseq.Sequence, opts DecodeOptions) (Message, error) {
	t, err := Classify(bits)
	if err != nil {
		return nil, err
	}
	if !opts.SkipLengthCheck {
		if err := ValidateLength(t, bits.Len()); err != nil {
			return nil, err
		}
	}
	h := decodeHeader(bits)
	switch t {
	case TypePositionReportScheduled, TypePositionReportAssigned, TypePositionReportInterrogated:
		return decodePositionReport(h, bits), nil
	case TypeBaseStationReport, TypeUTCDateResponse:
		return decodeBaseStationReport(h, bits), nil
	case TypeShipAndVoyageData:
		return decodeShipAndVoyageData(h, bits), nil
	case TypeAddressedBinaryMessage:
		return decodeAddressedBinaryMessage(h, bits), nil
	case TypeBinaryAcknowledge, TypeSafetyAcknowledge:
		return decodeAcknowledge(h, bits), nil
	case TypeBinaryBroadcastMessage:
		return decodeBinaryBroadcastMessage(h, bits), nil
	case TypeSARAircraftPositionReport:
		return decodeSARAircraftPositionReport(h, bits), nil
	case TypeUTCDateInquiry:
		return decodeUTCDateInquiry(h, bits), nil
	case TypeAddressedSafetyMessage:
		return decodeAddressedSafetyMessage(h, bits), nil
	case TypeSafetyBroadcastMessage:
		return decodeSafetyBroadcastMessage(h, bits), nil
	case TypeInterrogation:
		return decodeInterrogation(h, bits), nil
	case TypeAssignedModeCommand:
		return decodeAssignedModeCommand(h, bits), nil
	case TypeGNSSBroadcastMessage:
		return decodeGNSSBroadcastMessage(h, bits), nil
	case TypeClassBPositionReport:
		return decodeClassBPositionReport(h, bits), nil
	case TypeExtendedClassBPositionReport:
		return decodeExtendedClassBPositionReport(h, bits), nil
	case TypeDataLinkManagement:
		return decodeDataLinkManagement(h, bits), nil
	case TypeAidToNavigationReport:
		return decodeAidToNavigationReport(h, bits), nil
	case TypeChannelManagement:
		return decodeChannelManagement(h, bits), nil
	case TypeGroupAssignmentCommand:
		return decodeGroupAssignmentCommand(h, bits), nil
	case TypeStaticDataReport:
		return decodeStaticDataReport(h, bits), nil
	case TypeSingleSlotBinaryMessage:
		return decodeSingleSlotBinaryMessage(h, bits), nil
	case TypeMultipleSlotBinaryMessage:
		return decodeMultipleSlotBinaryMessage(h, bits), nil
	case TypeLongRangeBroadcast:
		return decodeLongRangeBroadcast(h, bits), nil
	}
	return nil, &UnsupportedMessageTypeError{Code: int(t)}
}

// DecodeSentences decodes a complete, index-ordered fragment group. The
// resulting message keeps the sentences.
func DecodeSentences(sentences []nmea.Sentence, opts DecodeOptions) (Message, error) {
	if len(sentences) == 0 {
		return nil, fmt.Errorf("ais: no sentences")
	}
	payload, fill := reassembly.Payload(sentences)
	bits, err := sixbit.Decode(payload, fill)
	if err != nil {
		return nil, err
	}
	m, err := Decode(bits, opts)
	if err != nil {
		return nil, err
	}
	if h, ok := m.(headerer); ok {
		h.header().sentences = append([]nmea.Sentence(nil), sentences...)
	}
	return m, nil
}
