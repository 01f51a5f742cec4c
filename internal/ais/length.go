package ais

import "aisdecode/internal/bitseq"

// lengthRule reports whether n bits is an acceptable length for a type.
type lengthRule func(n int) bool

func exactly(want int) lengthRule { return func(n int) bool { return n == want } }

func atMost(limit int) lengthRule { return func(n int) bool { return n <= limit } }

func between(lo, hi int) lengthRule { return func(n int) bool { return n >= lo && n <= hi } }

func oneOf(want ...int) lengthRule {
	return func(n int) bool {
		for _, w := range want {
			if n == w {
				return true
			}
		}
		return false
	}
}

func anyLength(int) bool { return true }

var lengthRules = [...]lengthRule{
	TypePositionReportScheduled:      exactly(168),
	TypePositionReportAssigned:       exactly(168),
	TypePositionReportInterrogated:   exactly(168),
	TypeBaseStationReport:            exactly(168),
	TypeShipAndVoyageData:            exactly(424),
	TypeAddressedBinaryMessage:       atMost(1008),
	TypeBinaryAcknowledge:            oneOf(72, 104, 136, 168),
	TypeBinaryBroadcastMessage:       atMost(1008),
	TypeSARAircraftPositionReport:    exactly(168),
	TypeUTCDateInquiry:               exactly(72),
	TypeUTCDateResponse:              exactly(168),
	TypeAddressedSafetyMessage:       atMost(1008),
	TypeSafetyAcknowledge:            oneOf(72, 104, 136, 168),
	TypeSafetyBroadcastMessage:       atMost(1008),
	TypeInterrogation:                oneOf(88, 110, 112, 160),
	TypeAssignedModeCommand:          oneOf(96, 144),
	TypeGNSSBroadcastMessage:         between(80, 816),
	TypeClassBPositionReport:         exactly(168),
	TypeExtendedClassBPositionReport: exactly(312),
	TypeDataLinkManagement:           between(72, 160),
	TypeAidToNavigationReport:        between(272, 360),
	TypeChannelManagement:            exactly(168),
	TypeGroupAssignmentCommand:       exactly(160),
	TypeStaticDataReport:             oneOf(160, 168),
	TypeSingleSlotBinaryMessage:      atMost(168),
	TypeMultipleSlotBinaryMessage:    anyLength,
	TypeLongRangeBroadcast:           oneOf(96, 168),
}

// Classify reads the type code from bits [0,6).
func Classify(bits bitseq.Sequence) (MessageType, error) {
	if bits.Len() < 6 {
		return 0, &UnsupportedMessageTypeError{Code: -1}
	}
	t := MessageType(bits.Unsigned(0, 6))
	if !t.Valid() {
		return 0, &UnsupportedMessageTypeError{Code: int(t)}
	}
	return t, nil
}

// ValidateLength checks n bits against the length table for t.
func ValidateLength(t MessageType, n int) error {
	if !t.Valid() {
		return &UnsupportedMessageTypeError{Code: int(t)}
	}
	if !lengthRules[t](n) {
		return &IllegalMessageLengthError{Type: t, Actual: n}
	}
	return nil
}
