package ais

import "fmt"

// MessageType is the 6-bit type code at the start of every AIS message.
type MessageType uint8

const (
	TypePositionReportScheduled      MessageType = 1
	TypePositionReportAssigned       MessageType = 2
	TypePositionReportInterrogated   MessageType = 3
	TypeBaseStationReport            MessageType = 4
	TypeShipAndVoyageData            MessageType = 5
	TypeAddressedBinaryMessage       MessageType = 6
	TypeBinaryAcknowledge            MessageType = 7
	TypeBinaryBroadcastMessage       MessageType = 8
	TypeSARAircraftPositionReport    MessageType = 9
	TypeUTCDateInquiry               MessageType = 10
	TypeUTCDateResponse              MessageType = 11
	TypeAddressedSafetyMessage       MessageType = 12
	TypeSafetyAcknowledge            MessageType = 13
	TypeSafetyBroadcastMessage       MessageType = 14
	TypeInterrogation                MessageType = 15
	TypeAssignedModeCommand          MessageType = 16
	TypeGNSSBroadcastMessage         MessageType = 17
	TypeClassBPositionReport         MessageType = 18
	TypeExtendedClassBPositionReport MessageType = 19
	TypeDataLinkManagement           MessageType = 20
	TypeAidToNavigationReport        MessageType = 21
	TypeChannelManagement            MessageType = 22
	TypeGroupAssignmentCommand       MessageType = 23
	TypeStaticDataReport             MessageType = 24
	TypeSingleSlotBinaryMessage      MessageType = 25
	TypeMultipleSlotBinaryMessage    MessageType = 26
	TypeLongRangeBroadcast           MessageType = 27
)

var messageTypeNames = [...]string{
	TypePositionReportScheduled:      "PositionReportClassAScheduled",
	TypePositionReportAssigned:       "PositionReportClassAAssignedSchedule",
	TypePositionReportInterrogated:   "PositionReportClassAResponseToInterrogation",
	TypeBaseStationReport:            "BaseStationReport",
	TypeShipAndVoyageData:            "ShipAndVoyageRelatedData",
	TypeAddressedBinaryMessage:       "AddressedBinaryMessage",
	TypeBinaryAcknowledge:            "BinaryAcknowledge",
	TypeBinaryBroadcastMessage:       "BinaryBroadcastMessage",
	TypeSARAircraftPositionReport:    "StandardSARAircraftPositionReport",
	TypeUTCDateInquiry:               "UTCAndDateInquiry",
	TypeUTCDateResponse:              "UTCAndDateResponse",
	TypeAddressedSafetyMessage:       "AddressedSafetyRelatedMessage",
	TypeSafetyAcknowledge:            "SafetyRelatedAcknowledge",
	TypeSafetyBroadcastMessage:       "SafetyRelatedBroadcastMessage",
	TypeInterrogation:                "Interrogation",
	TypeAssignedModeCommand:          "AssignedModeCommand",
	TypeGNSSBroadcastMessage:         "GNSSBinaryBroadcastMessage",
	TypeClassBPositionReport:         "StandardClassBCSPositionReport",
	TypeExtendedClassBPositionReport: "ExtendedClassBEquipmentPositionReport",
	TypeDataLinkManagement:           "DataLinkManagement",
	TypeAidToNavigationReport:        "AidToNavigationReport",
	TypeChannelManagement:            "ChannelManagement",
	TypeGroupAssignmentCommand:       "GroupAssignmentCommand",
	TypeStaticDataReport:             "StaticDataReport",
	TypeSingleSlotBinaryMessage:      "BinaryMessageSingleSlot",
	TypeMultipleSlotBinaryMessage:    "BinaryMessageMultipleSlot",
	TypeLongRangeBroadcast:           "LongRangeBroadcastMessage",
}

// Valid reports whether t is one of the 27 defined type codes.
func (t MessageType) Valid() bool {
	return t >= TypePositionReportScheduled && t <= TypeLongRangeBroadcast
}

func (t MessageType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
	return messageTypeNames[t]
}
