package ais

import "fmt"

// NavigationStatus is the class A navigational status (4 bits).
type NavigationStatus uint8

const (
	NavUnderwayUsingEngine NavigationStatus = iota
	NavAtAnchor
	NavNotUnderCommand
	NavRestrictedManeuverability
	NavConstrainedByDraught
	NavMoored
	NavAground
	NavEngagedInFishing
	NavUnderwaySailing
	NavReservedForHSC
	NavReservedForWIG
	NavPowerDrivenTowingAstern
	NavPowerDrivenPushingAhead
	NavReserved13
	NavAISSARTActive
	NavNotDefined
)

var navigationStatusNames = [...]string{
	"UnderwayUsingEngine",
	"AtAnchor",
	"NotUnderCommand",
	"RestrictedManeuverability",
	"ConstrainedByDraught",
	"Moored",
	"Aground",
	"EngagedInFishing",
	"UnderwaySailing",
	"ReservedForFutureAmendmentOfNavigationalStatusForHSC",
	"ReservedForFutureAmendmentOfNavigationalStatusForWIG",
	"PowerDrivenVesselTowingAstern",
	"PowerDrivenVesselPushingAheadOrTowingAlongside",
	"ReservedForFutureUse",
	"AISSARTActive",
	"NotDefined",
}

func (s NavigationStatus) Valid() bool { return int(s) < len(navigationStatusNames) }

func (s NavigationStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("NavigationStatus(%d)", uint8(s))
	}
	return navigationStatusNames[s]
}

// ManeuverIndicator is the class A special maneuver indicator (2 bits).
type ManeuverIndicator uint8

const (
	ManeuverNotAvailable ManeuverIndicator = iota
	ManeuverNoSpecial
	ManeuverSpecial
)

func (m ManeuverIndicator) Valid() bool { return m <= ManeuverSpecial }

func (m ManeuverIndicator) String() string {
	switch m {
	case ManeuverNotAvailable:
		return "NotAvailable"
	case ManeuverNoSpecial:
		return "NoSpecialManeuver"
	case ManeuverSpecial:
		return "SpecialManeuver"
	}
	return fmt.Sprintf("ManeuverIndicator(%d)", uint8(m))
}

// PositionFixingDevice is the electronic position fixing device (EPFD) type.
type PositionFixingDevice uint8

const (
	EPFDUndefined PositionFixingDevice = iota
	EPFDGPS
	EPFDGLONASS
	EPFDCombinedGPSGLONASS
	EPFDLoranC
	EPFDChayka
	EPFDIntegratedNavigationSystem
	EPFDSurveyed
	EPFDGalileo
)

var positionFixingDeviceNames = [...]string{
	"Undefined",
	"Gps",
	"Glonass",
	"CombinedGpsGlonass",
	"LoranC",
	"Chayka",
	"IntegratedNavigationSystem",
	"Surveyed",
	"Galileo",
}

func (d PositionFixingDevice) Valid() bool { return int(d) < len(positionFixingDeviceNames) }

func (d PositionFixingDevice) String() string {
	if !d.Valid() {
		return fmt.Sprintf("PositionFixingDevice(%d)", uint8(d))
	}
	return positionFixingDeviceNames[d]
}

// ShipType is the 8-bit ship and cargo type.
type ShipType uint8

var shipTypeNames = map[ShipType]string{
	0:  "NotAvailable",
	30: "Fishing",
	31: "Towing",
	32: "TowingLong",
	33: "DredgingOrUnderwaterOps",
	34: "DivingOps",
	35: "MilitaryOps",
	36: "Sailing",
	37: "PleasureCraft",
	50: "PilotVessel",
	51: "SearchAndRescueVessel",
	52: "Tug",
	53: "PortTender",
	54: "AntiPollutionEquipment",
	55: "LawEnforcement",
	56: "SpareLocalVessel",
	57: "SpareLocalVessel",
	58: "MedicalTransport",
	59: "NonCombatantShip",
}

// Decades sharing the all/hazardous A-D/reserved/no-info pattern.
var shipTypeCategories = map[ShipType]string{
	20: "WingInGround",
	40: "HighSpeedCraft",
	60: "Passenger",
	70: "Cargo",
	80: "Tanker",
	90: "OtherType",
}

// Valid reports whether t falls in the defined 0..99 range.
func (t ShipType) Valid() bool { return t <= 99 }

func (t ShipType) String() string {
	if name, ok := shipTypeNames[t]; ok {
		return name
	}
	if !t.Valid() {
		return fmt.Sprintf("ShipType(%d)", uint8(t))
	}
	decade, unit := t/10*10, t%10
	base, ok := shipTypeCategories[decade]
	if !ok {
		return fmt.Sprintf("Reserved%d", uint8(t))
	}
	switch {
	case unit == 0:
		return base
	case unit <= 4:
		return base + "Hazardous" + string(rune('A'+unit-1))
	case unit == 9 && decade != 20:
		return base + "NoAdditionalInfo"
	default:
		return fmt.Sprintf("%sReserved%d", base, unit)
	}
}

// AidType is the type of aid to navigation in message 21 (5 bits).
type AidType uint8

var aidTypeNames = [...]string{
	"NotSpecified",
	"ReferencePoint",
	"RACON",
	"FixedStructureOffShore",
	"Spare",
	"LightWithoutSectors",
	"LightWithSectors",
	"LeadingLightFront",
	"LeadingLightRear",
	"BeaconCardinalN",
	"BeaconCardinalE",
	"BeaconCardinalS",
	"BeaconCardinalW",
	"BeaconPortHand",
	"BeaconStarboardHand",
	"BeaconPreferredChannelPortHand",
	"BeaconPreferredChannelStarboardHand",
	"BeaconIsolatedDanger",
	"BeaconSafeWater",
	"BeaconSpecialMark",
	"CardinalMarkN",
	"CardinalMarkE",
	"CardinalMarkS",
	"CardinalMarkW",
	"PortHandMark",
	"StarboardHandMark",
	"PreferredChannelPortHand",
	"PreferredChannelStarboardHand",
	"IsolatedDanger",
	"SafeWater",
	"SpecialMark",
	"LightVessel",
}

func (a AidType) Valid() bool { return int(a) < len(aidTypeNames) }

func (a AidType) String() string {
	if !a.Valid() {
		return fmt.Sprintf("AidType(%d)", uint8(a))
	}
	return aidTypeNames[a]
}
