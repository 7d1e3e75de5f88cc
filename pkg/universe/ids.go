package universe

import "strings"

// ObjectID addresses every object in the universe: systems, planets, fleets, ships, buildings.
type ObjectID int32

// InvalidObjectID doubles as the "not in any system" sentinel for objects in deep space.
const InvalidObjectID ObjectID = -1

// EmpireID identifies a player's faction.
type EmpireID int32

// NoEmpire marks an unowned object.
const NoEmpire EmpireID = -1

// InvalidDesignID marks a ship design that has not been assigned an ID yet.
const InvalidDesignID = -1

// Visibility is what an empire currently knows about an object.
type Visibility uint8

const (
	VisibilityNone Visibility = iota
	VisibilityBasic
	VisibilityPartial
	VisibilityFull
)

func (v Visibility) String() string {
	switch v {
	case VisibilityNone:
		return "none"
	case VisibilityBasic:
		return "basic"
	case VisibilityPartial:
		return "partial"
	case VisibilityFull:
		return "full"
	default:
		return "invalid"
	}
}

// FleetAggression controls how a fleet behaves when it meets other empires.
type FleetAggression uint8

const (
	FleetAggressionInvalid FleetAggression = iota
	FleetPassive
	FleetDefensive
	FleetObstructive
	FleetAggressive
)

const (
	passiveString     = "passive"
	defensiveString   = "defensive"
	obstructiveString = "obstructive"
	aggressiveString  = "aggressive"
	invalidString     = "invalid"
)

func (a FleetAggression) String() string {
	switch a {
	case FleetPassive:
		return passiveString
	case FleetDefensive:
		return defensiveString
	case FleetObstructive:
		return obstructiveString
	case FleetAggressive:
		return aggressiveString
	case FleetAggressionInvalid:
		return invalidString
	default:
		return invalidString
	}
}

func (a FleetAggression) IsValid() bool {
	return a >= FleetPassive && a <= FleetAggressive
}

// ParseFleetAggression converts a string to a FleetAggression.
func ParseFleetAggression(s string) FleetAggression {
	switch strings.ToLower(s) {
	case passiveString:
		return FleetPassive
	case defensiveString:
		return FleetDefensive
	case obstructiveString:
		return FleetObstructive
	case aggressiveString:
		return FleetAggressive
	default:
		return FleetAggressionInvalid
	}
}
