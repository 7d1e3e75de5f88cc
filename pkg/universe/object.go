package universe

import "slices"

// ObjectKind distinguishes the concrete object types stored in the Universe.
type ObjectKind uint8

const (
	KindSystem ObjectKind = iota + 1
	KindPlanet
	KindFleet
	KindShip
	KindBuilding
)

func (k ObjectKind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindPlanet:
		return "planet"
	case KindFleet:
		return "fleet"
	case KindShip:
		return "ship"
	case KindBuilding:
		return "building"
	default:
		return "unknown"
	}
}

// Object is implemented by every entity addressable by ObjectID.
type Object interface {
	Header() *ObjectHeader
	Kind() ObjectKind
}

// ObjectHeader holds the fields every object shares.
type ObjectHeader struct {
	ID       ObjectID `json:"id"`
	Name     string   `json:"name"`
	Owner    EmpireID `json:"owner"`
	SystemID ObjectID `json:"system_id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
}

func (h *ObjectHeader) Header() *ObjectHeader {
	return h
}

// OwnedBy reports whether the object is owned by the given empire. Unowned objects are owned by
// nobody, including NoEmpire.
func (h *ObjectHeader) OwnedBy(empire EmpireID) bool {
	return empire != NoEmpire && h.Owner == empire
}

func (h *ObjectHeader) Unowned() bool {
	return h.Owner == NoEmpire
}

// InDeepSpace reports whether the object is between systems.
func (h *ObjectHeader) InDeepSpace() bool {
	return h.SystemID == InvalidObjectID
}

// CoLocated reports whether two objects are in the same system, or at the same deep space
// position when neither is in a system.
func (h *ObjectHeader) CoLocated(other *ObjectHeader) bool {
	if h.SystemID != other.SystemID {
		return false
	}
	if h.SystemID != InvalidObjectID {
		return true
	}
	return h.X == other.X && h.Y == other.Y
}

type System struct {
	ObjectHeader
	Lanes []ObjectID `json:"lanes"`
}

func (s *System) Kind() ObjectKind { return KindSystem }

func (s *System) clone() *System {
	c := *s
	c.Lanes = slices.Clone(s.Lanes)
	return &c
}

type Planet struct {
	ObjectHeader
	Species              string     `json:"species"`
	Population           float64    `json:"population"`
	Shield               float64    `json:"shield"`
	Troops               float64    `json:"troops"`
	Focus                string     `json:"focus"`
	AvailableFoci        []string   `json:"available_foci"`
	LastTurnFocusChanged int        `json:"last_turn_focus_changed"`
	AboutToBeColonized   bool       `json:"about_to_be_colonized"`
	InvadingEmpire       EmpireID   `json:"invading_empire"`
	InvadingShips        []ObjectID `json:"invading_ships"`
}

func (p *Planet) Kind() ObjectKind { return KindPlanet }

func (p *Planet) Populated() bool {
	return p.Population > 0
}

func (p *Planet) HasFocus(focus string) bool {
	return slices.Contains(p.AvailableFoci, focus)
}

func (p *Planet) clone() *Planet {
	c := *p
	c.AvailableFoci = slices.Clone(p.AvailableFoci)
	c.InvadingShips = slices.Clone(p.InvadingShips)
	return &c
}

type Fleet struct {
	ObjectHeader
	Ships              []ObjectID      `json:"ships"`
	Route              []ObjectID      `json:"route"`
	PrevSystemID       ObjectID        `json:"prev_system_id"`
	NextSystemID       ObjectID        `json:"next_system_id"`
	FinalDestinationID ObjectID        `json:"final_destination_id"`
	Aggression         FleetAggression `json:"aggression"`
}

func (f *Fleet) Kind() ObjectKind { return KindFleet }

func (f *Fleet) HasShip(id ObjectID) bool {
	return slices.Contains(f.Ships, id)
}

func (f *Fleet) Empty() bool {
	return len(f.Ships) == 0
}

// Clone returns a deep copy of the fleet, used to restore fleets deleted as a side effect.
func (f *Fleet) Clone() *Fleet {
	c := *f
	c.Ships = slices.Clone(f.Ships)
	c.Route = slices.Clone(f.Route)
	return &c
}

type Ship struct {
	ObjectHeader
	FleetID               ObjectID `json:"fleet_id"`
	DesignID              int      `json:"design_id"`
	ColonyCapacity        float64  `json:"colony_capacity"`
	CanColonize           bool     `json:"can_colonize"`
	TroopCapacity         float64  `json:"troop_capacity"`
	OrderedScrapped       bool     `json:"ordered_scrapped"`
	OrderedColonizePlanet ObjectID `json:"ordered_colonize_planet"`
	OrderedInvadePlanet   ObjectID `json:"ordered_invade_planet"`
}

func (s *Ship) Kind() ObjectKind { return KindShip }

// Committed reports whether the ship has already been given an order that removes it from
// normal fleet operations this turn.
func (s *Ship) Committed() bool {
	return s.OrderedScrapped ||
		s.OrderedColonizePlanet != InvalidObjectID ||
		s.OrderedInvadePlanet != InvalidObjectID
}

func (s *Ship) clone() *Ship {
	c := *s
	return &c
}

type Building struct {
	ObjectHeader
	BuildingType    string   `json:"building_type"`
	PlanetID        ObjectID `json:"planet_id"`
	OrderedScrapped bool     `json:"ordered_scrapped"`
}

func (b *Building) Kind() ObjectKind { return KindBuilding }

func (b *Building) clone() *Building {
	c := *b
	return &c
}
