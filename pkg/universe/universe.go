package universe

import (
	"maps"
	"slices"

	"github.com/rotisserie/eris"
)

// Universe is the ID-keyed arena of every object in a game. Objects reference each other only
// by ID, so every lookup can fail and returns an error wrapping ErrObjectNotFound.
type Universe struct {
	Systems   map[ObjectID]*System   `json:"systems"`
	Planets   map[ObjectID]*Planet   `json:"planets"`
	Fleets    map[ObjectID]*Fleet    `json:"fleets"`
	Ships     map[ObjectID]*Ship     `json:"ships"`
	Buildings map[ObjectID]*Building `json:"buildings"`
	Designs   map[int]*ShipDesign    `json:"designs"`

	// Visibility per empire per object. Missing entries are VisibilityNone.
	Visibility map[EmpireID]map[ObjectID]Visibility `json:"visibility"`

	NextObjectID ObjectID `json:"next_object_id"`
	NextDesignID int      `json:"next_design_id"`

	// Per-empire counters for IDs minted by orders. See GenerateEmpireObjectID.
	EmpireNextObjectID map[EmpireID]ObjectID `json:"empire_next_object_id"`
	EmpireNextDesignID map[EmpireID]int      `json:"empire_next_design_id"`
}

// IDs minted while executing orders come from a block reserved for the issuing empire, so two
// clients creating objects in the same turn never pick the same ID and the server can replay
// both sets unchanged.
const (
	empireIDBase   = 1_000_000
	empireIDStride = 1_000_000
)

// MaxEmpireID is the largest empire ID whose block still fits in an ObjectID.
const MaxEmpireID EmpireID = (1<<31-1-empireIDBase)/empireIDStride - 1

// ValidEmpireID reports whether the empire owns an ID block.
func ValidEmpireID(empire EmpireID) bool {
	return empire >= 0 && empire <= MaxEmpireID
}

func empireBlock(empire EmpireID) int {
	return empireIDBase + int(empire)*empireIDStride
}

// blockOwner returns the empire whose block contains id, or false for IDs below the blocks.
func blockOwner(id int) (EmpireID, bool) {
	if id < empireIDBase {
		return NoEmpire, false
	}
	return EmpireID((id - empireIDBase) / empireIDStride), true
}

// InEmpireBlock reports whether id lies in the block reserved for the empire's own IDs.
func InEmpireBlock(empire EmpireID, id int) bool {
	owner, ok := blockOwner(id)
	return ok && owner == empire
}

func New() *Universe {
	return &Universe{
		Systems:      make(map[ObjectID]*System),
		Planets:      make(map[ObjectID]*Planet),
		Fleets:       make(map[ObjectID]*Fleet),
		Ships:        make(map[ObjectID]*Ship),
		Buildings:    make(map[ObjectID]*Building),
		Designs:      make(map[int]*ShipDesign),
		Visibility:   make(map[EmpireID]map[ObjectID]Visibility),
		NextObjectID: 1,
		NextDesignID: 1,

		EmpireNextObjectID: make(map[EmpireID]ObjectID),
		EmpireNextDesignID: make(map[EmpireID]int),
	}
}

// -------------------------------------------------------------------------------------------------
// Lookups
// -------------------------------------------------------------------------------------------------

func lookup[T any](m map[ObjectID]*T, id ObjectID, kind ObjectKind) (*T, error) {
	obj, ok := m[id]
	if !ok {
		return nil, eris.Wrapf(ErrObjectNotFound, "%s %d", kind, id)
	}
	return obj, nil
}

func (u *Universe) System(id ObjectID) (*System, error) {
	return lookup(u.Systems, id, KindSystem)
}

func (u *Universe) Planet(id ObjectID) (*Planet, error) {
	return lookup(u.Planets, id, KindPlanet)
}

func (u *Universe) Fleet(id ObjectID) (*Fleet, error) {
	return lookup(u.Fleets, id, KindFleet)
}

func (u *Universe) Ship(id ObjectID) (*Ship, error) {
	return lookup(u.Ships, id, KindShip)
}

func (u *Universe) Building(id ObjectID) (*Building, error) {
	return lookup(u.Buildings, id, KindBuilding)
}

// Object finds an object of any kind.
func (u *Universe) Object(id ObjectID) (Object, error) {
	if s, ok := u.Systems[id]; ok {
		return s, nil
	}
	if p, ok := u.Planets[id]; ok {
		return p, nil
	}
	if f, ok := u.Fleets[id]; ok {
		return f, nil
	}
	if s, ok := u.Ships[id]; ok {
		return s, nil
	}
	if b, ok := u.Buildings[id]; ok {
		return b, nil
	}
	return nil, eris.Wrapf(ErrObjectNotFound, "object %d", id)
}

func (u *Universe) Exists(id ObjectID) bool {
	_, err := u.Object(id)
	return err == nil
}

func (u *Universe) Design(id int) (*ShipDesign, error) {
	d, ok := u.Designs[id]
	if !ok {
		return nil, eris.Wrapf(ErrDesignNotFound, "design %d", id)
	}
	return d, nil
}

// -------------------------------------------------------------------------------------------------
// Insertion and removal
// -------------------------------------------------------------------------------------------------

// GenerateObjectID returns an ID that has never been handed out by this universe.
func (u *Universe) GenerateObjectID() ObjectID {
	for u.Exists(u.NextObjectID) {
		u.NextObjectID++
	}
	id := u.NextObjectID
	u.NextObjectID++
	return id
}

func (u *Universe) reserve(id ObjectID) error {
	if id == InvalidObjectID {
		return eris.New("cannot insert object with invalid id")
	}
	if u.Exists(id) {
		return eris.Wrapf(ErrDuplicateID, "object %d", id)
	}
	u.noteObjectID(id)
	return nil
}

func (u *Universe) noteObjectID(id ObjectID) {
	empire, ok := blockOwner(int(id))
	if !ok {
		if id >= u.NextObjectID {
			u.NextObjectID = id + 1
		}
		return
	}
	if next, ok := u.EmpireNextObjectID[empire]; !ok || id >= next {
		u.EmpireNextObjectID[empire] = id + 1
	}
}

// GenerateEmpireObjectID returns an unused ID from the empire's block.
func (u *Universe) GenerateEmpireObjectID(empire EmpireID) ObjectID {
	next, ok := u.EmpireNextObjectID[empire]
	if !ok {
		next = ObjectID(empireBlock(empire))
	}
	for u.Exists(next) {
		next++
	}
	u.EmpireNextObjectID[empire] = next + 1
	return next
}

func (u *Universe) noteDesignID(id int) {
	empire, ok := blockOwner(id)
	if !ok {
		if id >= u.NextDesignID {
			u.NextDesignID = id + 1
		}
		return
	}
	if next, ok := u.EmpireNextDesignID[empire]; !ok || id >= next {
		u.EmpireNextDesignID[empire] = id + 1
	}
}

// GenerateEmpireDesignID returns an unused design ID from the empire's block.
func (u *Universe) GenerateEmpireDesignID(empire EmpireID) int {
	next, ok := u.EmpireNextDesignID[empire]
	if !ok {
		next = empireBlock(empire)
	}
	for {
		if _, taken := u.Designs[next]; !taken {
			break
		}
		next++
	}
	u.EmpireNextDesignID[empire] = next + 1
	return next
}

// ReleaseEmpireObjectID hands back the most recently generated ID of the empire's block after the
// object created under it was removed again. Older IDs are never handed back.
func (u *Universe) ReleaseEmpireObjectID(empire EmpireID, id ObjectID) {
	if u.EmpireNextObjectID[empire] != id+1 {
		return
	}
	if int(id) == empireBlock(empire) {
		delete(u.EmpireNextObjectID, empire)
		return
	}
	u.EmpireNextObjectID[empire] = id
}

// ReleaseEmpireDesignID is ReleaseEmpireObjectID for design IDs.
func (u *Universe) ReleaseEmpireDesignID(empire EmpireID, id int) {
	if u.EmpireNextDesignID[empire] != id+1 {
		return
	}
	if id == empireBlock(empire) {
		delete(u.EmpireNextDesignID, empire)
		return
	}
	u.EmpireNextDesignID[empire] = id
}

func (u *Universe) InsertSystem(s *System) error {
	if err := u.reserve(s.ID); err != nil {
		return err
	}
	s.SystemID = s.ID
	u.Systems[s.ID] = s
	return nil
}

func (u *Universe) InsertPlanet(p *Planet) error {
	if err := u.reserve(p.ID); err != nil {
		return err
	}
	u.Planets[p.ID] = p
	return nil
}

func (u *Universe) InsertFleet(f *Fleet) error {
	if err := u.reserve(f.ID); err != nil {
		return err
	}
	u.Fleets[f.ID] = f
	return nil
}

func (u *Universe) InsertShip(s *Ship) error {
	if err := u.reserve(s.ID); err != nil {
		return err
	}
	u.Ships[s.ID] = s
	return nil
}

func (u *Universe) InsertBuilding(b *Building) error {
	if err := u.reserve(b.ID); err != nil {
		return err
	}
	u.Buildings[b.ID] = b
	return nil
}

// CreateFleet creates an empty fleet at the location of the given header.
func (u *Universe) CreateFleet(id ObjectID, name string, owner EmpireID, at *ObjectHeader) (*Fleet, error) {
	f := &Fleet{
		ObjectHeader: ObjectHeader{
			ID:       id,
			Name:     name,
			Owner:    owner,
			SystemID: at.SystemID,
			X:        at.X,
			Y:        at.Y,
		},
		Ships:              nil,
		Route:              nil,
		PrevSystemID:       at.SystemID,
		NextSystemID:       at.SystemID,
		FinalDestinationID: at.SystemID,
		Aggression:         FleetObstructive,
	}
	if err := u.InsertFleet(f); err != nil {
		return nil, err
	}
	return f, nil
}

// DestroyFleet removes an empty fleet from the universe.
func (u *Universe) DestroyFleet(id ObjectID) error {
	f, err := u.Fleet(id)
	if err != nil {
		return err
	}
	if !f.Empty() {
		return eris.Errorf("fleet %d still has %d ships", id, len(f.Ships))
	}
	delete(u.Fleets, id)
	return nil
}

// InsertShipDesign stores the design under its ID, generating one when the design has none.
func (u *Universe) InsertShipDesign(d *ShipDesign) (int, error) {
	if d.ID == InvalidDesignID {
		for {
			if _, taken := u.Designs[u.NextDesignID]; !taken {
				break
			}
			u.NextDesignID++
		}
		d.ID = u.NextDesignID
	}
	if _, taken := u.Designs[d.ID]; taken {
		return InvalidDesignID, eris.Wrapf(ErrDuplicateID, "design %d", d.ID)
	}
	u.noteDesignID(d.ID)
	u.Designs[d.ID] = d
	return d.ID, nil
}

func (u *Universe) RemoveShipDesign(id int) {
	delete(u.Designs, id)
}

// DesignInUse reports whether any ship in the universe was built from the design.
func (u *Universe) DesignInUse(id int) bool {
	for _, s := range u.Ships {
		if s.DesignID == id {
			return true
		}
	}
	return false
}

// -------------------------------------------------------------------------------------------------
// Fleet membership
// -------------------------------------------------------------------------------------------------

// AddShipToFleet appends the ship to the fleet. The ship must not belong to another fleet.
func (u *Universe) AddShipToFleet(f *Fleet, s *Ship) {
	u.InsertShipIntoFleet(f, s, len(f.Ships))
}

// InsertShipIntoFleet places the ship at index in the fleet's member list, clamping index to the
// list bounds.
func (u *Universe) InsertShipIntoFleet(f *Fleet, s *Ship, index int) {
	index = max(0, min(index, len(f.Ships)))
	f.Ships = slices.Insert(f.Ships, index, s.ID)
	s.FleetID = f.ID
}

// RemoveShipFromFleet detaches the ship and returns the index it occupied, or -1 when it was not
// a member.
func (u *Universe) RemoveShipFromFleet(f *Fleet, s *Ship) int {
	index := slices.Index(f.Ships, s.ID)
	if index < 0 {
		return -1
	}
	f.Ships = slices.Delete(f.Ships, index, index+1)
	if s.FleetID == f.ID {
		s.FleetID = InvalidObjectID
	}
	return index
}

// -------------------------------------------------------------------------------------------------
// Visibility
// -------------------------------------------------------------------------------------------------

func (u *Universe) SetVisibility(empire EmpireID, id ObjectID, vis Visibility) {
	m, ok := u.Visibility[empire]
	if !ok {
		m = make(map[ObjectID]Visibility)
		u.Visibility[empire] = m
	}
	m[id] = vis
}

// GetVisibility returns the empire's visibility of the object. Owners always see their objects
// fully.
func (u *Universe) GetVisibility(empire EmpireID, id ObjectID) Visibility {
	if obj, err := u.Object(id); err == nil && obj.Header().OwnedBy(empire) {
		return VisibilityFull
	}
	return u.Visibility[empire][id]
}

// -------------------------------------------------------------------------------------------------
// Copying
// -------------------------------------------------------------------------------------------------

func cloneMap[K comparable, V any](m map[K]*V, cp func(*V) *V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		out[k] = cp(v)
	}
	return out
}

// Clone returns a deep copy that shares no mutable state with u.
func (u *Universe) Clone() *Universe {
	vis := make(map[EmpireID]map[ObjectID]Visibility, len(u.Visibility))
	for empire, m := range u.Visibility {
		vis[empire] = maps.Clone(m)
	}
	return &Universe{
		Systems:      cloneMap(u.Systems, (*System).clone),
		Planets:      cloneMap(u.Planets, (*Planet).clone),
		Fleets:       cloneMap(u.Fleets, (*Fleet).Clone),
		Ships:        cloneMap(u.Ships, (*Ship).clone),
		Buildings:    cloneMap(u.Buildings, (*Building).clone),
		Designs:      cloneMap(u.Designs, (*ShipDesign).Clone),
		Visibility:   vis,
		NextObjectID: u.NextObjectID,
		NextDesignID: u.NextDesignID,

		EmpireNextObjectID: maps.Clone(u.EmpireNextObjectID),
		EmpireNextDesignID: maps.Clone(u.EmpireNextDesignID),
	}
}
