package universe

import (
	"maps"
	"slices"

	"github.com/rotisserie/eris"
)

type Empire struct {
	ID         EmpireID `json:"id"`
	Name       string   `json:"name"`
	PlayerName string   `json:"player_name"`
	CapitalID  ObjectID `json:"capital_id"`
	Eliminated bool     `json:"eliminated"`

	// ResearchedTechs maps tech name to the turn it was researched.
	ResearchedTechs        map[string]int `json:"researched_techs"`
	AvailableBuildingTypes []string       `json:"available_building_types"`

	// ShipDesigns lists the design IDs this empire knows, in the order they were added.
	ShipDesigns []int `json:"ship_designs"`

	ResearchQueue   ResearchQueue   `json:"research_queue"`
	ProductionQueue ProductionQueue `json:"production_queue"`
}

func NewEmpire(id EmpireID, name, player string) *Empire {
	return &Empire{
		ID:              id,
		Name:            name,
		PlayerName:      player,
		CapitalID:       InvalidObjectID,
		ResearchedTechs: make(map[string]int),
	}
}

func (e *Empire) TechResearched(tech string) bool {
	_, ok := e.ResearchedTechs[tech]
	return ok
}

func (e *Empire) BuildingTypeAvailable(name string) bool {
	return slices.Contains(e.AvailableBuildingTypes, name)
}

func (e *Empire) KnowsShipDesign(id int) bool {
	return slices.Contains(e.ShipDesigns, id)
}

// AddShipDesign records the design as known. Adding a known design is a no-op.
func (e *Empire) AddShipDesign(id int) {
	if !e.KnowsShipDesign(id) {
		e.ShipDesigns = append(e.ShipDesigns, id)
	}
}

// RemoveShipDesign forgets the design and returns the index it occupied, or -1.
func (e *Empire) RemoveShipDesign(id int) int {
	i := slices.Index(e.ShipDesigns, id)
	if i >= 0 {
		e.ShipDesigns = slices.Delete(e.ShipDesigns, i, i+1)
	}
	return i
}

// InsertShipDesignAt restores a forgotten design at its previous position.
func (e *Empire) InsertShipDesignAt(id, index int) {
	if e.KnowsShipDesign(id) {
		return
	}
	index = max(0, min(index, len(e.ShipDesigns)))
	e.ShipDesigns = slices.Insert(e.ShipDesigns, index, id)
}

func (e *Empire) Clone() *Empire {
	c := *e
	c.ResearchedTechs = maps.Clone(e.ResearchedTechs)
	c.AvailableBuildingTypes = slices.Clone(e.AvailableBuildingTypes)
	c.ShipDesigns = slices.Clone(e.ShipDesigns)
	c.ResearchQueue = e.ResearchQueue.clone()
	c.ProductionQueue = e.ProductionQueue.clone()
	return &c
}

// EmpireManager is the registry of empires in a game.
type EmpireManager struct {
	Empires map[EmpireID]*Empire `json:"empires"`
}

func NewEmpireManager() *EmpireManager {
	return &EmpireManager{Empires: make(map[EmpireID]*Empire)}
}

func (m *EmpireManager) Insert(e *Empire) error {
	if !ValidEmpireID(e.ID) {
		return eris.Wrapf(ErrInvalidEmpireID, "empire %d", e.ID)
	}
	if _, ok := m.Empires[e.ID]; ok {
		return eris.Wrapf(ErrDuplicateID, "empire %d", e.ID)
	}
	m.Empires[e.ID] = e
	return nil
}

// Get returns the empire, failing for unknown and eliminated empires.
func (m *EmpireManager) Get(id EmpireID) (*Empire, error) {
	e, ok := m.Empires[id]
	if !ok || e.Eliminated {
		return nil, eris.Wrapf(ErrEmpireNotFound, "empire %d", id)
	}
	return e, nil
}

// IDs returns every empire ID in ascending order.
func (m *EmpireManager) IDs() []EmpireID {
	return slices.Sorted(maps.Keys(m.Empires))
}

func (m *EmpireManager) Clone() *EmpireManager {
	c := NewEmpireManager()
	for id, e := range m.Empires {
		c.Empires[id] = e.Clone()
	}
	return c
}
