package order

import (
	"fmt"
	"slices"

	"github.com/freeorion/orders/pkg/universe"
)

type DesignAction uint8

const (
	DesignCreate DesignAction = iota + 1
	DesignForget
)

func (a DesignAction) String() string {
	switch a {
	case DesignCreate:
		return "create"
	case DesignForget:
		return "forget"
	default:
		return "invalid"
	}
}

// ShipDesign creates a new ship design known to the empire, or makes the empire forget one.
//
// Created designs take an ID from the empire's block on first execution, carried in DesignID.
type ShipDesign struct {
	base

	Action      DesignAction `json:"action"`
	DesignID    int          `json:"design_id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Hull        string       `json:"hull,omitempty"`
	Parts       []string     `json:"parts,omitempty"`

	forgottenAt int
}

func NewShipDesignCreate(empire universe.EmpireID, name, description, hull string, parts ...string) *ShipDesign {
	return &ShipDesign{
		base:        base{empire: empire},
		Action:      DesignCreate,
		DesignID:    universe.InvalidDesignID,
		Name:        name,
		Description: description,
		Hull:        hull,
		Parts:       parts,
	}
}

func NewShipDesignForget(empire universe.EmpireID, design int) *ShipDesign {
	return &ShipDesign{base: base{empire: empire}, Action: DesignForget, DesignID: design}
}

func (o *ShipDesign) Kind() Kind { return KindShipDesign }

func (o *ShipDesign) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		switch o.Action {
		case DesignCreate:
			return o.create(gs, empire)
		case DesignForget:
			if !empire.KnowsShipDesign(o.DesignID) {
				return nil, invalidRef("ship design %d is not known to empire %d", o.DesignID, empire.ID)
			}
			return func() { o.forgottenAt = empire.RemoveShipDesign(o.DesignID) }, nil
		default:
			return nil, precondition("unknown design action %d", o.Action)
		}
	})
}

func (o *ShipDesign) create(gs *universe.Context, empire *universe.Empire) (commitFunc, error) {
	u := gs.Universe
	if err := validName(o.Name); err != nil {
		return nil, err
	}
	hull, ok := gs.Content.Hull(o.Hull)
	if !ok {
		return nil, invalidRef("hull %q", o.Hull)
	}
	if len(o.Parts) > hull.Slots {
		return nil, precondition("%d parts do not fit %d slots of hull %q", len(o.Parts), hull.Slots, hull.Name)
	}
	producible := hull.Producible
	for _, name := range o.Parts {
		if name == "" {
			continue
		}
		part, ok := gs.Content.Part(name)
		if !ok {
			return nil, invalidRef("part %q", name)
		}
		producible = producible && part.Producible
	}
	if o.DesignID != universe.InvalidDesignID {
		if !universe.InEmpireBlock(empire.ID, o.DesignID) {
			return nil, precondition("design id %d is outside the block of empire %d", o.DesignID, empire.ID)
		}
		if _, err := u.Design(o.DesignID); err == nil {
			return nil, precondition("ship design %d already exists", o.DesignID)
		}
	}

	return func() {
		if o.DesignID == universe.InvalidDesignID {
			o.DesignID = u.GenerateEmpireDesignID(empire.ID)
		}
		_, _ = u.InsertShipDesign(&universe.ShipDesign{
			ID:             o.DesignID,
			Name:           o.Name,
			Description:    o.Description,
			Hull:           o.Hull,
			Parts:          slices.Clone(o.Parts),
			DesignedBy:     empire.ID,
			DesignedOnTurn: gs.CurrentTurn,
			Producible:     producible,
		})
		empire.AddShipDesign(o.DesignID)
	}, nil
}

// Undo deletes a created design while no ship uses it, or teaches a forgotten design again.
func (o *ShipDesign) Undo(gs *universe.Context) error {
	return o.undo(func() (commitFunc, error) {
		u := gs.Universe
		empire, err := gs.Empire(o.empire)
		if err != nil {
			return nil, refused("empire %d no longer exists", o.empire)
		}
		if _, err := u.Design(o.DesignID); err != nil {
			return nil, refused("ship design %d no longer exists", o.DesignID)
		}
		switch o.Action {
		case DesignCreate:
			if !empire.KnowsShipDesign(o.DesignID) {
				return nil, refused("ship design %d was forgotten", o.DesignID)
			}
			if u.DesignInUse(o.DesignID) {
				return nil, refused("ship design %d is in use", o.DesignID)
			}
			return func() {
				empire.RemoveShipDesign(o.DesignID)
				u.RemoveShipDesign(o.DesignID)
				u.ReleaseEmpireDesignID(empire.ID, o.DesignID)
			}, nil
		case DesignForget:
			if empire.KnowsShipDesign(o.DesignID) {
				return nil, refused("ship design %d is known again", o.DesignID)
			}
			return func() { empire.InsertShipDesignAt(o.DesignID, o.forgottenAt) }, nil
		default:
			return nil, precondition("unknown design action %d", o.Action)
		}
	})
}

func (o *ShipDesign) String() string {
	if o.Action == DesignForget {
		return fmt.Sprintf("ShipDesign empire=%d action=%s design=%d%s", o.empire, o.Action, o.DesignID, status(&o.base))
	}
	return fmt.Sprintf("ShipDesign empire=%d action=%s design=%d name=%q hull=%q parts=%v%s",
		o.empire, o.Action, o.DesignID, o.Name, o.Hull, o.Parts, status(&o.base))
}
