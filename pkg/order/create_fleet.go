package order

import (
	"fmt"
	"slices"

	"github.com/freeorion/orders/pkg/assert"
	"github.com/freeorion/orders/pkg/universe"
)

// CreateFleet splits ships out of their fleets into a new fleet at their shared location. Fleets
// left empty are deleted.
//
// FleetID is chosen from the empire's ID block on first execution and travels with the order so
// the server creates the fleet under the same ID.
type CreateFleet struct {
	base

	FleetID    universe.ObjectID        `json:"fleet_id"`
	Name       string                   `json:"name"`
	Ships      []universe.ObjectID      `json:"ships"`
	Aggression universe.FleetAggression `json:"aggression"`

	detached []detachment
}

func NewCreateFleet(
	empire universe.EmpireID, name string, aggression universe.FleetAggression, ships ...universe.ObjectID,
) *CreateFleet {
	return &CreateFleet{
		base:       base{empire: empire},
		FleetID:    universe.InvalidObjectID,
		Name:       name,
		Ships:      ships,
		Aggression: aggression,
	}
}

func (o *CreateFleet) Kind() Kind { return KindCreateFleet }

func (o *CreateFleet) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		u := gs.Universe
		if len(o.Ships) == 0 {
			return nil, precondition("new fleet has no ships")
		}
		if err := validName(o.Name); err != nil {
			return nil, err
		}
		if !o.Aggression.IsValid() {
			return nil, precondition("invalid aggression %d", o.Aggression)
		}
		if o.FleetID != universe.InvalidObjectID {
			if !universe.InEmpireBlock(empire.ID, int(o.FleetID)) {
				return nil, precondition("fleet id %d is outside the block of empire %d", o.FleetID, empire.ID)
			}
			if u.Exists(o.FleetID) {
				return nil, precondition("object %d already exists", o.FleetID)
			}
		}

		ships := make([]*universe.Ship, 0, len(o.Ships))
		for i, id := range o.Ships {
			if slices.Index(o.Ships, id) != i {
				return nil, precondition("ship %d listed twice", id)
			}
			s, err := ownedShip(gs, empire.ID, id)
			if err != nil {
				return nil, err
			}
			if s.Committed() {
				return nil, precondition("ship %d is committed to another order", id)
			}
			if len(ships) > 0 && !ships[0].CoLocated(&s.ObjectHeader) {
				return nil, precondition("ship %d is not at the same location as ship %d", id, ships[0].ID)
			}
			ships = append(ships, s)
		}
		origin, err := u.Fleet(ships[0].FleetID)
		if err != nil {
			return nil, invalidRef("fleet of ship %d: %v", ships[0].ID, err)
		}

		return func() {
			if o.FleetID == universe.InvalidObjectID {
				o.FleetID = u.GenerateEmpireObjectID(empire.ID)
			}
			prev, next := origin.PrevSystemID, origin.NextSystemID
			fleet, _ := u.CreateFleet(o.FleetID, o.Name, empire.ID, &ships[0].ObjectHeader)
			fleet.Aggression = o.Aggression
			fleet.PrevSystemID, fleet.NextSystemID = prev, next
			if fleet.InDeepSpace() {
				fleet.FinalDestinationID = next
				fleet.Route = []universe.ObjectID{next}
			}

			o.detached = make([]detachment, 0, len(ships))
			for _, s := range ships {
				o.detached = append(o.detached, detach(u, s))
				u.AddShipToFleet(fleet, s)
			}
		}, nil
	})
}

func (o *CreateFleet) Undo(gs *universe.Context) error {
	return o.undo(func() (commitFunc, error) {
		u := gs.Universe
		fleet, err := u.Fleet(o.FleetID)
		if err != nil {
			return nil, refused("fleet %d no longer exists", o.FleetID)
		}
		if !slices.Equal(fleet.Ships, o.Ships) {
			return nil, refused("fleet %d membership changed", o.FleetID)
		}
		// The new fleet is deleted before reattaching, so ships can go back into fleets that were
		// emptied by this order.
		if err := checkReattach(u, o.detached); err != nil {
			return nil, err
		}
		return func() {
			for _, id := range o.Ships {
				u.RemoveShipFromFleet(fleet, u.Ships[id])
			}
			err := u.DestroyFleet(o.FleetID)
			assert.That(err == nil, "destroy created fleet %d: %v", o.FleetID, err)
			reattach(u, o.detached)
			u.ReleaseEmpireObjectID(o.empire, o.FleetID)
		}, nil
	})
}

func (o *CreateFleet) String() string {
	return fmt.Sprintf("CreateFleet empire=%d fleet=%d name=%q ships=%v aggression=%s%s",
		o.empire, o.FleetID, o.Name, o.Ships, o.Aggression, status(&o.base))
}
