package order

import (
	"fmt"
	"slices"

	"github.com/freeorion/orders/pkg/universe"
)

// FleetTransfer moves ships from their fleets into an existing fleet at the same location.
// Source fleets left empty are deleted.
type FleetTransfer struct {
	base
	irreversible

	DestinationFleet universe.ObjectID   `json:"destination_fleet"`
	Ships            []universe.ObjectID `json:"ships"`
}

func NewFleetTransfer(empire universe.EmpireID, destination universe.ObjectID, ships ...universe.ObjectID) *FleetTransfer {
	return &FleetTransfer{base: base{empire: empire}, DestinationFleet: destination, Ships: ships}
}

func (o *FleetTransfer) Kind() Kind { return KindFleetTransfer }

func (o *FleetTransfer) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		u := gs.Universe
		dest, err := ownedFleet(gs, empire.ID, o.DestinationFleet)
		if err != nil {
			return nil, err
		}
		if len(o.Ships) == 0 {
			return nil, precondition("no ships to transfer")
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
			if s.FleetID == dest.ID {
				return nil, precondition("ship %d is already in fleet %d", id, dest.ID)
			}
			if s.Committed() {
				return nil, precondition("ship %d is committed to another order", id)
			}
			source, err := u.Fleet(s.FleetID)
			if err != nil {
				return nil, invalidRef("fleet of ship %d: %v", id, err)
			}
			if source.Owner != dest.Owner {
				return nil, notOwned("source fleet %d", source.ID)
			}
			if !source.CoLocated(&dest.ObjectHeader) || !s.CoLocated(&dest.ObjectHeader) {
				return nil, precondition("fleet %d is not at the location of fleet %d", source.ID, dest.ID)
			}
			ships = append(ships, s)
		}

		return func() {
			for _, s := range ships {
				detach(u, s)
				u.AddShipToFleet(dest, s)
			}
		}, nil
	})
}

func (o *FleetTransfer) String() string {
	return fmt.Sprintf("FleetTransfer empire=%d destination=%d ships=%v%s",
		o.empire, o.DestinationFleet, o.Ships, status(&o.base))
}
