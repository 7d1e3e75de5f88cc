package order

import (
	"fmt"
	"slices"

	"github.com/freeorion/orders/pkg/universe"
)

// FleetMove sets a fleet's route to the destination system along the shortest starlane path.
// With Append set, the path continues from the end of the fleet's current route.
//
// The stored route starts at the system the fleet is in, or the next system it reaches when it
// is between systems, and ends at the destination.
type FleetMove struct {
	base

	FleetID     universe.ObjectID `json:"fleet_id"`
	Destination universe.ObjectID `json:"destination"`
	Append      bool              `json:"append,omitempty"`

	route     []universe.ObjectID
	prevRoute []universe.ObjectID
	prevNext  universe.ObjectID
	prevFinal universe.ObjectID
}

func NewFleetMove(empire universe.EmpireID, fleet, destination universe.ObjectID) *FleetMove {
	return &FleetMove{base: base{empire: empire}, FleetID: fleet, Destination: destination}
}

func (o *FleetMove) Kind() Kind { return KindFleetMove }

func (o *FleetMove) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		u := gs.Universe
		fleet, err := ownedFleet(gs, empire.ID, o.FleetID)
		if err != nil {
			return nil, err
		}
		if _, err := u.System(o.Destination); err != nil {
			return nil, err
		}

		start := fleet.SystemID
		if fleet.InDeepSpace() {
			start = fleet.NextSystemID
		}
		var prefix []universe.ObjectID
		if o.Append && len(fleet.Route) > 0 {
			prefix = fleet.Route[:len(fleet.Route)-1]
			start = fleet.Route[len(fleet.Route)-1]
		}
		path, err := u.ShortestPath(start, o.Destination)
		if err != nil {
			return nil, err
		}
		route := slices.Concat(prefix, path)

		return func() {
			o.prevRoute = fleet.Route
			o.prevNext = fleet.NextSystemID
			o.prevFinal = fleet.FinalDestinationID

			o.route = route
			fleet.Route = slices.Clone(route)
			fleet.FinalDestinationID = o.Destination
			if !fleet.InDeepSpace() && len(route) > 1 {
				fleet.NextSystemID = route[1]
			}
		}, nil
	})
}

// Undo restores the previous route, unless the fleet's route was changed after this order.
func (o *FleetMove) Undo(gs *universe.Context) error {
	return o.undo(func() (commitFunc, error) {
		fleet, err := gs.Universe.Fleet(o.FleetID)
		if err != nil {
			return nil, refused("fleet %d no longer exists", o.FleetID)
		}
		if !slices.Equal(fleet.Route, o.route) {
			return nil, refused("route of fleet %d changed", o.FleetID)
		}
		return func() {
			fleet.Route = o.prevRoute
			fleet.NextSystemID = o.prevNext
			fleet.FinalDestinationID = o.prevFinal
		}, nil
	})
}

func (o *FleetMove) String() string {
	return fmt.Sprintf("FleetMove empire=%d fleet=%d destination=%d append=%t%s",
		o.empire, o.FleetID, o.Destination, o.Append, status(&o.base))
}
