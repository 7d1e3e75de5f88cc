package order

import (
	"fmt"

	"github.com/freeorion/orders/pkg/universe"
)

// Colonize commits a colony ship to settle an unowned, unpopulated planet in its system. The ship
// leaves its fleet; the colony itself is founded during turn processing.
type Colonize struct {
	base

	ShipID   universe.ObjectID `json:"ship_id"`
	PlanetID universe.ObjectID `json:"planet_id"`

	detached detachment
}

func NewColonize(empire universe.EmpireID, ship, planet universe.ObjectID) *Colonize {
	return &Colonize{base: base{empire: empire}, ShipID: ship, PlanetID: planet}
}

func (o *Colonize) Kind() Kind { return KindColonize }

func (o *Colonize) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		u := gs.Universe
		ship, err := ownedShip(gs, empire.ID, o.ShipID)
		if err != nil {
			return nil, err
		}
		planet, err := u.Planet(o.PlanetID)
		if err != nil {
			return nil, err
		}
		switch {
		case !ship.CanColonize:
			return nil, precondition("ship %d cannot colonize", ship.ID)
		case ship.Committed():
			return nil, precondition("ship %d is committed to another order", ship.ID)
		case !planet.Unowned():
			return nil, precondition("planet %d is owned by empire %d", planet.ID, planet.Owner)
		case planet.Populated():
			return nil, precondition("planet %d is populated", planet.ID)
		case ship.InDeepSpace() || ship.SystemID != planet.SystemID:
			return nil, precondition("ship %d is not in the system of planet %d", ship.ID, planet.ID)
		case u.GetVisibility(empire.ID, planet.ID) < universe.VisibilityPartial:
			return nil, precondition("planet %d is not visible", planet.ID)
		case planet.AboutToBeColonized:
			return nil, precondition("planet %d is already being colonized", planet.ID)
		}

		return func() {
			ship.OrderedColonizePlanet = planet.ID
			planet.AboutToBeColonized = true
			o.detached = detach(u, ship)
		}, nil
	})
}

// Undo puts the ship back into its fleet, recreating the fleet if colonizing emptied it.
func (o *Colonize) Undo(gs *universe.Context) error {
	return o.undo(func() (commitFunc, error) {
		u := gs.Universe
		ship, err := u.Ship(o.ShipID)
		if err != nil {
			return nil, refused("ship %d no longer exists", o.ShipID)
		}
		if ship.OrderedColonizePlanet != o.PlanetID {
			return nil, refused("ship %d is no longer colonizing planet %d", o.ShipID, o.PlanetID)
		}
		planet, err := u.Planet(o.PlanetID)
		if err != nil {
			return nil, refused("planet %d no longer exists", o.PlanetID)
		}
		ds := []detachment{o.detached}
		if err := checkReattach(u, ds); err != nil {
			return nil, err
		}
		return func() {
			ship.OrderedColonizePlanet = universe.InvalidObjectID
			planet.AboutToBeColonized = false
			reattach(u, ds)
		}, nil
	})
}

func (o *Colonize) String() string {
	return fmt.Sprintf("Colonize empire=%d ship=%d planet=%d%s", o.empire, o.ShipID, o.PlanetID, status(&o.base))
}
