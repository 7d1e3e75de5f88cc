package order

import (
	"fmt"
	"slices"

	"github.com/freeorion/orders/pkg/universe"
)

// Invade commits a troop ship to land on a foreign planet. The planet must be unshielded,
// populated, visible and not already under invasion by another empire.
type Invade struct {
	base

	ShipID   universe.ObjectID `json:"ship_id"`
	PlanetID universe.ObjectID `json:"planet_id"`

	detached       detachment
	prevInvaderSet bool
}

func NewInvade(empire universe.EmpireID, ship, planet universe.ObjectID) *Invade {
	return &Invade{base: base{empire: empire}, ShipID: ship, PlanetID: planet}
}

func (o *Invade) Kind() Kind { return KindInvade }

func (o *Invade) Execute(gs *universe.Context) error {
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
		case ship.TroopCapacity <= 0:
			return nil, precondition("ship %d carries no troops", ship.ID)
		case ship.Committed():
			return nil, precondition("ship %d is committed to another order", ship.ID)
		case planet.OwnedBy(empire.ID):
			return nil, precondition("planet %d is already owned by empire %d", planet.ID, empire.ID)
		case planet.Shield > 0:
			return nil, precondition("planet %d has shields up (%.1f)", planet.ID, planet.Shield)
		case !planet.Populated():
			return nil, precondition("planet %d is unpopulated", planet.ID)
		case u.GetVisibility(empire.ID, planet.ID) < universe.VisibilityPartial:
			return nil, precondition("planet %d is not visible", planet.ID)
		case planet.InvadingEmpire != universe.NoEmpire && planet.InvadingEmpire != empire.ID:
			return nil, precondition("planet %d is being invaded by empire %d", planet.ID, planet.InvadingEmpire)
		case ship.InDeepSpace() || ship.SystemID != planet.SystemID:
			return nil, precondition("ship %d is not in the system of planet %d", ship.ID, planet.ID)
		}

		return func() {
			o.prevInvaderSet = planet.InvadingEmpire == empire.ID
			ship.OrderedInvadePlanet = planet.ID
			planet.InvadingEmpire = empire.ID
			planet.InvadingShips = append(planet.InvadingShips, ship.ID)
			o.detached = detach(u, ship)
		}, nil
	})
}

// Undo returns the ship to its fleet and withdraws it from the planet's invasion. The planet's
// invader is cleared once no ship is invading it.
func (o *Invade) Undo(gs *universe.Context) error {
	return o.undo(func() (commitFunc, error) {
		u := gs.Universe
		ship, err := u.Ship(o.ShipID)
		if err != nil {
			return nil, refused("ship %d no longer exists", o.ShipID)
		}
		if ship.OrderedInvadePlanet != o.PlanetID {
			return nil, refused("ship %d is no longer invading planet %d", o.ShipID, o.PlanetID)
		}
		planet, err := u.Planet(o.PlanetID)
		if err != nil {
			return nil, refused("planet %d no longer exists", o.PlanetID)
		}
		idx := slices.Index(planet.InvadingShips, o.ShipID)
		if idx < 0 {
			return nil, refused("ship %d is not listed as invading planet %d", o.ShipID, o.PlanetID)
		}
		ds := []detachment{o.detached}
		if err := checkReattach(u, ds); err != nil {
			return nil, err
		}
		return func() {
			ship.OrderedInvadePlanet = universe.InvalidObjectID
			planet.InvadingShips = slices.Delete(planet.InvadingShips, idx, idx+1)
			if len(planet.InvadingShips) == 0 {
				planet.InvadingShips = nil
				if !o.prevInvaderSet {
					planet.InvadingEmpire = universe.NoEmpire
				}
			}
			reattach(u, ds)
		}, nil
	})
}

func (o *Invade) String() string {
	return fmt.Sprintf("Invade empire=%d ship=%d planet=%d%s", o.empire, o.ShipID, o.PlanetID, status(&o.base))
}
