package order

import (
	"github.com/freeorion/orders/pkg/assert"
	"github.com/freeorion/orders/pkg/universe"
)

// detachment records where a ship sat before an order pulled it out of its fleet, so undo can
// put it back at the same index.
type detachment struct {
	ship  universe.ObjectID
	fleet universe.ObjectID
	index int
	// removed holds the fleet as it was when the detach emptied and deleted it.
	removed *universe.Fleet
}

// detach removes the ship from its fleet, deleting the fleet if it ends up empty.
func detach(u *universe.Universe, s *universe.Ship) detachment {
	d := detachment{ship: s.ID, fleet: s.FleetID, index: -1}
	f, err := u.Fleet(s.FleetID)
	if err != nil {
		return d
	}
	d.index = u.RemoveShipFromFleet(f, s)
	if f.Empty() {
		d.removed = f.Clone()
		err := u.DestroyFleet(f.ID)
		assert.That(err == nil, "destroy emptied fleet %d: %v", f.ID, err)
	}
	return d
}

// checkReattach verifies that every detachment in ds can be reverted. Fleets deleted by one of
// the detachments may be missing; any other missing fleet means the effect was superseded.
func checkReattach(u *universe.Universe, ds []detachment) error {
	recreated := make(map[universe.ObjectID]bool)
	for _, d := range ds {
		if d.removed != nil {
			if u.Exists(d.fleet) {
				return refused("fleet %d was recreated", d.fleet)
			}
			recreated[d.fleet] = true
		}
	}
	for _, d := range ds {
		s, ok := u.Ships[d.ship]
		if !ok {
			return refused("ship %d no longer exists", d.ship)
		}
		if d.fleet == universe.InvalidObjectID {
			continue
		}
		if recreated[d.fleet] {
			continue
		}
		f, ok := u.Fleets[d.fleet]
		if !ok {
			return refused("fleet %d no longer exists", d.fleet)
		}
		if f.Owner != s.Owner {
			return refused("fleet %d changed owner", d.fleet)
		}
	}
	return nil
}

// reattach reverts detachments in reverse order, restoring membership order exactly.
func reattach(u *universe.Universe, ds []detachment) {
	for i := len(ds) - 1; i >= 0; i-- {
		d := ds[i]
		s := u.Ships[d.ship]
		if d.fleet == universe.InvalidObjectID {
			continue
		}
		f, ok := u.Fleets[d.fleet]
		if !ok {
			f = d.removed.Clone()
			u.Fleets[f.ID] = f
		}
		u.InsertShipIntoFleet(f, s, d.index)
	}
}
