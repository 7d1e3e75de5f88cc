package order

import (
	"fmt"

	"github.com/freeorion/orders/pkg/universe"
)

// ChangeFocus switches an owned planet to another of its available foci.
type ChangeFocus struct {
	base

	PlanetID universe.ObjectID `json:"planet_id"`
	Focus    string            `json:"focus"`

	prevFocus string
	prevTurn  int
}

func NewChangeFocus(empire universe.EmpireID, planet universe.ObjectID, focus string) *ChangeFocus {
	return &ChangeFocus{base: base{empire: empire}, PlanetID: planet, Focus: focus}
}

func (o *ChangeFocus) Kind() Kind { return KindChangeFocus }

func (o *ChangeFocus) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		planet, err := ownedPlanet(gs, empire.ID, o.PlanetID)
		if err != nil {
			return nil, err
		}
		if !planet.HasFocus(o.Focus) {
			return nil, invalidRef("focus %q is not available on planet %d", o.Focus, planet.ID)
		}
		if planet.Focus == o.Focus {
			return nil, precondition("planet %d already has focus %q", planet.ID, o.Focus)
		}
		return func() {
			o.prevFocus, o.prevTurn = planet.Focus, planet.LastTurnFocusChanged
			planet.Focus = o.Focus
			planet.LastTurnFocusChanged = gs.CurrentTurn
		}, nil
	})
}

func (o *ChangeFocus) Undo(gs *universe.Context) error {
	return o.undo(func() (commitFunc, error) {
		planet, err := gs.Universe.Planet(o.PlanetID)
		if err != nil {
			return nil, refused("planet %d no longer exists", o.PlanetID)
		}
		if planet.Focus != o.Focus || !planet.OwnedBy(o.empire) {
			return nil, refused("focus of planet %d changed", o.PlanetID)
		}
		return func() {
			planet.Focus = o.prevFocus
			planet.LastTurnFocusChanged = o.prevTurn
		}, nil
	})
}

func (o *ChangeFocus) String() string {
	return fmt.Sprintf("ChangeFocus empire=%d planet=%d focus=%q%s", o.empire, o.PlanetID, o.Focus, status(&o.base))
}
