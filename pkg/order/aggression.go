package order

import (
	"fmt"

	"github.com/freeorion/orders/pkg/universe"
)

// Aggression sets how a fleet behaves toward other empires.
type Aggression struct {
	base
	irreversible

	FleetID    universe.ObjectID        `json:"fleet_id"`
	Aggression universe.FleetAggression `json:"aggression"`
}

func NewAggression(empire universe.EmpireID, fleet universe.ObjectID, aggression universe.FleetAggression) *Aggression {
	return &Aggression{base: base{empire: empire}, FleetID: fleet, Aggression: aggression}
}

func (o *Aggression) Kind() Kind { return KindAggression }

func (o *Aggression) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		fleet, err := ownedFleet(gs, empire.ID, o.FleetID)
		if err != nil {
			return nil, err
		}
		if !o.Aggression.IsValid() {
			return nil, precondition("invalid aggression %d", o.Aggression)
		}
		return func() { fleet.Aggression = o.Aggression }, nil
	})
}

func (o *Aggression) String() string {
	return fmt.Sprintf("Aggression empire=%d fleet=%d aggression=%s%s", o.empire, o.FleetID, o.Aggression, status(&o.base))
}
