package order

import (
	"fmt"

	"github.com/freeorion/orders/pkg/universe"
)

// Scrap marks an owned ship or building to be dismantled during turn processing. Ships can only
// be scrapped inside a system.
type Scrap struct {
	base

	ObjectID universe.ObjectID `json:"object_id"`
}

func NewScrap(empire universe.EmpireID, object universe.ObjectID) *Scrap {
	return &Scrap{base: base{empire: empire}, ObjectID: object}
}

func (o *Scrap) Kind() Kind { return KindScrap }

func (o *Scrap) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		obj, err := ownedObject(gs, empire.ID, o.ObjectID)
		if err != nil {
			return nil, err
		}
		switch obj := obj.(type) {
		case *universe.Ship:
			if obj.OrderedScrapped {
				return nil, precondition("ship %d is already being scrapped", obj.ID)
			}
			if obj.Committed() {
				return nil, precondition("ship %d is committed to another order", obj.ID)
			}
			if obj.InDeepSpace() {
				return nil, precondition("ship %d is not in a system", obj.ID)
			}
			return func() { obj.OrderedScrapped = true }, nil
		case *universe.Building:
			if obj.OrderedScrapped {
				return nil, precondition("building %d is already being scrapped", obj.ID)
			}
			return func() { obj.OrderedScrapped = true }, nil
		default:
			return nil, precondition("%s %d cannot be scrapped", obj.Kind(), o.ObjectID)
		}
	})
}

func (o *Scrap) Undo(gs *universe.Context) error {
	return o.undo(func() (commitFunc, error) {
		obj, err := gs.Universe.Object(o.ObjectID)
		if err != nil {
			return nil, refused("object %d no longer exists", o.ObjectID)
		}
		var flag *bool
		switch obj := obj.(type) {
		case *universe.Ship:
			flag = &obj.OrderedScrapped
		case *universe.Building:
			flag = &obj.OrderedScrapped
		}
		if flag == nil || !*flag {
			return nil, refused("object %d is no longer marked for scrapping", o.ObjectID)
		}
		return func() { *flag = false }, nil
	})
}

func (o *Scrap) String() string {
	return fmt.Sprintf("Scrap empire=%d object=%d%s", o.empire, o.ObjectID, status(&o.base))
}
