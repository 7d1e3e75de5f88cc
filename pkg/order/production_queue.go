package order

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/freeorion/orders/pkg/universe"
)

type ProductionAction uint8

const (
	ProductionPlace ProductionAction = iota + 1
	ProductionRemove
	ProductionMove
	ProductionSetQuantity
	ProductionPause
	ProductionResume
)

func (a ProductionAction) String() string {
	switch a {
	case ProductionPlace:
		return "place"
	case ProductionRemove:
		return "remove"
	case ProductionMove:
		return "move"
	case ProductionSetQuantity:
		return "set_quantity"
	case ProductionPause:
		return "pause"
	case ProductionResume:
		return "resume"
	default:
		return "invalid"
	}
}

// ProductionQueue edits the empire's production queue. Index addresses an existing element for
// every action except place, where it is the insertion index (-1 appends). Move leaves the
// element at NewIndex.
type ProductionQueue struct {
	base
	irreversible

	Action    ProductionAction        `json:"action"`
	ElementID uuid.UUID               `json:"element_id"`
	Item      universe.ProductionItem `json:"item"`
	Location  universe.ObjectID       `json:"location,omitempty"`
	Index     int                     `json:"index"`
	NewIndex  int                     `json:"new_index,omitempty"`
	Quantity  int                     `json:"quantity,omitempty"`
}

func NewProductionPlace(
	empire universe.EmpireID, item universe.ProductionItem, location universe.ObjectID, index int,
) *ProductionQueue {
	return &ProductionQueue{
		base:      base{empire: empire},
		Action:    ProductionPlace,
		ElementID: uuid.New(),
		Item:      item,
		Location:  location,
		Index:     index,
		Quantity:  1,
	}
}

func NewProductionRemove(empire universe.EmpireID, index int) *ProductionQueue {
	return &ProductionQueue{base: base{empire: empire}, Action: ProductionRemove, Index: index}
}

func NewProductionMove(empire universe.EmpireID, index, newIndex int) *ProductionQueue {
	return &ProductionQueue{base: base{empire: empire}, Action: ProductionMove, Index: index, NewIndex: newIndex}
}

func NewProductionQuantity(empire universe.EmpireID, index, quantity int) *ProductionQueue {
	return &ProductionQueue{base: base{empire: empire}, Action: ProductionSetQuantity, Index: index, Quantity: quantity}
}

func NewProductionPause(empire universe.EmpireID, index int, pause bool) *ProductionQueue {
	action := ProductionResume
	if pause {
		action = ProductionPause
	}
	return &ProductionQueue{base: base{empire: empire}, Action: action, Index: index}
}

func (o *ProductionQueue) Kind() Kind { return KindProductionQueue }

func (o *ProductionQueue) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		queue := &empire.ProductionQueue
		if o.Action == ProductionPlace {
			return o.place(gs, empire)
		}

		elem, err := queue.At(o.Index)
		if err != nil {
			return nil, outOfBounds("index %d, production queue length %d", o.Index, queue.Len())
		}
		switch o.Action {
		case ProductionRemove:
			return func() { _, _ = queue.Remove(o.Index) }, nil
		case ProductionMove:
			if o.NewIndex < 0 || o.NewIndex >= queue.Len() {
				return nil, outOfBounds("new index %d, production queue length %d", o.NewIndex, queue.Len())
			}
			return func() { _ = queue.Move(o.Index, o.NewIndex) }, nil
		case ProductionSetQuantity:
			if o.Quantity < 1 {
				return nil, precondition("quantity %d must be positive", o.Quantity)
			}
			return func() { elem.Quantity = o.Quantity }, nil
		case ProductionPause, ProductionResume:
			pause := o.Action == ProductionPause
			if elem.Paused == pause {
				return nil, precondition("production element %d paused=%t already", o.Index, pause)
			}
			return func() { elem.Paused = pause }, nil
		default:
			return nil, precondition("unknown production action %d", o.Action)
		}
	})
}

func (o *ProductionQueue) place(gs *universe.Context, empire *universe.Empire) (commitFunc, error) {
	queue := &empire.ProductionQueue
	switch o.Item.BuildType {
	case universe.BuildTypeBuilding:
		bt, ok := gs.Content.BuildingType(o.Item.Name)
		if !ok {
			return nil, invalidRef("building type %q", o.Item.Name)
		}
		if !bt.Producible || !empire.BuildingTypeAvailable(bt.Name) {
			return nil, precondition("building type %q is not available", bt.Name)
		}
	case universe.BuildTypeShip:
		design, err := gs.Universe.Design(o.Item.DesignID)
		if err != nil {
			return nil, err
		}
		if !design.Producible || !empire.KnowsShipDesign(design.ID) {
			return nil, precondition("ship design %d is not available", design.ID)
		}
	case universe.BuildTypeInvalid:
		return nil, precondition("production item has no build type")
	default:
		return nil, precondition("unknown build type %d", o.Item.BuildType)
	}
	if _, err := ownedPlanet(gs, empire.ID, o.Location); err != nil {
		return nil, err
	}
	if o.Quantity < 1 {
		return nil, precondition("quantity %d must be positive", o.Quantity)
	}
	if o.ElementID == uuid.Nil || queue.IndexOf(o.ElementID) >= 0 {
		return nil, precondition("production element id %s is not unique", o.ElementID)
	}
	if o.Index < -1 || o.Index > queue.Len() {
		return nil, outOfBounds("index %d, production queue length %d", o.Index, queue.Len())
	}

	elem := universe.ProductionElement{
		ID:       o.ElementID,
		Item:     o.Item,
		Location: o.Location,
		Quantity: o.Quantity,
	}
	return func() { queue.Insert(elem, o.Index) }, nil
}

func (o *ProductionQueue) String() string {
	switch o.Action {
	case ProductionPlace:
		return fmt.Sprintf("ProductionQueue empire=%d action=%s item=%q location=%d index=%d%s",
			o.empire, o.Action, o.Item, o.Location, o.Index, status(&o.base))
	case ProductionMove:
		return fmt.Sprintf("ProductionQueue empire=%d action=%s index=%d new_index=%d%s",
			o.empire, o.Action, o.Index, o.NewIndex, status(&o.base))
	case ProductionSetQuantity:
		return fmt.Sprintf("ProductionQueue empire=%d action=%s index=%d quantity=%d%s",
			o.empire, o.Action, o.Index, o.Quantity, status(&o.base))
	case ProductionRemove, ProductionPause, ProductionResume:
		return fmt.Sprintf("ProductionQueue empire=%d action=%s index=%d%s",
			o.empire, o.Action, o.Index, status(&o.base))
	default:
		return fmt.Sprintf("ProductionQueue empire=%d action=%s%s", o.empire, o.Action, status(&o.base))
	}
}
