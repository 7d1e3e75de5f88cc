package universe

import (
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// -------------------------------------------------------------------------------------------------
// Research queue
// -------------------------------------------------------------------------------------------------

type ResearchElement struct {
	Tech string `json:"tech"`
}

// ResearchQueue is an empire's ordered list of techs waiting to be researched. A tech appears at
// most once.
type ResearchQueue struct {
	Elements []ResearchElement `json:"elements"`
}

func (q *ResearchQueue) Len() int {
	return len(q.Elements)
}

// Find returns the index of the tech in the queue, or -1.
func (q *ResearchQueue) Find(tech string) int {
	return slices.IndexFunc(q.Elements, func(e ResearchElement) bool { return e.Tech == tech })
}

func (q *ResearchQueue) Contains(tech string) bool {
	return q.Find(tech) >= 0
}

// Place puts the tech before the element currently shown at pos. A negative pos or one past the
// end appends. When the tech is already queued at an earlier index, removing it shifts the
// later slots down, so pos is rebased by one to land before the same visual slot.
func (q *ResearchQueue) Place(tech string, pos int) {
	if pos < 0 || pos > len(q.Elements) {
		pos = len(q.Elements)
	}
	if existing := q.Find(tech); existing >= 0 {
		q.Elements = slices.Delete(q.Elements, existing, existing+1)
		if existing < pos {
			pos--
		}
	}
	q.Elements = slices.Insert(q.Elements, pos, ResearchElement{Tech: tech})
}

// Remove drops the tech from the queue and returns the index it occupied, or -1.
func (q *ResearchQueue) Remove(tech string) int {
	i := q.Find(tech)
	if i >= 0 {
		q.Elements = slices.Delete(q.Elements, i, i+1)
	}
	return i
}

func (q *ResearchQueue) Techs() []string {
	techs := make([]string, len(q.Elements))
	for i, e := range q.Elements {
		techs[i] = e.Tech
	}
	return techs
}

func (q *ResearchQueue) clone() ResearchQueue {
	return ResearchQueue{Elements: slices.Clone(q.Elements)}
}

// -------------------------------------------------------------------------------------------------
// Production queue
// -------------------------------------------------------------------------------------------------

// BuildType is the category of a production item.
type BuildType uint8

const (
	BuildTypeInvalid BuildType = iota
	BuildTypeBuilding
	BuildTypeShip
)

func (b BuildType) String() string {
	switch b {
	case BuildTypeBuilding:
		return "building"
	case BuildTypeShip:
		return "ship"
	case BuildTypeInvalid:
		return "invalid"
	default:
		return "invalid"
	}
}

// ProductionItem names what is being built. Buildings are identified by Name, ships by DesignID.
type ProductionItem struct {
	BuildType BuildType `json:"build_type"`
	Name      string    `json:"name,omitempty"`
	DesignID  int       `json:"design_id,omitempty"`
}

func (i ProductionItem) String() string {
	if i.BuildType == BuildTypeShip {
		return "ship design " + strconv.Itoa(i.DesignID)
	}
	return i.BuildType.String() + " " + i.Name
}

type ProductionElement struct {
	ID       uuid.UUID      `json:"id"`
	Item     ProductionItem `json:"item"`
	Location ObjectID       `json:"location"`
	Quantity int            `json:"quantity"`
	Progress float64        `json:"progress"`
	Paused   bool           `json:"paused"`
}

// ProductionQueue is an empire's ordered list of pending builds.
type ProductionQueue struct {
	Elements []ProductionElement `json:"elements"`
}

func (q *ProductionQueue) Len() int {
	return len(q.Elements)
}

func (q *ProductionQueue) checkIndex(i int) error {
	if i < 0 || i >= len(q.Elements) {
		return eris.Wrapf(ErrQueueIndexOutOfRange, "index %d, queue length %d", i, len(q.Elements))
	}
	return nil
}

// At returns a pointer to the element at index i for in-place edits.
func (q *ProductionQueue) At(i int) (*ProductionElement, error) {
	if err := q.checkIndex(i); err != nil {
		return nil, err
	}
	return &q.Elements[i], nil
}

// IndexOf returns the index of the element with the given ID, or -1.
func (q *ProductionQueue) IndexOf(id uuid.UUID) int {
	return slices.IndexFunc(q.Elements, func(e ProductionElement) bool { return e.ID == id })
}

// Insert places the element at index i. A negative index or one past the end appends.
func (q *ProductionQueue) Insert(e ProductionElement, i int) {
	if i < 0 || i > len(q.Elements) {
		i = len(q.Elements)
	}
	q.Elements = slices.Insert(q.Elements, i, e)
}

// Remove deletes and returns the element at index i. The remaining elements keep their relative
// order.
func (q *ProductionQueue) Remove(i int) (ProductionElement, error) {
	if err := q.checkIndex(i); err != nil {
		return ProductionElement{}, err
	}
	e := q.Elements[i]
	q.Elements = slices.Delete(q.Elements, i, i+1)
	return e, nil
}

// Move relocates the element at from so that it ends up at index to.
func (q *ProductionQueue) Move(from, to int) error {
	if err := q.checkIndex(from); err != nil {
		return err
	}
	if err := q.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	e := q.Elements[from]
	q.Elements = slices.Delete(q.Elements, from, from+1)
	q.Elements = slices.Insert(q.Elements, to, e)
	return nil
}

func (q *ProductionQueue) clone() ProductionQueue {
	return ProductionQueue{Elements: slices.Clone(q.Elements)}
}
