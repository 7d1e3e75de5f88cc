package order

import (
	"fmt"

	"github.com/freeorion/orders/pkg/universe"
)

type ResearchAction uint8

const (
	ResearchEnqueue ResearchAction = iota + 1
	ResearchDequeue
)

func (a ResearchAction) String() string {
	switch a {
	case ResearchEnqueue:
		return "enqueue"
	case ResearchDequeue:
		return "dequeue"
	default:
		return "invalid"
	}
}

// ResearchQueue adds a tech to the empire's research queue, moves a queued tech, or removes it.
// Position is the visual slot to insert before; -1 appends.
type ResearchQueue struct {
	base
	irreversible

	Action   ResearchAction `json:"action"`
	Tech     string         `json:"tech"`
	Position int            `json:"position"`
}

func NewResearchEnqueue(empire universe.EmpireID, tech string, position int) *ResearchQueue {
	return &ResearchQueue{base: base{empire: empire}, Action: ResearchEnqueue, Tech: tech, Position: position}
}

func NewResearchDequeue(empire universe.EmpireID, tech string) *ResearchQueue {
	return &ResearchQueue{base: base{empire: empire}, Action: ResearchDequeue, Tech: tech, Position: -1}
}

func (o *ResearchQueue) Kind() Kind { return KindResearchQueue }

func (o *ResearchQueue) Execute(gs *universe.Context) error {
	return o.execute(gs, func(empire *universe.Empire) (commitFunc, error) {
		queue := &empire.ResearchQueue
		switch o.Action {
		case ResearchEnqueue:
			tech, ok := gs.Content.Tech(o.Tech)
			if !ok {
				return nil, invalidRef("tech %q", o.Tech)
			}
			if !tech.Researchable {
				return nil, precondition("tech %q is not researchable", o.Tech)
			}
			if empire.TechResearched(o.Tech) {
				return nil, precondition("tech %q is already researched", o.Tech)
			}
			if o.Position < -1 || o.Position > queue.Len() {
				return nil, outOfBounds("position %d, research queue length %d", o.Position, queue.Len())
			}
			return func() { queue.Place(o.Tech, o.Position) }, nil
		case ResearchDequeue:
			if !queue.Contains(o.Tech) {
				return nil, invalidRef("tech %q is not queued", o.Tech)
			}
			return func() { queue.Remove(o.Tech) }, nil
		default:
			return nil, precondition("unknown research action %d", o.Action)
		}
	})
}

func (o *ResearchQueue) String() string {
	return fmt.Sprintf("ResearchQueue empire=%d action=%s tech=%q position=%d%s",
		o.empire, o.Action, o.Tech, o.Position, status(&o.base))
}
