package order

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/freeorion/orders/pkg/universe"
)

// envelope is the wire form of an order. The body holds the kind's payload. Execution state is
// never transmitted, so a decoded order always starts unexecuted.
type envelope struct {
	Kind   Kind              `json:"kind"`
	Empire universe.EmpireID `json:"empire"`
	Body   json.RawMessage   `json:"body"`
}

// factories builds an empty order of each kind for decoding. Every kind must be present.
var factories = map[Kind]func() Order{ //nolint:gochecknoglobals // codec registry
	KindRename:          func() Order { return &Rename{} },
	KindCreateFleet:     func() Order { return &CreateFleet{} },
	KindFleetMove:       func() Order { return &FleetMove{} },
	KindFleetTransfer:   func() Order { return &FleetTransfer{} },
	KindColonize:        func() Order { return &Colonize{} },
	KindInvade:          func() Order { return &Invade{} },
	KindChangeFocus:     func() Order { return &ChangeFocus{} },
	KindResearchQueue:   func() Order { return &ResearchQueue{} },
	KindProductionQueue: func() Order { return &ProductionQueue{} },
	KindShipDesign:      func() Order { return &ShipDesign{} },
	KindScrap:           func() Order { return &Scrap{} },
	KindAggression:      func() Order { return &Aggression{} },
}

// Encode serializes an order into its wire envelope.
func Encode(o Order) ([]byte, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to encode %s order body", o.Kind())
	}
	data, err := json.Marshal(envelope{Kind: o.Kind(), Empire: o.EmpireID(), Body: body})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to encode %s order", o.Kind())
	}
	return data, nil
}

// Decode parses a wire envelope into a fresh, unexecuted order.
func Decode(data []byte) (Order, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(err, "failed to decode order envelope")
	}
	factory, ok := factories[env.Kind]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownKind, "kind %q", env.Kind)
	}
	o := factory()
	if len(env.Body) > 0 {
		if err := json.Unmarshal(env.Body, o); err != nil {
			return nil, eris.Wrapf(err, "failed to decode %s order body", env.Kind)
		}
	}
	o.header().empire = env.Empire
	return o, nil
}
