package orderset

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/freeorion/orders/pkg/order"
)

type wireEntry struct {
	Key   int             `json:"key"`
	Order json.RawMessage `json:"order"`
}

type wireSet struct {
	NextKey int         `json:"next_key"`
	Orders  []wireEntry `json:"orders"`
}

// MarshalJSON encodes the live orders and the next key. Execution state and change tracking are
// not encoded.
func (s *OrderSet) MarshalJSON() ([]byte, error) {
	w := wireSet{NextKey: s.nextKey, Orders: make([]wireEntry, 0, len(s.keys))}
	for key, o := range s.All() {
		data, err := order.Encode(o)
		if err != nil {
			return nil, eris.Wrapf(err, "order %d", key)
		}
		w.Orders = append(w.Orders, wireEntry{Key: key, Order: data})
	}
	return json.Marshal(w)
}

// UnmarshalJSON replaces the contents of s with decoded, unexecuted orders.
func (s *OrderSet) UnmarshalJSON(data []byte) error {
	var w wireSet
	if err := json.Unmarshal(data, &w); err != nil {
		return eris.Wrap(err, "failed to decode order set")
	}

	if w.NextKey < 0 || w.NextKey > MaxKey+1 {
		return eris.Errorf("invalid next key %d", w.NextKey)
	}

	decoded := New(WithLogger(s.log))
	decoded.nextKey = w.NextKey
	for _, entry := range w.Orders {
		if !ValidKey(entry.Key) {
			return eris.Errorf("invalid order key %d", entry.Key)
		}
		if decoded.has(entry.Key) {
			return eris.Errorf("duplicate order key %d", entry.Key)
		}
		o, err := order.Decode(entry.Order)
		if err != nil {
			return eris.Wrapf(err, "order %d", entry.Key)
		}
		decoded.insert(entry.Key, o)
		decoded.nextKey = max(decoded.nextKey, entry.Key+1)
	}

	s.orders = decoded.orders
	s.keys = decoded.keys
	s.nextKey = decoded.nextKey
	s.added.Clear()
	s.deleted.Clear()
	return nil
}
