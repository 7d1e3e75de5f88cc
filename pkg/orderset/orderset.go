// Package orderset holds the per-turn log of orders one player has issued.
//
// Keys are assigned by the set, strictly increase and are never reused within a turn, even
// after the order holding the largest key is rescinded. The set tracks which keys were added and
// deleted since the last ExtractChanges so clients only send deltas to the server.
package orderset

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/freeorion/orders/pkg/assert"
	"github.com/freeorion/orders/pkg/order"
	"github.com/freeorion/orders/pkg/universe"
)

// MaxKey bounds order keys, so a set never holds more than MaxKey+1 keys in a turn and change
// tracking stays small whatever a peer sends.
const MaxKey = 1<<20 - 1

// ValidKey reports whether key can be stored in a set.
func ValidKey(key int) bool {
	return key >= 0 && key <= MaxKey
}

// OrderSet is not safe for concurrent use.
type OrderSet struct {
	orders  map[int]order.Order
	keys    []int // ascending
	nextKey int

	added   bitmap.Bitmap
	deleted bitmap.Bitmap

	log zerolog.Logger
}

type Option func(*OrderSet)

// WithLogger sets the logger used to report order failures.
func WithLogger(log zerolog.Logger) Option {
	return func(s *OrderSet) {
		s.log = log
	}
}

func New(opts ...Option) *OrderSet {
	s := &OrderSet{
		orders: make(map[int]order.Order),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueOrder stores the order under the next key, records it as added, and executes it. When
// Execute fails the order stays in the set unexecuted, so a later ApplyOrders retries it; the
// key and the error are both returned.
func (s *OrderSet) IssueOrder(gs *universe.Context, o order.Order) (int, error) {
	if o == nil {
		return -1, eris.New("cannot issue nil order")
	}
	if !ValidKey(s.nextKey) {
		return -1, eris.Errorf("no order keys left this turn (max %d)", MaxKey)
	}
	key := s.nextKey
	s.nextKey++
	s.insert(key, o)
	s.added.Set(uint32(key)) //nolint:gosec // keys are bounded by MaxKey

	if err := o.Execute(gs); err != nil {
		s.log.Warn().
			Int("order_key", key).
			Stringer("order_kind", o.Kind()).
			Int32("empire_id", int32(o.EmpireID())).
			Stringer("failure", order.Classify(err)).
			Err(err).
			Msg("order failed to execute")
		return key, err
	}
	return key, nil
}

// ApplyOrders executes every stored order in key order, skipping orders already executed in this
// process. A failing order never stops the rest of the batch.
func (s *OrderSet) ApplyOrders(gs *universe.Context) Summary {
	summary := Summary{Turn: gs.CurrentTurn}
	for _, key := range s.keys {
		o := s.orders[key]
		if o.Executed() {
			summary.AlreadyExecuted++
			continue
		}
		if err := o.Execute(gs); err != nil {
			failure := Failure{Key: key, Kind: o.Kind(), Empire: o.EmpireID(), Reason: order.Classify(err), Err: err}
			summary.Failed++
			summary.Failures = append(summary.Failures, failure)
			s.log.Warn().
				Int("order_key", key).
				Stringer("order_kind", failure.Kind).
				Int32("empire_id", int32(failure.Empire)).
				Stringer("failure", failure.Reason).
				Err(err).
				Msg("order failed during replay")
			continue
		}
		summary.Executed++
	}

	s.log.Info().
		Int("turn", summary.Turn).
		Int("executed", summary.Executed).
		Int("already_executed", summary.AlreadyExecuted).
		Int("failed", summary.Failed).
		Msg("applied orders")
	return summary
}

// RescindOrder undoes and removes the order stored under key. It returns false and leaves the set
// unchanged when there is no such order or the order cannot be undone.
func (s *OrderSet) RescindOrder(gs *universe.Context, key int) bool {
	o, ok := s.orders[key]
	if !ok {
		return false
	}
	if err := o.Undo(gs); err != nil {
		s.log.Debug().
			Int("order_key", key).
			Stringer("order_kind", o.Kind()).
			Err(err).
			Msg("order not rescinded")
		return false
	}
	s.remove(key)
	return true
}

// Reset clears all orders and change tracking for a new turn. Keys start again at zero.
func (s *OrderSet) Reset() {
	clear(s.orders)
	s.keys = nil
	s.nextKey = 0
	s.added.Clear()
	s.deleted.Clear()
}

// ExtractChanges returns the live orders added since the previous call, sharing the order values
// with s, and the ascending keys deleted since then. Keys that were added and removed inside the
// window are reported only as deleted. Both tracking sets are cleared.
func (s *OrderSet) ExtractChanges() (*OrderSet, []int) {
	changes := New(WithLogger(s.log))
	changes.nextKey = s.nextKey

	s.added.Range(func(k uint32) {
		key := int(k)
		if o, ok := s.orders[key]; ok {
			changes.insert(key, o)
			return
		}
		s.deleted.Set(k)
	})
	s.added.Clear()

	deleted := make([]int, 0, s.deleted.Count())
	s.deleted.Range(func(k uint32) {
		assert.That(!changes.has(int(k)), "key %d reported both added and deleted", k)
		deleted = append(deleted, int(k))
	})
	s.deleted.Clear()
	return changes, deleted
}

// Update merges a delta produced by ExtractChanges on another set, keeping its keys. Added orders
// are stored without being executed.
func (s *OrderSet) Update(added *OrderSet, deleted []int) error {
	for _, key := range deleted {
		if !ValidKey(key) {
			return eris.Errorf("invalid deleted key %d", key)
		}
	}
	if added != nil {
		for _, key := range added.keys {
			if !ValidKey(key) {
				return eris.Errorf("invalid added key %d", key)
			}
		}
		if added.nextKey < 0 || added.nextKey > MaxKey+1 {
			return eris.Errorf("invalid next key %d", added.nextKey)
		}
	}

	for _, key := range deleted {
		if s.has(key) {
			s.remove(key)
		}
		s.nextKey = max(s.nextKey, key+1)
	}
	if added == nil {
		return nil
	}
	for key, o := range added.All() {
		if s.has(key) {
			s.orders[key] = o
		} else {
			s.insert(key, o)
		}
		s.deleted.Remove(uint32(key)) //nolint:gosec // checked above
		s.added.Set(uint32(key))      //nolint:gosec // checked above
	}
	s.nextKey = max(s.nextKey, added.nextKey)
	return nil
}

// Dump describes every order, one per line in key order.
func (s *OrderSet) Dump() string {
	var b strings.Builder
	for _, key := range s.keys {
		fmt.Fprintf(&b, "%d: %s\n", key, s.orders[key])
	}
	return b.String()
}

func (s *OrderSet) Len() int {
	return len(s.keys)
}

func (s *OrderSet) Get(key int) (order.Order, bool) {
	o, ok := s.orders[key]
	return o, ok
}

// Keys returns the live keys in ascending order.
func (s *OrderSet) Keys() []int {
	if len(s.keys) == 0 {
		return nil
	}
	return slices.Clone(s.keys)
}

// NextKey is the key the next issued order will receive.
func (s *OrderSet) NextKey() int {
	return s.nextKey
}

// All iterates over the orders in key order.
func (s *OrderSet) All() iter.Seq2[int, order.Order] {
	return func(yield func(int, order.Order) bool) {
		for _, key := range s.keys {
			if !yield(key, s.orders[key]) {
				return
			}
		}
	}
}

func (s *OrderSet) has(key int) bool {
	_, ok := s.orders[key]
	return ok
}

func (s *OrderSet) insert(key int, o order.Order) {
	assert.That(!s.has(key), "key %d reused", key)
	s.orders[key] = o
	i, _ := slices.BinarySearch(s.keys, key)
	s.keys = slices.Insert(s.keys, i, key)
}

func (s *OrderSet) remove(key int) {
	delete(s.orders, key)
	if i, found := slices.BinarySearch(s.keys, key); found {
		s.keys = slices.Delete(s.keys, i, i+1)
	}
	s.added.Remove(uint32(key)) //nolint:gosec // keys are bounded by MaxKey
	s.deleted.Set(uint32(key))  //nolint:gosec // keys are bounded by MaxKey
}
