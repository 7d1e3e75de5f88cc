package turnsync

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/freeorion/orders/pkg/orderset"
	"github.com/freeorion/orders/pkg/savegame"
	"github.com/freeorion/orders/pkg/universe"
)

// Receiver keeps the server-side copy of every empire's order set for the current turn. Deltas
// are merged without executing anything; execution happens when the turn is processed.
type Receiver struct {
	client  *Client
	gameID  string
	empires []universe.EmpireID // ascending
	log     zerolog.Logger
	tracer  trace.Tracer
	storage savegame.Storage
	now     func() time.Time

	mu        sync.Mutex
	turn      int
	sets      map[universe.EmpireID]*orderset.OrderSet
	lastSeq   map[universe.EmpireID]uint64
	submitted map[universe.EmpireID]bool
	ready     chan struct{} // closed once every empire submitted
	sub       *nats.Subscription
}

type ReceiverOption func(*Receiver)

func WithReceiverLogger(log zerolog.Logger) ReceiverOption {
	return func(r *Receiver) {
		r.log = log
	}
}

func WithReceiverTracer(tracer trace.Tracer) ReceiverOption {
	return func(r *Receiver) {
		r.tracer = tracer
	}
}

// WithReceiverStorage persists each empire's set after every accepted update, so a restarted
// server can pick the turn up again with Restore.
func WithReceiverStorage(s savegame.Storage) ReceiverOption {
	return func(r *Receiver) {
		r.storage = s
	}
}

func NewReceiver(
	client *Client, gameID string, turn int, empires []universe.EmpireID, opts ...ReceiverOption,
) (*Receiver, error) {
	if client == nil || client.Conn == nil {
		return nil, eris.New("client cannot be nil")
	}
	if gameID == "" {
		return nil, eris.New("game id cannot be empty")
	}
	if len(empires) == 0 {
		return nil, eris.New("at least one empire is required")
	}

	r := &Receiver{
		client:    client,
		gameID:    gameID,
		empires:   slices.Clone(empires),
		log:       zerolog.Nop(),
		tracer:    otel.Tracer("turnsync"),
		storage:   savegame.NewNopStorage(),
		now:       time.Now,
		turn:      turn,
		sets:      make(map[universe.EmpireID]*orderset.OrderSet, len(empires)),
		lastSeq:   make(map[universe.EmpireID]uint64, len(empires)),
		submitted: make(map[universe.EmpireID]bool, len(empires)),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	slices.Sort(r.empires)
	if len(slices.Compact(r.empires)) != len(empires) {
		return nil, eris.New("duplicate empire id")
	}
	if r.storage == nil {
		return nil, eris.New("storage cannot be nil")
	}
	for _, e := range r.empires {
		if !universe.ValidEmpireID(e) {
			return nil, eris.Errorf("invalid empire id %d", e)
		}
		r.sets[e] = orderset.New(orderset.WithLogger(r.log.With().Int32("empire_id", int32(e)).Logger()))
	}
	return r, nil
}

// Start subscribes to the order subjects of every empire in the game. Starting a started
// receiver does nothing.
func (r *Receiver) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil
	}
	sub, err := r.client.Subscribe(ordersWildcard(r.gameID), r.handle)
	if err != nil {
		return eris.Wrap(err, "failed to subscribe to order updates")
	}
	if err := r.client.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return eris.Wrap(err, "failed to flush subscription")
	}
	r.sub = sub
	r.log.Info().Str("subject", sub.Subject).Int("turn", r.turn).Msg("receiving orders")
	return nil
}

func (r *Receiver) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub == nil {
		return nil
	}
	err := r.sub.Unsubscribe()
	r.sub = nil
	if err != nil {
		return eris.Wrap(err, "failed to unsubscribe from order updates")
	}
	return nil
}

func (r *Receiver) handle(msg *nats.Msg) {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(msg.Header))
	ctx, span := r.tracer.Start(ctx, "orders.receive",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("nats.subject", msg.Subject)))
	defer span.End()

	turn, err := r.receive(ctx, msg.Data)
	res := ack{Accepted: err == nil, Turn: turn}
	if err != nil {
		res.Error = err.Error()
		span.SetStatus(codes.Error, "rejected")
		span.RecordError(err)
		r.log.Warn().Err(err).Str("subject", msg.Subject).Msg("rejected order update")
	}

	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to marshal update reply")
		return
	}
	if err := msg.Respond(data); err != nil {
		r.log.Warn().Err(err).Str("subject", msg.Subject).Msg("failed to reply to order update")
	}
}

// receive validates and merges one encoded update, returning the receiver's current turn.
func (r *Receiver) receive(ctx context.Context, data []byte) (int, error) {
	u, err := decodeUpdate(data)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		return r.turn, err
	}
	if err := r.validate(u); err != nil {
		return r.turn, err
	}
	if err := r.sets[u.EmpireID].Update(u.Added, u.Deleted); err != nil {
		return r.turn, eris.Wrap(err, "failed to merge update")
	}
	r.lastSeq[u.EmpireID] = u.Seq

	if u.Final != r.submitted[u.EmpireID] {
		r.submitted[u.EmpireID] = u.Final
		r.log.Info().
			Int32("empire_id", int32(u.EmpireID)).
			Int("turn", r.turn).
			Bool("submitted", u.Final).
			Msg("turn orders submitted state changed")
	}
	r.persistLocked(ctx, u)
	r.signalReadyLocked()
	return r.turn, nil
}

func (r *Receiver) signalReadyLocked() {
	if !r.allSubmittedLocked() {
		return
	}
	select {
	case <-r.ready:
	default:
		close(r.ready)
	}
}

// persistLocked stores the merged set. The update stays accepted when storing fails; the next
// update stores the whole set again.
func (r *Receiver) persistLocked(ctx context.Context, u *Update) {
	err := r.storage.Store(ctx, &savegame.Record{
		GameID:   r.gameID,
		EmpireID: u.EmpireID,
		Turn:     r.turn,
		SavedAt:  r.now().UTC(),
		Orders:   r.sets[u.EmpireID],
		Seq:      u.Seq,
		Final:    u.Final,
	})
	if err != nil {
		r.log.Warn().Err(err).Int32("empire_id", int32(u.EmpireID)).Int("turn", r.turn).Msg("failed to persist orders")
	}
}

// Restore loads the sets stored for the current turn, together with the submission state and
// the last accepted sequence number of each empire. Records of other turns are ignored. Restore
// must run before Start and returns the empires it restored.
func (r *Receiver) Restore(ctx context.Context) ([]universe.EmpireID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil, eris.New("cannot restore a started receiver")
	}

	var restored []universe.EmpireID
	for _, e := range r.empires {
		rec, err := r.storage.Load(ctx, r.gameID, e)
		if errors.Is(err, savegame.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return restored, eris.Wrapf(err, "failed to load orders of empire %d", e)
		}
		if rec.Turn != r.turn {
			r.log.Debug().Int32("empire_id", int32(e)).Int("saved_turn", rec.Turn).Msg("skipping orders of another turn")
			continue
		}
		for key, o := range rec.Orders.All() {
			if o.EmpireID() != e {
				return restored, eris.Wrapf(ErrForeignOrder, "stored order %d issued by empire %d", key, o.EmpireID())
			}
		}

		set := orderset.New(orderset.WithLogger(r.log.With().Int32("empire_id", int32(e)).Logger()))
		if err := set.Update(rec.Orders, nil); err != nil {
			return restored, eris.Wrapf(err, "failed to restore orders of empire %d", e)
		}
		r.sets[e] = set
		r.lastSeq[e] = rec.Seq
		r.submitted[e] = rec.Final
		restored = append(restored, e)
		r.log.Info().
			Int32("empire_id", int32(e)).
			Int("turn", r.turn).
			Int("orders", set.Len()).
			Bool("submitted", rec.Final).
			Msg("restored orders")
	}
	r.signalReadyLocked()
	return restored, nil
}

func (r *Receiver) validate(u *Update) error {
	if u.GameID != r.gameID {
		return eris.Wrapf(ErrWrongGame, "got %q", u.GameID)
	}
	set, ok := r.sets[u.EmpireID]
	if !ok || set == nil {
		return eris.Wrapf(ErrUnknownEmpire, "empire %d", u.EmpireID)
	}
	if u.Turn != r.turn {
		return eris.Wrapf(ErrWrongTurn, "update turn %d, current turn %d", u.Turn, r.turn)
	}
	if u.Seq <= r.lastSeq[u.EmpireID] {
		return eris.Wrapf(ErrStaleUpdate, "seq %d, last seq %d", u.Seq, r.lastSeq[u.EmpireID])
	}
	for _, key := range u.Deleted {
		if !orderset.ValidKey(key) {
			return eris.Wrapf(ErrInvalidKey, "deleted key %d", key)
		}
	}
	if u.Added != nil {
		for key, o := range u.Added.All() {
			if !orderset.ValidKey(key) {
				return eris.Wrapf(ErrInvalidKey, "added key %d", key)
			}
			if o.EmpireID() != u.EmpireID {
				return eris.Wrapf(ErrForeignOrder, "order %d issued by empire %d", key, o.EmpireID())
			}
		}
	}
	return nil
}

func (r *Receiver) allSubmittedLocked() bool {
	for _, e := range r.empires {
		if !r.submitted[e] {
			return false
		}
	}
	return true
}

// AllSubmitted returns a channel closed once every empire has submitted its orders for the
// current turn. A new channel is handed out after each processed turn.
func (r *Receiver) AllSubmitted() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Submitted lists the empires that have submitted for the current turn, ascending.
func (r *Receiver) Submitted() []universe.EmpireID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []universe.EmpireID
	for _, e := range r.empires {
		if r.submitted[e] {
			out = append(out, e)
		}
	}
	return out
}

func (r *Receiver) Turn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn
}

// Orders returns a description of the orders the receiver holds for empire.
func (r *Receiver) Orders(empire universe.EmpireID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[empire]
	if !ok {
		return "", false
	}
	return set.Dump(), true
}

// endTurn runs fn over every empire's set while holding the lock, then clears the sets and the
// submission state and moves to the next turn. Updates arriving meanwhile wait and are then
// checked against the new turn. Nothing changes when fn fails.
func (r *Receiver) endTurn(
	fn func(turn int, empires []universe.EmpireID, sets map[universe.EmpireID]*orderset.OrderSet) error,
) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := fn(r.turn, r.empires, r.sets); err != nil {
		return r.turn, err
	}

	for _, set := range r.sets {
		set.Reset()
	}
	clear(r.submitted)
	r.ready = make(chan struct{})
	r.turn++
	return r.turn, nil
}
