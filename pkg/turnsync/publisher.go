package turnsync

import (
	"context"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/freeorion/orders/pkg/orderset"
	"github.com/freeorion/orders/pkg/universe"
)

const defaultRequestTimeout = 5 * time.Second

// Publisher sends one empire's order deltas to the turn server. Changes of a failed publish are
// kept and merged into the next one. A Publisher is not safe for concurrent use.
type Publisher struct {
	client  *Client
	gameID  string
	empire  universe.EmpireID
	seq     uint64
	timeout time.Duration
	log     zerolog.Logger

	pendingTurn    int
	pendingAdded   *orderset.OrderSet
	pendingDeleted []int // ascending
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(log zerolog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.log = log
	}
}

// WithRequestTimeout bounds each publish when the caller's context has no deadline.
func WithRequestTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.timeout = d
	}
}

func NewPublisher(client *Client, gameID string, empire universe.EmpireID, opts ...PublisherOption) (*Publisher, error) {
	if client == nil || client.Conn == nil {
		return nil, eris.New("client cannot be nil")
	}
	if gameID == "" {
		return nil, eris.New("game id cannot be empty")
	}
	if !universe.ValidEmpireID(empire) {
		return nil, eris.Errorf("invalid empire id %d", empire)
	}
	p := &Publisher{
		client:  client,
		gameID:  gameID,
		empire:  empire,
		timeout: defaultRequestTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeout <= 0 {
		return nil, eris.New("request timeout must be positive")
	}
	return p, nil
}

// Publish extracts the changes of set and sends them, together with any changes a previous
// failed publish left behind. It returns the update once the server accepted it.
func (p *Publisher) Publish(ctx context.Context, turn int, set *orderset.OrderSet, final bool) (*Update, error) {
	if p.pendingAdded != nil && p.pendingTurn != turn {
		// Keys restart every turn, so leftovers of an earlier turn cannot be merged.
		p.log.Warn().
			Int("pending_turn", p.pendingTurn).
			Int("turn", turn).
			Msg("dropping unsent orders of an earlier turn")
		p.pendingAdded = nil
		p.pendingDeleted = nil
	}
	p.pendingTurn = turn

	added, deleted := set.ExtractChanges()
	if err := p.merge(added, deleted); err != nil {
		return nil, err
	}

	u := &Update{
		ID:       uuid.New(),
		GameID:   p.gameID,
		EmpireID: p.empire,
		Turn:     turn,
		Seq:      p.seq + 1,
		Added:    p.pendingAdded,
		Deleted:  p.pendingDeleted,
		Final:    final,
	}
	if err := p.send(ctx, u); err != nil {
		p.log.Warn().
			Err(err).
			Stringer("update_id", u.ID).
			Uint64("seq", u.Seq).
			Int("pending_added", u.Added.Len()).
			Int("pending_deleted", len(u.Deleted)).
			Msg("failed to publish orders, keeping changes for the next publish")
		return nil, err
	}

	p.seq = u.Seq
	p.pendingAdded = nil
	p.pendingDeleted = nil
	p.log.Debug().
		Stringer("update_id", u.ID).
		Uint64("seq", u.Seq).
		Int("turn", turn).
		Int("added", u.Added.Len()).
		Int("deleted", len(u.Deleted)).
		Bool("final", final).
		Msg("published orders")
	return u, nil
}

// Pending reports whether changes from a failed publish are waiting to be sent.
func (p *Publisher) Pending() bool {
	return p.pendingAdded != nil && (p.pendingAdded.Len() > 0 || len(p.pendingDeleted) > 0)
}

func (p *Publisher) merge(added *orderset.OrderSet, deleted []int) error {
	if p.pendingAdded == nil {
		p.pendingAdded = orderset.New()
	}
	if err := p.pendingAdded.Update(added, deleted); err != nil {
		return eris.Wrap(err, "failed to merge order changes")
	}
	for _, key := range deleted {
		if i, found := slices.BinarySearch(p.pendingDeleted, key); !found {
			p.pendingDeleted = slices.Insert(p.pendingDeleted, i, key)
		}
	}
	p.pendingDeleted = slices.DeleteFunc(p.pendingDeleted, func(key int) bool {
		_, ok := added.Get(key)
		return ok
	})
	return nil
}

func (p *Publisher) send(ctx context.Context, u *Update) error {
	data, err := u.encode()
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg := nats.NewMsg(OrdersSubject(p.gameID, p.empire))
	msg.Data = data
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	reply, err := p.client.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return eris.Wrap(err, "failed to send update")
	}

	var res ack
	if err := json.Unmarshal(reply.Data, &res); err != nil {
		return eris.Wrap(err, "failed to unmarshal update reply")
	}
	if !res.Accepted {
		return eris.Wrapf(ErrRejected, "turn %d: %s", res.Turn, res.Error)
	}
	return nil
}

// WatchTurns calls fn with every TurnAdvanced announcement for the game until the returned
// subscription is unsubscribed.
func (c *Client) WatchTurns(gameID string, fn func(TurnAdvanced)) (*nats.Subscription, error) {
	sub, err := c.Subscribe(TurnSubject(gameID), func(msg *nats.Msg) {
		var t TurnAdvanced
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			c.log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed turn announcement")
			return
		}
		fn(t)
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to subscribe to turn announcements")
	}
	return sub, nil
}
