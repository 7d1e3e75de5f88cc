package turnsync

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/freeorion/orders/pkg/orderset"
	"github.com/freeorion/orders/pkg/savegame"
	"github.com/freeorion/orders/pkg/statsd"
	"github.com/freeorion/orders/pkg/universe"
)

// Processor replays the orders the receiver collected against the authoritative game state.
type Processor struct {
	gs       *universe.Context
	receiver *Receiver
	storage  savegame.Storage
	log      zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

type ProcessorOption func(*Processor)

func WithProcessorLogger(log zerolog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.log = log
	}
}

func WithProcessorTracer(tracer trace.Tracer) ProcessorOption {
	return func(p *Processor) {
		p.tracer = tracer
	}
}

// WithStorage saves every empire's orders after replay. The default discards them.
func WithStorage(s savegame.Storage) ProcessorOption {
	return func(p *Processor) {
		p.storage = s
	}
}

func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		p.now = now
	}
}

func NewProcessor(gs *universe.Context, receiver *Receiver, opts ...ProcessorOption) (*Processor, error) {
	if gs == nil {
		return nil, eris.New("game state cannot be nil")
	}
	if receiver == nil {
		return nil, eris.New("receiver cannot be nil")
	}
	if receiver.Turn() != gs.CurrentTurn {
		return nil, eris.Errorf("receiver turn %d does not match game turn %d", receiver.Turn(), gs.CurrentTurn)
	}
	p := &Processor{
		gs:       gs,
		receiver: receiver,
		storage:  savegame.NewNopStorage(),
		log:      zerolog.Nop(),
		tracer:   otel.Tracer("turnsync"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// TurnResult describes one processed turn.
type TurnResult struct {
	Turn      int // the turn that was processed
	Summary   orderset.Summary
	PerEmpire map[universe.EmpireID]orderset.Summary
	SaveErrs  map[universe.EmpireID]error
}

// ProcessTurn replays every empire's orders in ascending empire order, saves them, clears the
// sets and advances the game to the next turn. Failing orders never stop the replay. The new turn
// is announced on TurnSubject.
func (p *Processor) ProcessTurn(ctx context.Context) (*TurnResult, error) {
	start := p.now()
	ctx, span := p.tracer.Start(ctx, "turn.process", trace.WithAttributes(
		attribute.String("game_id", p.receiver.gameID),
		attribute.Int("turn", p.gs.CurrentTurn),
	))
	defer span.End()

	result := &TurnResult{
		PerEmpire: make(map[universe.EmpireID]orderset.Summary),
		SaveErrs:  make(map[universe.EmpireID]error),
	}
	gameTags := []string{"game:" + p.receiver.gameID}

	next, err := p.receiver.endTurn(func(
		turn int, empires []universe.EmpireID, sets map[universe.EmpireID]*orderset.OrderSet,
	) error {
		if turn != p.gs.CurrentTurn {
			return eris.Errorf("receiver turn %d does not match game turn %d", turn, p.gs.CurrentTurn)
		}
		result.Turn = turn
		result.Summary.Turn = turn

		for _, empire := range empires {
			summary := p.apply(ctx, empire, sets[empire])
			result.PerEmpire[empire] = summary
			result.Summary.Add(summary)
			statsd.EmitReplayStats(summary.Executed, summary.AlreadyExecuted, summary.Failed,
				append([]string{fmt.Sprintf("empire:%d", empire)}, gameTags...))

			if err := p.save(ctx, turn, empire, sets[empire]); err != nil {
				result.SaveErrs[empire] = err
				p.log.Warn().Err(err).Int32("empire_id", int32(empire)).Int("turn", turn).Msg("failed to save orders")
			}
		}
		p.gs.CurrentTurn++
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, "turn mismatch")
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("orders.executed", result.Summary.Executed),
		attribute.Int("orders.failed", result.Summary.Failed),
	)
	statsd.EmitTurnStat(start, gameTags)
	p.log.Info().
		Int("turn", result.Turn).
		Int("next_turn", next).
		Int("executed", result.Summary.Executed).
		Int("failed", result.Summary.Failed).
		Dur("duration", p.now().Sub(start)).
		Msg("processed turn")

	p.announce(TurnAdvanced{
		GameID:   p.receiver.gameID,
		Turn:     next,
		Executed: result.Summary.Executed,
		Failed:   result.Summary.Failed,
	})
	return result, nil
}

func (p *Processor) apply(ctx context.Context, empire universe.EmpireID, set *orderset.OrderSet) orderset.Summary {
	_, span := p.tracer.Start(ctx, "orders.apply", trace.WithAttributes(
		attribute.Int("empire_id", int(empire)),
		attribute.Int("orders", set.Len()),
	))
	defer span.End()

	summary := set.ApplyOrders(p.gs)
	if summary.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d orders failed", summary.Failed))
	}
	return summary
}

func (p *Processor) save(ctx context.Context, turn int, empire universe.EmpireID, set *orderset.OrderSet) error {
	player := ""
	if e, err := p.gs.Empires.Get(empire); err == nil {
		player = e.PlayerName
	}
	return p.storage.Store(ctx, &savegame.Record{
		GameID:     p.receiver.gameID,
		EmpireID:   empire,
		PlayerName: player,
		Turn:       turn,
		SavedAt:    p.now().UTC(),
		Orders:     set,
	})
}

func (p *Processor) announce(t TurnAdvanced) {
	data, err := json.Marshal(t)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to marshal turn announcement")
		return
	}
	if err := p.receiver.client.Publish(TurnSubject(t.GameID), data); err != nil {
		p.log.Warn().Err(err).Int("turn", t.Turn).Msg("failed to announce turn")
	}
}
