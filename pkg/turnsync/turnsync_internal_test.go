package turnsync

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeorion/orders/pkg/order"
	"github.com/freeorion/orders/pkg/orderset"
	"github.com/freeorion/orders/pkg/savegame"
	"github.com/freeorion/orders/pkg/testutils"
	"github.com/freeorion/orders/pkg/universe"
)

const (
	e1 = testutils.Empire1
	e2 = testutils.Empire2
)

var bothEmpires = []universe.EmpireID{e1, e2}

type game struct {
	id        string
	gs        *universe.Context
	server    *Client
	receiver  *Receiver
	processor *Processor
}

func newGame(t *testing.T, opts ...ProcessorOption) *game {
	t.Helper()
	g := &game{id: newGameID(), gs: testutils.Galaxy(t), server: newTestClient(t, "server")}

	var err error
	g.receiver, err = NewReceiver(g.server, g.id, g.gs.CurrentTurn, bothEmpires,
		WithReceiverLogger(zerolog.New(zerolog.NewTestWriter(t))))
	require.NoError(t, err)
	g.processor, err = NewProcessor(g.gs, g.receiver, opts...)
	require.NoError(t, err)
	return g
}

func (g *game) start(t *testing.T) {
	t.Helper()
	require.NoError(t, g.receiver.Start())
	t.Cleanup(func() { _ = g.receiver.Stop() })
}

func newPublisher(t *testing.T, gameID string, empire universe.EmpireID) *Publisher {
	t.Helper()
	p, err := NewPublisher(newTestClient(t, "player"), gameID, empire, WithRequestTimeout(time.Second))
	require.NoError(t, err)
	return p
}

func issue(t *testing.T, gs *universe.Context, set *orderset.OrderSet, o order.Order) int {
	t.Helper()
	key, err := set.IssueOrder(gs, o)
	require.NoError(t, err)
	return key
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for channel")
	}
}

func TestPublishReceiveProcess(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), DB: 0})
	t.Cleanup(func() { _ = rdb.Close() })
	storage := savegame.NewRedisStorage(rdb, 0)

	g := newGame(t, WithStorage(storage))
	g.start(t)
	startTurn := g.gs.CurrentTurn
	ctx := context.Background()

	announced := make(chan TurnAdvanced, 1)
	sub, err := g.server.WatchTurns(g.id, func(ta TurnAdvanced) { announced <- ta })
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	// Player 1 works on a local copy of the game and syncs twice.
	local1 := g.gs.Clone()
	set1 := orderset.New()
	issue(t, local1, set1, order.NewRename(e1, testutils.HomeFleet, "Armada"))
	focus := issue(t, local1, set1, order.NewChangeFocus(e1, testutils.HomePlanet, "FOCUS_RESEARCH"))
	issue(t, local1, set1, order.NewFleetMove(e1, testutils.TroopFleet, testutils.EnemySystem))

	pub1 := newPublisher(t, g.id, e1)
	u, err := pub1.Publish(ctx, startTurn, set1, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u.Seq)
	assert.Equal(t, 3, u.Added.Len())

	require.True(t, set1.RescindOrder(local1, focus))
	issue(t, local1, set1, order.NewResearchEnqueue(e1, "LRN_PHYS_BRAIN", 0))
	u, err = pub1.Publish(ctx, startTurn, set1, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), u.Seq)
	assert.Equal(t, []int{3}, u.Added.Keys())
	assert.Equal(t, []int{focus}, u.Deleted)
	assert.Equal(t, []universe.EmpireID{e1}, g.receiver.Submitted())

	dump, ok := g.receiver.Orders(e1)
	require.True(t, ok)
	assert.Len(t, strings.Split(strings.TrimSpace(dump), "\n"), 3)

	// Player 2 submits in one go.
	local2 := g.gs.Clone()
	set2 := orderset.New()
	issue(t, local2, set2, order.NewAggression(e2, testutils.EnemyFleet, universe.FleetPassive))
	_, err = newPublisher(t, g.id, e2).Publish(ctx, startTurn, set2, true)
	require.NoError(t, err)

	waitClosed(t, g.receiver.AllSubmitted())

	result, err := g.processor.ProcessTurn(ctx)
	require.NoError(t, err)
	assert.Equal(t, startTurn, result.Turn)
	assert.Equal(t, 4, result.Summary.Executed)
	assert.Equal(t, 0, result.Summary.Failed)
	assert.Equal(t, 3, result.PerEmpire[e1].Executed)
	assert.Equal(t, 1, result.PerEmpire[e2].Executed)
	assert.Empty(t, result.SaveErrs)

	// The authoritative state now matches what the players saw locally.
	fleet, err := g.gs.Universe.Fleet(testutils.HomeFleet)
	require.NoError(t, err)
	assert.Equal(t, "Armada", fleet.Name)
	planet, err := g.gs.Universe.Planet(testutils.HomePlanet)
	require.NoError(t, err)
	assert.Equal(t, "FOCUS_INDUSTRY", planet.Focus)
	enemy, err := g.gs.Universe.Fleet(testutils.EnemyFleet)
	require.NoError(t, err)
	assert.Equal(t, universe.FleetPassive, enemy.Aggression)

	assert.Equal(t, startTurn+1, g.gs.CurrentTurn)
	assert.Equal(t, startTurn+1, g.receiver.Turn())
	assert.Empty(t, g.receiver.Submitted())
	dump, _ = g.receiver.Orders(e1)
	assert.Empty(t, dump)

	select {
	case ta := <-announced:
		assert.Equal(t, TurnAdvanced{GameID: g.id, Turn: startTurn + 1, Executed: 4, Failed: 0}, ta)
	case <-time.After(5 * time.Second):
		t.Fatal("no turn announcement")
	}

	rec, err := storage.Load(ctx, g.id, e1)
	require.NoError(t, err)
	assert.Equal(t, startTurn, rec.Turn)
	assert.Equal(t, "alice", rec.PlayerName)
	assert.Equal(t, []int{0, 2, 3}, rec.Orders.Keys())
}

func TestReceiver_Rejects(t *testing.T) {
	t.Parallel()
	g := newGame(t)
	g.start(t)
	turn := g.gs.CurrentTurn
	ctx := context.Background()
	player := newTestClient(t, "raw")

	send := func(subjectEmpire universe.EmpireID, u *Update) error {
		p := &Publisher{client: player, gameID: g.id, empire: subjectEmpire, timeout: time.Second, log: zerolog.Nop()}
		return p.send(ctx, u)
	}
	update := func(mod func(u *Update)) *Update {
		u := &Update{ID: uuid.New(), GameID: g.id, EmpireID: e1, Turn: turn, Seq: 1, Added: orderset.New()}
		mod(u)
		return u
	}

	require.NoError(t, send(e1, update(func(*Update) {})))

	foreign := orderset.New()
	issue(t, g.gs.Clone(), foreign, order.NewAggression(e2, testutils.EnemyFleet, universe.FleetPassive))

	tests := []struct {
		name   string
		update *Update
		reason error
	}{
		{"stale seq", update(func(*Update) {}), ErrStaleUpdate},
		{"wrong turn", update(func(u *Update) { u.Seq = 5; u.Turn = turn + 1 }), ErrWrongTurn},
		{"wrong game", update(func(u *Update) { u.Seq = 5; u.GameID = "other" }), ErrWrongGame},
		{"unknown empire", update(func(u *Update) { u.EmpireID = 9 }), ErrUnknownEmpire},
		{"foreign order", update(func(u *Update) { u.Seq = 5; u.Added = foreign }), ErrForeignOrder},
		{"negative deleted key", update(func(u *Update) { u.Seq = 5; u.Deleted = []int{-1} }), ErrInvalidKey},
		{"huge deleted key", update(func(u *Update) { u.Seq = 5; u.Deleted = []int{4_000_000_000} }), ErrInvalidKey},
	}
	for _, tc := range tests {
		err := send(tc.update.EmpireID, tc.update)
		require.ErrorIs(t, err, ErrRejected, tc.name)
		if tc.reason != nil {
			assert.Contains(t, err.Error(), tc.reason.Error(), tc.name)
		}
	}

	// Rejected updates leave no trace.
	dump, _ := g.receiver.Orders(e1)
	assert.Empty(t, dump)
	assert.Empty(t, g.receiver.Submitted())
}

func TestReceiver_RejectsOutOfRangeAddedKey(t *testing.T) {
	t.Parallel()
	g := newGame(t)
	g.start(t)
	player := newTestClient(t, "raw")

	encoded, err := order.Encode(order.NewRename(e1, testutils.HomeFleet, "Armada"))
	require.NoError(t, err)
	for _, key := range []string{"4000000000", "4294967301"} {
		body := `{"id":"` + uuid.NewString() + `","game_id":"` + g.id + `","empire_id":1,"turn":` +
			strconv.Itoa(g.gs.CurrentTurn) + `,"seq":1,"added":{"next_key":0,"orders":[{"key":` + key +
			`,"order":` + string(encoded) + `}]},"deleted":[],"final":true}`

		reply, err := player.Request(OrdersSubject(g.id, e1), []byte(body), time.Second)
		require.NoError(t, err)
		var res ack
		require.NoError(t, json.Unmarshal(reply.Data, &res))
		assert.False(t, res.Accepted, key)
		assert.NotEmpty(t, res.Error, key)
	}

	dump, _ := g.receiver.Orders(e1)
	assert.Empty(t, dump)
	assert.Empty(t, g.receiver.Submitted())
}

func TestReceiver_UnsubmitBeforeEveryoneIsReady(t *testing.T) {
	t.Parallel()
	g := newGame(t)
	g.start(t)
	turn := g.gs.CurrentTurn
	ctx := context.Background()

	pub := newPublisher(t, g.id, e1)
	_, err := pub.Publish(ctx, turn, orderset.New(), true)
	require.NoError(t, err)
	assert.Equal(t, []universe.EmpireID{e1}, g.receiver.Submitted())

	_, err = pub.Publish(ctx, turn, orderset.New(), false)
	require.NoError(t, err)
	assert.Empty(t, g.receiver.Submitted())

	select {
	case <-g.receiver.AllSubmitted():
		t.Fatal("turn ready without every empire")
	default:
	}
}

func TestPublisher_KeepsChangesOnFailure(t *testing.T) {
	t.Parallel()
	g := newGame(t)
	turn := g.gs.CurrentTurn
	ctx := context.Background()

	local := g.gs.Clone()
	set := orderset.New()
	issue(t, local, set, order.NewRename(e1, testutils.HomeFleet, "Armada"))
	scrap := issue(t, local, set, order.NewScrap(e1, testutils.Shipyard))

	// Nobody listens yet.
	pub := newPublisher(t, g.id, e1)
	_, err := pub.Publish(ctx, turn, set, false)
	require.Error(t, err)
	assert.True(t, pub.Pending())

	require.True(t, set.RescindOrder(local, scrap))
	issue(t, local, set, order.NewAggression(e1, testutils.PicketFleet, universe.FleetPassive))

	g.start(t)
	u, err := pub.Publish(ctx, turn, set, false)
	require.NoError(t, err)
	assert.False(t, pub.Pending())
	assert.Equal(t, uint64(1), u.Seq)
	assert.Equal(t, []int{0, 2}, u.Added.Keys())
	assert.Equal(t, []int{scrap}, u.Deleted)

	dump, _ := g.receiver.Orders(e1)
	lines := strings.Split(strings.TrimSpace(dump), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "0: Rename"))
	assert.True(t, strings.HasPrefix(lines[1], "2: Aggression"))
}

func TestPublisher_DropsChangesOfEarlierTurn(t *testing.T) {
	t.Parallel()
	g := newGame(t)
	turn := g.gs.CurrentTurn
	ctx := context.Background()

	local := g.gs.Clone()
	set := orderset.New()
	issue(t, local, set, order.NewRename(e1, testutils.HomeFleet, "Armada"))

	pub := newPublisher(t, g.id, e1)
	_, err := pub.Publish(ctx, turn-1, set, false)
	require.Error(t, err)

	g.start(t)
	u, err := pub.Publish(ctx, turn, orderset.New(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Added.Len())
	assert.Empty(t, u.Deleted)
}

type failingStorage struct{}

func (failingStorage) Store(context.Context, *savegame.Record) error {
	return eris.New("disk full")
}

func (failingStorage) Load(context.Context, string, universe.EmpireID) (*savegame.Record, error) {
	return nil, savegame.ErrRecordNotFound
}

func TestProcessTurn_Failures(t *testing.T) {
	t.Parallel()
	g := newGame(t, WithStorage(failingStorage{}))
	g.start(t)
	turn := g.gs.CurrentTurn
	ctx := context.Background()

	// An order that succeeded locally fails on the server because player 2 got there first.
	local := g.gs.Clone()
	set := orderset.New()
	issue(t, local, set, order.NewInvade(e1, testutils.TroopShip, testutils.EnemyOutpost))
	_, err := newPublisher(t, g.id, e1).Publish(ctx, turn, set, true)
	require.NoError(t, err)

	outpost, err := g.gs.Universe.Planet(testutils.EnemyOutpost)
	require.NoError(t, err)
	outpost.Shield = 10

	result, err := g.processor.ProcessTurn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Failed)
	require.Len(t, result.Summary.Failures, 1)
	assert.Equal(t, order.FailurePrecondition, result.Summary.Failures[0].Reason)
	assert.Len(t, result.SaveErrs, 2)
	assert.Equal(t, turn+1, g.gs.CurrentTurn)

	// A game state that moved on without the receiver is refused and nothing changes.
	g.gs.CurrentTurn += 5
	_, err = g.processor.ProcessTurn(ctx)
	require.Error(t, err)
	assert.Equal(t, turn+1, g.receiver.Turn())
}

func TestServer_Run(t *testing.T) {
	t.Parallel()
	g := newGame(t)
	g.start(t)
	turn := g.gs.CurrentTurn

	announced := make(chan TurnAdvanced, 4)
	sub, err := g.server.WatchTurns(g.id, func(ta TurnAdvanced) { announced <- ta })
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	srv, err := NewServer(g.receiver, g.processor, 0, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	for _, empire := range bothEmpires {
		_, err := newPublisher(t, g.id, empire).Publish(ctx, turn, orderset.New(), true)
		require.NoError(t, err)
	}

	select {
	case ta := <-announced:
		assert.Equal(t, turn+1, ta.Turn)
	case <-time.After(5 * time.Second):
		t.Fatal("turn was not processed")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_TurnTimeout(t *testing.T) {
	t.Parallel()
	g := newGame(t)
	turn := g.gs.CurrentTurn

	announced := make(chan TurnAdvanced, 4)
	sub, err := g.server.WatchTurns(g.id, func(ta TurnAdvanced) { announced <- ta })
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	srv, err := NewServer(g.receiver, g.processor, 50*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Run(ctx) }()

	select {
	case ta := <-announced:
		assert.Equal(t, turn+1, ta.Turn)
	case <-time.After(5 * time.Second):
		t.Fatal("turn did not time out")
	}
}

func TestNewServer_Invalid(t *testing.T) {
	t.Parallel()
	g := newGame(t)
	other := newGame(t)

	_, err := NewServer(nil, g.processor, 0, zerolog.Nop())
	require.Error(t, err)
	_, err = NewServer(g.receiver, other.processor, 0, zerolog.Nop())
	require.Error(t, err)
	_, err = NewServer(g.receiver, g.processor, -time.Second, zerolog.Nop())
	require.Error(t, err)
}

func TestNewReceiver_Invalid(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "r")
	_, err := NewReceiver(c, "", 1, bothEmpires)
	require.Error(t, err)
	_, err = NewReceiver(c, "g", 1, nil)
	require.Error(t, err)
	_, err = NewReceiver(c, "g", 1, []universe.EmpireID{1, 1})
	require.Error(t, err)
	_, err = NewReceiver(nil, "g", 1, bothEmpires)
	require.Error(t, err)
	_, err = NewReceiver(c, "g", 1, []universe.EmpireID{universe.NoEmpire})
	require.Error(t, err)
	_, err = NewReceiver(c, "g", 1, []universe.EmpireID{e1, universe.MaxEmpireID + 1})
	require.Error(t, err)
	_, err = NewReceiver(c, "g", 1, bothEmpires, WithReceiverStorage(nil))
	require.Error(t, err)
}

func TestReceiver_RestoresPersistedTurn(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), DB: 0})
	t.Cleanup(func() { _ = rdb.Close() })
	storage := savegame.NewRedisStorage(rdb, 0)

	gameID := newGameID()
	gs := testutils.Galaxy(t)
	turn := gs.CurrentTurn
	ctx := context.Background()

	newReceiver := func(turn int) *Receiver {
		r, err := NewReceiver(newTestClient(t, "server"), gameID, turn, bothEmpires,
			WithReceiverStorage(storage))
		require.NoError(t, err)
		return r
	}

	first := newReceiver(turn)
	require.NoError(t, first.Start())

	local1 := gs.Clone()
	set1 := orderset.New()
	issue(t, local1, set1, order.NewRename(e1, testutils.HomeFleet, "Armada"))
	issue(t, local1, set1, order.NewChangeFocus(e1, testutils.HomePlanet, "FOCUS_RESEARCH"))
	pub1 := newPublisher(t, gameID, e1)
	_, err := pub1.Publish(ctx, turn, set1, true)
	require.NoError(t, err)

	local2 := gs.Clone()
	set2 := orderset.New()
	issue(t, local2, set2, order.NewRename(e2, testutils.EnemyFleet, "Swarm"))
	pub2 := newPublisher(t, gameID, e2)
	_, err = pub2.Publish(ctx, turn, set2, false)
	require.NoError(t, err)

	want1, _ := first.Orders(e1)
	want2, _ := first.Orders(e2)
	require.NoError(t, first.Stop())

	// A restarted server picks the turn up where the first one stopped.
	second := newReceiver(turn)
	restored, err := second.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, bothEmpires, restored)
	assert.Equal(t, []universe.EmpireID{e1}, second.Submitted())
	got1, _ := second.Orders(e1)
	got2, _ := second.Orders(e2)
	assert.Equal(t, want1, got1)
	assert.Equal(t, want2, got2)

	require.NoError(t, second.Start())
	t.Cleanup(func() { _ = second.Stop() })
	_, err = second.Restore(ctx)
	require.Error(t, err, "restore after start")

	// Sequence numbers carry over, so player 2 just keeps publishing.
	_, err = pub2.Publish(ctx, turn, set2, true)
	require.NoError(t, err)
	waitClosed(t, second.AllSubmitted())

	// Records of an earlier turn are not picked up.
	later := newReceiver(turn + 1)
	restored, err = later.Restore(ctx)
	require.NoError(t, err)
	assert.Empty(t, restored)
	assert.Empty(t, later.Submitted())
}

func TestReceiver_AcceptsWhenPersistFails(t *testing.T) {
	t.Parallel()
	gameID := newGameID()
	gs := testutils.Galaxy(t)

	r, err := NewReceiver(newTestClient(t, "server"), gameID, gs.CurrentTurn, []universe.EmpireID{e1},
		WithReceiverStorage(failingStorage{}))
	require.NoError(t, err)
	require.NoError(t, r.Start())
	t.Cleanup(func() { _ = r.Stop() })

	set := orderset.New()
	issue(t, gs.Clone(), set, order.NewRename(e1, testutils.HomeFleet, "Armada"))
	_, err = newPublisher(t, gameID, e1).Publish(context.Background(), gs.CurrentTurn, set, true)
	require.NoError(t, err)
	waitClosed(t, r.AllSubmitted())

	restored, err := r.Restore(context.Background())
	require.Error(t, err, "started receiver")
	assert.Empty(t, restored)
}
