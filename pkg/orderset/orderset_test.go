package orderset_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gotest "gotest.tools/v3/assert"

	"github.com/freeorion/orders/pkg/order"
	"github.com/freeorion/orders/pkg/orderset"
	"github.com/freeorion/orders/pkg/testutils"
	"github.com/freeorion/orders/pkg/universe"
)

const e1 = testutils.Empire1

func assertSameState(t *testing.T, want, got *universe.Context) {
	t.Helper()
	gotest.DeepEqual(t, want.Universe, got.Universe)
	gotest.DeepEqual(t, want.Empires, got.Empires)
}

// validOrders are independent orders that all succeed against the galaxy fixture in any order.
func validOrders() []order.Order {
	return []order.Order{
		order.NewRename(e1, testutils.HomeFleet, "Armada"),
		order.NewChangeFocus(e1, testutils.HomePlanet, "FOCUS_RESEARCH"),
		order.NewAggression(e1, testutils.PicketFleet, universe.FleetPassive),
		order.NewResearchEnqueue(e1, "LRN_PHYS_BRAIN", 0),
		order.NewProductionPause(e1, 2, true),
		order.NewScrap(e1, testutils.Shipyard),
		order.NewFleetMove(e1, testutils.TroopFleet, testutils.EnemySystem),
	}
}

func failingOrder() order.Order {
	return order.NewInvade(e1, testutils.TroopShip, testutils.ShieldedPlanet)
}

func TestIssueOrder(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)
	s := orderset.New()

	for i, o := range validOrders()[:3] {
		key, err := s.IssueOrder(gs, o)
		require.NoError(t, err)
		assert.Equal(t, i, key)
		assert.True(t, o.Executed())
	}

	// A failing order is kept, unexecuted, under its key.
	bad := failingOrder()
	key, err := s.IssueOrder(gs, bad)
	require.ErrorIs(t, err, order.ErrPrecondition)
	assert.Equal(t, 3, key)
	got, ok := s.Get(key)
	require.True(t, ok)
	assert.Same(t, bad, got)
	assert.False(t, got.Executed())

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []int{0, 1, 2, 3}, s.Keys())

	lines := strings.Split(strings.TrimSpace(s.Dump()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "0: Rename empire=1 object=201"))
	assert.True(t, strings.HasSuffix(lines[0], "[executed]"))
	assert.True(t, strings.HasPrefix(lines[3], "3: Invade"))
	assert.False(t, strings.HasSuffix(lines[3], "[executed]"))

	_, err = s.IssueOrder(gs, nil)
	require.Error(t, err)
	assert.Equal(t, 4, s.Len())
}

func TestIssueOrder_LogsFailure(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)

	var buf bytes.Buffer
	s := orderset.New(orderset.WithLogger(zerolog.New(&buf)))
	_, err := s.IssueOrder(gs, failingOrder())
	require.Error(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "order failed to execute", entry["message"])
	assert.InDelta(t, 0, entry["order_key"], 0)
	assert.Equal(t, "invade", entry["order_kind"])
	assert.Equal(t, "precondition", entry["failure"])
}

func TestKeysNeverReused(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)
	s := orderset.New()

	for _, focus := range []string{"FOCUS_RESEARCH", "FOCUS_INFLUENCE", "FOCUS_INDUSTRY"} {
		_, err := s.IssueOrder(gs, order.NewChangeFocus(e1, testutils.HomePlanet, focus))
		require.NoError(t, err)
	}

	// Rescinding the largest key must not hand it out again.
	require.True(t, s.RescindOrder(gs, 2))
	key, err := s.IssueOrder(gs, order.NewScrap(e1, testutils.Warship))
	require.NoError(t, err)
	assert.Equal(t, 3, key)
	assert.Equal(t, []int{0, 1, 3}, s.Keys())

	s.Reset()
	assert.Equal(t, 0, s.Len())
	key, err = s.IssueOrder(gs, order.NewScrap(e1, testutils.PicketShip))
	require.NoError(t, err)
	assert.Equal(t, 0, key, "keys restart on a new turn")
}

func TestRescindOrder(t *testing.T) {
	t.Parallel()

	reversible := []func() order.Order{
		func() order.Order {
			return order.NewCreateFleet(e1, "Strike", universe.FleetAggressive, testutils.Warship, testutils.PicketShip)
		},
		func() order.Order { return order.NewFleetMove(e1, testutils.HomeFleet, testutils.EnemySystem) },
		func() order.Order { return order.NewColonize(e1, testutils.ColonyShip, testutils.BarrenPlanet) },
		func() order.Order { return order.NewInvade(e1, testutils.TroopShip, testutils.EnemyOutpost) },
		func() order.Order { return order.NewChangeFocus(e1, testutils.HomePlanet, "FOCUS_RESEARCH") },
		func() order.Order {
			return order.NewShipDesignCreate(e1, "Scout", "", "SH_BASIC_MEDIUM", "DT_DETECTOR_1")
		},
		func() order.Order { return order.NewScrap(e1, testutils.Shipyard) },
	}

	for _, build := range reversible {
		o := build()
		t.Run(o.Kind().String(), func(t *testing.T) {
			t.Parallel()
			gs := testutils.Galaxy(t)
			snapshot := gs.Clone()
			s := orderset.New()

			key, err := s.IssueOrder(gs, o)
			require.NoError(t, err)
			require.True(t, s.RescindOrder(gs, key))

			assertSameState(t, snapshot, gs)
			assert.Equal(t, 0, s.Len())
			_, ok := s.Get(key)
			assert.False(t, ok)
		})
	}
}

func TestRescindOrder_Refused(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)
	s := orderset.New()

	key, err := s.IssueOrder(gs, order.NewRename(e1, testutils.HomeFleet, "Armada"))
	require.NoError(t, err)
	snapshot := gs.Clone()

	assert.False(t, s.RescindOrder(gs, key), "rename cannot be undone")
	assert.False(t, s.RescindOrder(gs, 99), "unknown key")
	assert.Equal(t, 1, s.Len())
	assertSameState(t, snapshot, gs)

	added, deleted := s.ExtractChanges()
	assert.Equal(t, []int{key}, added.Keys())
	assert.Empty(t, deleted)
}

func TestApplyOrders_BatchIsolation(t *testing.T) {
	t.Parallel()
	n := len(validOrders())

	for pos := 0; pos <= n; pos++ {
		t.Run("failure at "+string(rune('0'+pos)), func(t *testing.T) {
			t.Parallel()

			// Client: issue everything, then ship the set to the server.
			client := testutils.Galaxy(t)
			s := orderset.New()
			orders := validOrders()
			orders = append(orders[:pos], append([]order.Order{failingOrder()}, orders[pos:]...)...)
			for _, o := range orders {
				_, _ = s.IssueOrder(client, o)
			}
			data, err := json.Marshal(s)
			require.NoError(t, err)

			server := testutils.Galaxy(t)
			replay := orderset.New()
			require.NoError(t, json.Unmarshal(data, replay))
			summary := replay.ApplyOrders(server)

			assert.Equal(t, testutils.FixtureTurn, summary.Turn)
			assert.Equal(t, n, summary.Executed)
			assert.Equal(t, 0, summary.AlreadyExecuted)
			assert.Equal(t, 1, summary.Failed)
			require.Len(t, summary.Failures, 1)
			assert.Equal(t, pos, summary.Failures[0].Key)
			assert.Equal(t, order.KindInvade, summary.Failures[0].Kind)
			assert.Equal(t, order.FailurePrecondition, summary.Failures[0].Reason)
			assertSameState(t, client, server)

			// The client's own replay skips what it already executed.
			local := s.ApplyOrders(client)
			assert.Equal(t, 0, local.Executed)
			assert.Equal(t, n, local.AlreadyExecuted)
			assert.Equal(t, 1, local.Failed)
		})
	}
}

func TestApplyOrders_RetriesFailedIssue(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)
	s := orderset.New()

	_, err := s.IssueOrder(gs, order.NewRename(e1, testutils.HomeFleet, "Home Guard"))
	require.ErrorIs(t, err, order.ErrPrecondition)

	f, _ := gs.Universe.Fleet(testutils.HomeFleet)
	f.Name = "Renamed Elsewhere"

	summary := s.ApplyOrders(gs)
	assert.Equal(t, 1, summary.Executed)
	assert.Equal(t, "Home Guard", f.Name)

	summary = s.ApplyOrders(gs)
	assert.Equal(t, 0, summary.Executed)
	assert.Equal(t, 1, summary.AlreadyExecuted)
}

func TestExtractChanges(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)
	s := orderset.New()

	issue := func(o order.Order) int {
		key, err := s.IssueOrder(gs, o)
		require.NoError(t, err)
		return key
	}

	k0 := issue(order.NewChangeFocus(e1, testutils.HomePlanet, "FOCUS_RESEARCH"))
	k1 := issue(order.NewScrap(e1, testutils.Warship))

	added, deleted := s.ExtractChanges()
	assert.Equal(t, []int{k0, k1}, added.Keys())
	assert.Empty(t, deleted)
	got, _ := added.Get(k1)
	own, _ := s.Get(k1)
	assert.Same(t, own, got, "extracted orders are shared")

	// Nothing changed since the last extraction.
	added, deleted = s.ExtractChanges()
	assert.Equal(t, 0, added.Len())
	assert.Empty(t, deleted)

	k2 := issue(order.NewScrap(e1, testutils.PicketShip))
	k3 := issue(order.NewScrap(e1, testutils.Shipyard))
	require.True(t, s.RescindOrder(gs, k1)) // from an earlier window
	require.True(t, s.RescindOrder(gs, k3)) // added and removed in this window

	added, deleted = s.ExtractChanges()
	assert.Equal(t, []int{k2}, added.Keys())
	assert.Equal(t, []int{k1, k3}, deleted)
	assert.Equal(t, []int{k0, k2}, s.Keys())
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	client := testutils.Galaxy(t)
	s := orderset.New()
	server := orderset.New()

	for _, o := range validOrders()[:3] {
		_, err := s.IssueOrder(client, o)
		require.NoError(t, err)
	}
	require.NoError(t, server.Update(s.ExtractChanges()))
	assert.Equal(t, []int{0, 1, 2}, server.Keys())

	require.True(t, s.RescindOrder(client, 1))
	_, err := s.IssueOrder(client, order.NewScrap(e1, testutils.Shipyard))
	require.NoError(t, err)
	require.NoError(t, server.Update(s.ExtractChanges()))

	assert.Equal(t, []int{0, 2, 3}, server.Keys())
	assert.Equal(t, 4, server.NextKey())

	require.Error(t, server.Update(nil, []int{-1}))
}

func TestJSON_RoundTrip(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)
	s := orderset.New()

	for _, o := range validOrders() {
		_, err := s.IssueOrder(gs, o)
		require.NoError(t, err)
	}
	require.True(t, s.RescindOrder(gs, 1))

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded orderset.OrderSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.Keys(), decoded.Keys())
	assert.Equal(t, s.NextKey(), decoded.NextKey())
	for key, o := range decoded.All() {
		assert.False(t, o.Executed())
		own, _ := s.Get(key)
		assert.Equal(t, own.Kind(), o.Kind())
	}

	// Change tracking does not survive encoding.
	added, deleted := decoded.ExtractChanges()
	assert.Equal(t, 0, added.Len())
	assert.Empty(t, deleted)

	require.Error(t, json.Unmarshal([]byte(`{"next_key":1,"orders":[{"key":-2,"order":{}}]}`), &decoded))
}

func TestUpdate_KeyBounds(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)

	server := orderset.New()
	require.Error(t, server.Update(nil, []int{orderset.MaxKey + 1}))
	require.Error(t, server.Update(nil, []int{4_000_000_000}))
	require.Error(t, server.Update(nil, []int{1 << 32}))
	assert.Equal(t, 0, server.NextKey())

	// The largest key is accepted and tracked like any other.
	s := orderset.New()
	require.NoError(t, s.Update(nil, []int{orderset.MaxKey}))
	assert.Equal(t, orderset.MaxKey+1, s.NextKey())
	_, err := s.IssueOrder(gs, order.NewRename(e1, testutils.HomeFleet, "Armada"))
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestUnmarshalJSON_KeyBounds(t *testing.T) {
	t.Parallel()
	encoded, err := order.Encode(order.NewRename(e1, testutils.HomeFleet, "Armada"))
	require.NoError(t, err)

	tests := []struct {
		name string
		data string
	}{
		{name: "key beyond max", data: `{"next_key":0,"orders":[{"key":4000000000,"order":` + string(encoded) + `}]}`},
		{name: "key beyond uint32", data: `{"next_key":0,"orders":[{"key":4294967301,"order":` + string(encoded) + `}]}`},
		{name: "negative next key", data: `{"next_key":-1,"orders":[]}`},
		{name: "next key beyond max", data: `{"next_key":4000000000,"orders":[]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var decoded orderset.OrderSet
			require.Error(t, json.Unmarshal([]byte(tc.data), &decoded))
		})
	}

	var decoded orderset.OrderSet
	data := `{"next_key":0,"orders":[{"key":7,"order":` + string(encoded) + `}]}`
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, []int{7}, decoded.Keys())
	assert.Equal(t, 8, decoded.NextKey())
}

func TestReset_MatchesDecodedEmptySet(t *testing.T) {
	t.Parallel()
	gs := testutils.Galaxy(t)
	s := orderset.New()
	_, err := s.IssueOrder(gs, validOrders()[0])
	require.NoError(t, err)
	s.Reset()

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var decoded orderset.OrderSet
	require.NoError(t, json.Unmarshal(data, &decoded))

	gotest.DeepEqual(t, s.Keys(), decoded.Keys())
	assert.Nil(t, s.Keys())
	assert.Equal(t, 0, decoded.NextKey())
}
