package orderset_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeorion/orders/pkg/order"
	"github.com/freeorion/orders/pkg/orderset"
	"github.com/freeorion/orders/pkg/testutils"
	"github.com/freeorion/orders/pkg/universe"
)

type setOp uint8

// Values double as weights for RandWeightedOp.
const (
	opIssue   setOp = 60
	opRescind setOp = 30
	opExtract setOp = 10
)

func randomOrder(r *rand.Rand) order.Order {
	fleets := []universe.ObjectID{testutils.HomeFleet, testutils.PicketFleet, testutils.TroopFleet, testutils.EnemyFleet}
	switch r.IntN(5) {
	case 0:
		return order.NewRename(e1, testutils.RandElement(r, fleets), testutils.RandName(r, 1+r.IntN(8)))
	case 1:
		return order.NewFleetMove(e1, testutils.RandElement(r, fleets), universe.ObjectID(1+r.IntN(8)))
	case 2:
		foci := []string{"FOCUS_INDUSTRY", "FOCUS_RESEARCH", "FOCUS_INFLUENCE", "FOCUS_BOGUS"}
		return order.NewChangeFocus(e1, testutils.HomePlanet, testutils.RandElement(r, foci))
	case 3:
		ships := []universe.ObjectID{testutils.Warship, testutils.PicketShip, testutils.ScoutShip, testutils.EnemyShip}
		return order.NewScrap(e1, testutils.RandElement(r, ships))
	default:
		levels := []universe.FleetAggression{universe.FleetPassive, universe.FleetAggressive, universe.FleetAggressionInvalid}
		return order.NewAggression(e1, testutils.RandElement(r, fleets), testutils.RandElement(r, levels))
	}
}

// TestOrderSet_Model drives an OrderSet with random issues, rescissions and extractions and checks
// it against a simple model of live keys and the current change window.
func TestOrderSet_Model(t *testing.T) {
	t.Parallel()
	prng := testutils.NewRand(t)
	gs := testutils.Galaxy(t)
	s := orderset.New()

	const steps = 2000
	ops := []setOp{opIssue, opRescind, opExtract}

	live := make(map[int]bool)
	windowAdded := make(map[int]bool)
	windowDeleted := make(map[int]bool)
	lastKey := -1

	for range steps {
		switch testutils.RandWeightedOp(prng, ops) {
		case opIssue:
			key, _ := s.IssueOrder(gs, randomOrder(prng))
			require.Greater(t, key, lastKey, "keys strictly increase")
			lastKey = key
			live[key] = true
			windowAdded[key] = true

		case opRescind:
			var key int
			if len(live) > 0 && prng.IntN(10) > 0 {
				key = testutils.RandMapKey(prng, live)
			} else {
				key = lastKey + 1 + prng.IntN(3)
			}
			o, existed := s.Get(key)
			if !s.RescindOrder(gs, key) {
				_, still := s.Get(key)
				assert.Equal(t, existed, still, "refused rescission keeps the order")
				continue
			}
			require.True(t, existed)
			assert.True(t, o.Undone())
			delete(live, key)
			if windowAdded[key] {
				delete(windowAdded, key)
			}
			windowDeleted[key] = true

		case opExtract:
			added, deleted := s.ExtractChanges()
			assert.ElementsMatch(t, keysOf(windowAdded), added.Keys())
			assert.ElementsMatch(t, keysOf(windowDeleted), deleted)
			assert.True(t, slices.IsSorted(deleted))
			for _, key := range added.Keys() {
				assert.NotContains(t, deleted, key)
			}
			clear(windowAdded)
			clear(windowDeleted)
		}

		require.Equal(t, len(live), s.Len())
	}

	assert.ElementsMatch(t, keysOf(live), s.Keys())
	assert.True(t, slices.IsSorted(s.Keys()))
}

func keysOf(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
