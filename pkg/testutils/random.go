package testutils

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"testing"
	"time"
)

// Seed drives every randomized test in the module. Set TEST_SEED to replay a failing run.
var Seed uint64 //nolint:gochecknoglobals // shared across tests for reproducibility

func init() { //nolint:gochecknoinits // seed must be fixed before any test runs
	Seed = uint64(time.Now().UnixNano()) //nolint:gosec // overflow is fine for a seed
	if env := os.Getenv("TEST_SEED"); env != "" {
		if parsed, err := strconv.ParseUint(env, 0, 64); err == nil {
			Seed = parsed
		}
	}
	fmt.Printf("to reproduce: TEST_SEED=0x%x\n", Seed) //nolint:forbidigo // test output
}

func NewRand(t *testing.T) *rand.Rand {
	t.Helper()
	return rand.New(rand.NewPCG(Seed, Seed)) //nolint:gosec // weak RNG is fine for tests
}

// RandElement returns a random element of a non-empty slice.
func RandElement[T any](r *rand.Rand, s []T) T {
	return s[r.IntN(len(s))]
}

// RandMapKey returns a random key from a non-empty map.
func RandMapKey[K comparable, V any](r *rand.Rand, m map[K]V) K {
	idx := r.IntN(len(m))
	for k := range m {
		if idx == 0 {
			return k
		}
		idx--
	}
	panic("unreachable")
}

// WeightedOp is an operation enum whose value doubles as its selection weight.
type WeightedOp interface {
	~uint8 | ~uint16 | ~uint32 | ~int
}

// RandWeightedOp picks an op with probability proportional to its value.
func RandWeightedOp[T WeightedOp](r *rand.Rand, ops []T) T {
	var total int
	for _, op := range ops {
		total += int(op)
	}
	pick := r.IntN(total)
	for _, op := range ops {
		if pick < int(op) {
			return op
		}
		pick -= int(op)
	}
	panic("unreachable")
}

// RandName generates a random alphanumeric name of the given length.
func RandName(r *rand.Rand, length int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = chars[r.IntN(len(chars))]
	}
	return string(b)
}
