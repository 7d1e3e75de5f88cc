package orderset

import (
	"github.com/freeorion/orders/pkg/order"
	"github.com/freeorion/orders/pkg/universe"
)

// Summary reports the outcome of one ApplyOrders pass.
type Summary struct {
	Turn            int
	Executed        int
	AlreadyExecuted int
	Failed          int
	Failures        []Failure
}

// Failure describes one order that failed during replay.
type Failure struct {
	Key    int
	Kind   order.Kind
	Empire universe.EmpireID
	Reason order.FailureKind
	Err    error
}

// Add accumulates another pass into s. The turn of s is kept.
func (s *Summary) Add(other Summary) {
	s.Executed += other.Executed
	s.AlreadyExecuted += other.AlreadyExecuted
	s.Failed += other.Failed
	s.Failures = append(s.Failures, other.Failures...)
}
