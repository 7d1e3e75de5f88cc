package order

import (
	"github.com/rotisserie/eris"

	"github.com/freeorion/orders/pkg/universe"
)

var (
	// ErrInvalidReference is returned when an order names an object, empire, design, tech or
	// focus that does not resolve.
	ErrInvalidReference = eris.New("invalid reference")
	// ErrNotOwned is returned when the issuing empire does not own an object it commands.
	ErrNotOwned = eris.New("object not owned by issuing empire")
	// ErrPrecondition is returned when a domain admissibility check fails.
	ErrPrecondition = eris.New("precondition failed")
	// ErrQueueBounds is returned when a queue index is out of range.
	ErrQueueBounds = eris.New("queue index out of range")

	ErrAlreadyExecuted  = eris.New("order already executed")
	ErrAlreadyUndone    = eris.New("order already undone")
	ErrUndoNotSupported = eris.New("order kind cannot be undone")
	// ErrUndoRefused is returned when the effect of an order was superseded by later changes.
	ErrUndoRefused = eris.New("order effect superseded, cannot undo")

	ErrUnknownKind = eris.New("unknown order kind")
)

// FailureKind classifies why an order failed.
type FailureKind uint8

const (
	FailureNone FailureKind = iota
	FailureInvalidReference
	FailureOwnership
	FailurePrecondition
	FailureQueueBounds
	FailureAlreadyExecuted
	FailureUndo
	FailureUnknown
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureInvalidReference:
		return "invalid_reference"
	case FailureOwnership:
		return "ownership"
	case FailurePrecondition:
		return "precondition"
	case FailureQueueBounds:
		return "queue_bounds"
	case FailureAlreadyExecuted:
		return "already_executed"
	case FailureUndo:
		return "undo"
	case FailureUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by Execute or Undo onto a FailureKind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case eris.Is(err, ErrInvalidReference),
		eris.Is(err, universe.ErrObjectNotFound),
		eris.Is(err, universe.ErrEmpireNotFound),
		eris.Is(err, universe.ErrDesignNotFound):
		return FailureInvalidReference
	case eris.Is(err, ErrNotOwned):
		return FailureOwnership
	case eris.Is(err, ErrQueueBounds), eris.Is(err, universe.ErrQueueIndexOutOfRange):
		return FailureQueueBounds
	case eris.Is(err, ErrPrecondition),
		eris.Is(err, universe.ErrNoPath),
		eris.Is(err, universe.ErrDuplicateID):
		return FailurePrecondition
	case eris.Is(err, ErrAlreadyExecuted):
		return FailureAlreadyExecuted
	case eris.Is(err, ErrAlreadyUndone), eris.Is(err, ErrUndoNotSupported), eris.Is(err, ErrUndoRefused):
		return FailureUndo
	default:
		return FailureUnknown
	}
}

func invalidRef(format string, args ...any) error {
	return eris.Wrapf(ErrInvalidReference, format, args...)
}

func notOwned(format string, args ...any) error {
	return eris.Wrapf(ErrNotOwned, format, args...)
}

func precondition(format string, args ...any) error {
	return eris.Wrapf(ErrPrecondition, format, args...)
}

func outOfBounds(format string, args ...any) error {
	return eris.Wrapf(ErrQueueBounds, format, args...)
}

func refused(format string, args ...any) error {
	return eris.Wrapf(ErrUndoRefused, format, args...)
}
