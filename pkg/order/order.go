// Package order defines the commands a player issues against the game state during a turn.
//
// Every order validates all of its preconditions before touching the state, so a failed Execute
// or Undo never leaves a partial mutation behind. The set of kinds is closed: Order carries an
// unexported method and every kind is registered with the codec.
package order

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/freeorion/orders/pkg/universe"
)

// Order is one empire-attributed command.
type Order interface {
	Kind() Kind
	EmpireID() universe.EmpireID

	// Executed reports whether Execute has succeeded on this instance.
	Executed() bool
	// Undone reports whether Undo has succeeded on this instance.
	Undone() bool

	// Execute validates the order against gs and applies it. A second call on an executed order
	// returns ErrAlreadyExecuted and changes nothing.
	Execute(gs *universe.Context) error
	// Undo reverts a previously executed order. Kinds without an inverse return
	// ErrUndoNotSupported.
	Undo(gs *universe.Context) error

	fmt.Stringer

	header() *base
}

// base is the bookkeeping shared by every kind. None of it crosses the wire.
type base struct {
	empire   universe.EmpireID
	executed bool
	undone   bool
}

func (b *base) EmpireID() universe.EmpireID { return b.empire }
func (b *base) Executed() bool              { return b.executed }
func (b *base) Undone() bool                { return b.undone }
func (b *base) header() *base               { return b }

// commitFunc applies an already validated mutation. It must not fail.
type commitFunc func()

// execute runs the shared checks, then prepare, and only calls the returned commit once every
// check passed.
func (b *base) execute(
	gs *universe.Context, prepare func(empire *universe.Empire) (commitFunc, error),
) error {
	if b.undone {
		return eris.Wrap(ErrAlreadyUndone, "undone orders cannot be executed")
	}
	if b.executed {
		return ErrAlreadyExecuted
	}
	empire, err := gs.Empire(b.empire)
	if err != nil {
		return eris.Wrap(err, "issuing empire")
	}
	commit, err := prepare(empire)
	if err != nil {
		return err
	}
	commit()
	b.executed = true
	return nil
}

// undo reverts the order through prepare's commit. An order that never executed has nothing to
// revert and is marked undone directly.
func (b *base) undo(prepare func() (commitFunc, error)) error {
	if b.undone {
		return ErrAlreadyUndone
	}
	if !b.executed {
		b.undone = true
		return nil
	}
	commit, err := prepare()
	if err != nil {
		return err
	}
	commit()
	b.undone = true
	return nil
}

// irreversible backs Undo for kinds that have no inverse.
type irreversible struct{}

func (irreversible) Undo(*universe.Context) error {
	return ErrUndoNotSupported
}

func status(b *base) string {
	switch {
	case b.undone:
		return " [undone]"
	case b.executed:
		return " [executed]"
	default:
		return ""
	}
}

// ownedObject resolves id and checks that empire owns it.
func ownedObject(gs *universe.Context, empire universe.EmpireID, id universe.ObjectID) (universe.Object, error) {
	obj, err := gs.Universe.Object(id)
	if err != nil {
		return nil, err
	}
	if !obj.Header().OwnedBy(empire) {
		return nil, notOwned("%s %d", obj.Kind(), id)
	}
	return obj, nil
}

func ownedFleet(gs *universe.Context, empire universe.EmpireID, id universe.ObjectID) (*universe.Fleet, error) {
	f, err := gs.Universe.Fleet(id)
	if err != nil {
		return nil, err
	}
	if !f.OwnedBy(empire) {
		return nil, notOwned("fleet %d", id)
	}
	return f, nil
}

func ownedShip(gs *universe.Context, empire universe.EmpireID, id universe.ObjectID) (*universe.Ship, error) {
	s, err := gs.Universe.Ship(id)
	if err != nil {
		return nil, err
	}
	if !s.OwnedBy(empire) {
		return nil, notOwned("ship %d", id)
	}
	return s, nil
}

func ownedPlanet(gs *universe.Context, empire universe.EmpireID, id universe.ObjectID) (*universe.Planet, error) {
	p, err := gs.Universe.Planet(id)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(empire) {
		return nil, notOwned("planet %d", id)
	}
	return p, nil
}
