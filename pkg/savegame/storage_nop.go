package savegame

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/freeorion/orders/pkg/universe"
)

// NopStorage discards every record. Used when saves are not needed (development, tests).
type NopStorage struct{}

var _ Storage = (*NopStorage)(nil)

func NewNopStorage() *NopStorage {
	return &NopStorage{}
}

func (n *NopStorage) Store(_ context.Context, _ *Record) error {
	return nil
}

func (n *NopStorage) Load(_ context.Context, _ string, _ universe.EmpireID) (*Record, error) {
	return nil, eris.Wrap(ErrRecordNotFound, "no records available (using no-op storage)")
}
