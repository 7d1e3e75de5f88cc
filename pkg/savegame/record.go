// Package savegame persists the orders each player has issued for the current turn, so a client
// that reconnects or restarts can resume from its last submitted set.
package savegame

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/freeorion/orders/pkg/orderset"
	"github.com/freeorion/orders/pkg/universe"
)

// Record is one player's save for a turn.
type Record struct {
	GameID     string             `json:"game_id"`
	EmpireID   universe.EmpireID  `json:"empire_id"`
	PlayerName string             `json:"player_name"`
	Turn       int                `json:"turn"`
	SavedAt    time.Time          `json:"saved_at"`
	Orders     *orderset.OrderSet `json:"orders"`

	// Seq and Final mirror the last update the server accepted from the player.
	Seq   uint64 `json:"seq,omitempty"`
	Final bool   `json:"final,omitempty"`
}

func (r *Record) validate() error {
	if r == nil {
		return eris.New("record cannot be nil")
	}
	if r.GameID == "" {
		return eris.New("game id cannot be empty")
	}
	if r.EmpireID < 0 {
		return eris.Errorf("invalid empire id %d", r.EmpireID)
	}
	if r.Orders == nil {
		return eris.New("orders cannot be nil")
	}
	return nil
}

var ErrRecordNotFound = errors.New("save record not found")

// Storage provides persistence for save records. A record replaces any earlier record of the
// same game and empire.
type Storage interface {
	Store(ctx context.Context, record *Record) error

	// Load returns ErrRecordNotFound (wrapped) when nothing was stored.
	Load(ctx context.Context, gameID string, empireID universe.EmpireID) (*Record, error)
}

func encodeRecord(r *Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal save record")
	}
	return data, nil
}

func decodeRecord(data []byte) (*Record, error) {
	r := Record{Orders: orderset.New()}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "failed to unmarshal save record")
	}
	if r.Orders == nil {
		r.Orders = orderset.New()
	}
	return &r, nil
}

// StorageType defines the type of save storage to use.
type StorageType uint8

const (
	StorageTypeUndefined StorageType = iota
	StorageTypeNop
	StorageTypeRedis
	StorageTypeJetStream
)

const (
	nopStorageString       = "NOP"
	redisStorageString     = "REDIS"
	jetStreamStorageString = "JETSTREAM"
	undefinedStorageString = "UNDEFINED"
)

func (s StorageType) String() string {
	switch s {
	case StorageTypeNop:
		return nopStorageString
	case StorageTypeRedis:
		return redisStorageString
	case StorageTypeJetStream:
		return jetStreamStorageString
	case StorageTypeUndefined:
		return undefinedStorageString
	default:
		return undefinedStorageString
	}
}

func (s StorageType) IsValid() bool {
	return s == StorageTypeNop || s == StorageTypeRedis || s == StorageTypeJetStream
}

func ParseStorageType(s string) (StorageType, error) {
	switch strings.ToUpper(s) {
	case nopStorageString:
		return StorageTypeNop, nil
	case redisStorageString:
		return StorageTypeRedis, nil
	case jetStreamStorageString:
		return StorageTypeJetStream, nil
	default:
		return StorageTypeUndefined, eris.Errorf("invalid storage type: %s", s)
	}
}
