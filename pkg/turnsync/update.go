package turnsync

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/freeorion/orders/pkg/orderset"
	"github.com/freeorion/orders/pkg/universe"
)

var (
	// ErrRejected wraps the reason a receiver gave for refusing an update.
	ErrRejected = errors.New("update rejected")

	ErrWrongGame     = errors.New("update for another game")
	ErrWrongTurn     = errors.New("update for another turn")
	ErrStaleUpdate   = errors.New("stale update")
	ErrUnknownEmpire = errors.New("empire not in game")
	ErrForeignOrder  = errors.New("order issued by another empire")
	ErrInvalidKey    = errors.New("invalid order key")
)

// OrdersSubject is where the given empire publishes its order deltas.
func OrdersSubject(gameID string, empire universe.EmpireID) string {
	return fmt.Sprintf("freeorion.%s.orders.%d", gameID, empire)
}

func ordersWildcard(gameID string) string {
	return fmt.Sprintf("freeorion.%s.orders.*", gameID)
}

// TurnSubject carries a TurnAdvanced announcement after each processed turn.
func TurnSubject(gameID string) string {
	return fmt.Sprintf("freeorion.%s.turn", gameID)
}

// Update is the delta one player sends between two syncs: orders added since the previous update
// and keys deleted since then. Final marks the player's orders for the turn as submitted.
type Update struct {
	ID       uuid.UUID          `json:"id"`
	GameID   string             `json:"game_id"`
	EmpireID universe.EmpireID  `json:"empire_id"`
	Turn     int                `json:"turn"`
	Seq      uint64             `json:"seq"`
	Added    *orderset.OrderSet `json:"added"`
	Deleted  []int              `json:"deleted"`
	Final    bool               `json:"final"`
}

func (u *Update) encode() ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal update")
	}
	return data, nil
}

func decodeUpdate(data []byte) (*Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, eris.Wrap(err, "failed to unmarshal update")
	}
	return &u, nil
}

// ack is the receiver's reply to an Update.
type ack struct {
	Accepted bool   `json:"accepted"`
	Turn     int    `json:"turn"`
	Error    string `json:"error,omitempty"`
}

// TurnAdvanced announces that the server finished processing a turn.
type TurnAdvanced struct {
	GameID   string `json:"game_id"`
	Turn     int    `json:"turn"` // the new current turn
	Executed int    `json:"executed"`
	Failed   int    `json:"failed"`
}
