package order

import (
	"strings"
)

// Kind enumerates every order type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindRename
	KindCreateFleet
	KindFleetMove
	KindFleetTransfer
	KindColonize
	KindInvade
	KindChangeFocus
	KindResearchQueue
	KindProductionQueue
	KindShipDesign
	KindScrap
	KindAggression
	kindCount
)

var kindNames = [kindCount]string{ //nolint:gochecknoglobals // lookup table
	KindInvalid:         "invalid",
	KindRename:          "rename",
	KindCreateFleet:     "create_fleet",
	KindFleetMove:       "fleet_move",
	KindFleetTransfer:   "fleet_transfer",
	KindColonize:        "colonize",
	KindInvade:          "invade",
	KindChangeFocus:     "change_focus",
	KindResearchQueue:   "research_queue",
	KindProductionQueue: "production_queue",
	KindShipDesign:      "ship_design",
	KindScrap:           "scrap",
	KindAggression:      "aggression",
}

func (k Kind) String() string {
	if k >= kindCount {
		return kindNames[KindInvalid]
	}
	return kindNames[k]
}

// ParseKind converts a kind name back to a Kind, returning KindInvalid for unknown names.
func ParseKind(s string) Kind {
	s = strings.ToLower(s)
	for k := KindInvalid + 1; k < kindCount; k++ {
		if kindNames[k] == s {
			return k
		}
	}
	return KindInvalid
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := KindInvalid + 1; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Reversible reports whether orders of this kind implement Undo.
func (k Kind) Reversible() bool {
	switch k {
	case KindCreateFleet, KindFleetMove, KindColonize, KindInvade, KindChangeFocus, KindShipDesign, KindScrap:
		return true
	case KindInvalid, KindRename, KindFleetTransfer, KindResearchQueue, KindProductionQueue, KindAggression, kindCount:
		return false
	default:
		return false
	}
}

// MarshalText encodes the kind by name so wire payloads survive enum reordering.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}
