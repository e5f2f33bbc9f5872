package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	CentsPerDollar = int64(100)

	// New players start with $10,000 and are handed the cheapest boat,
	// its cost deducted up front.
	StarterBalanceCents = int64(10_000) * CentsPerDollar

	DefaultLeaderboardLimit = 10
	MaxHistoryRows          = 400
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrShipTypeNotFound     = errors.New("ship type not found")
	ErrShipNotFound         = errors.New("ship not found or not owned by you")
	ErrAreaNotFound         = errors.New("fishing area not found")
	ErrAreaExists           = errors.New("area with this name already exists")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrAlreadyInClan        = errors.New("already in a clan")
	ErrClanNotFound         = errors.New("clan not found")
	ErrClanNameTaken        = errors.New("clan name already taken")
	ErrNotClanCreator       = errors.New("not the creator of any clan")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTxConflict           = errors.New("transaction conflict, try again")
)

var blockedNameFragments = []string{
	"admin",
	"mod",
	"support",
	"shit",
	"fuck",
	"bitch",
	"nazi",
}

func DollarsToCents(v float64) int64 {
	return int64(math.Round(v * float64(CentsPerDollar)))
}

func CentsToDollars(v int64) float64 {
	return float64(v) / float64(CentsPerDollar)
}

// RoundCents converts an exact float cent amount into whole cents. This is
// the single place money gets rounded: harvests and stock stay in full float
// precision, revenue and profit are fixed to cents when a ledger row is cut.
func RoundCents(cents float64) int64 {
	return int64(math.Round(cents))
}

func validateEntityName(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return fmt.Errorf("name is required")
	}
	if len(clean) > 64 {
		return fmt.Errorf("name too long (max 64 chars)")
	}
	lower := strings.ToLower(clean)
	for _, fragment := range blockedNameFragments {
		if strings.Contains(lower, fragment) {
			return fmt.Errorf("name contains blocked content")
		}
	}
	return nil
}
