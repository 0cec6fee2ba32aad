package models

import "time"

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is one of the two accepted values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trade is a single executed trade as persisted in the ledger.
// Records are append-only; they are never updated or deleted.
type Trade struct {
	ID         int64     `json:"id"` // Database primary key
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`
	ExecutedAt time.Time `json:"executed_at"` // When the trade occurred, caller-supplied
	Source     *string   `json:"source"`      // Free-form origin label (e.g. exchange or feed name)
	SourceID   *string   `json:"source_id"`   // Idempotency key; unique when present
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"created_at"` // When the record was inserted
}

// TradeSubmission carries the caller-settable fields of a new trade.
type TradeSubmission struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`
	ExecutedAt time.Time `json:"executed_at"`
	Source     *string   `json:"source"`
	SourceID   *string   `json:"source_id"`
	Notes      *string   `json:"notes"`
}

// RecentTrade is the projection of a trade used in the stats summary.
type RecentTrade struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	ExecutedAt time.Time `json:"executed_at"`
}

// SummaryResult holds ledger-wide statistics computed in a single snapshot.
type SummaryResult struct {
	TotalTrades  int64         `json:"total_trades"`
	TotalVolume  float64       `json:"total_volume"` // Sum of quantity*price, rounded to 2 decimals
	SymbolsCount int64         `json:"symbols_count"`
	RecentTrades []RecentTrade `json:"recent_trades"`
}
