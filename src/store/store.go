package store

import (
	"context"
	"errors"

	"github.com/username/tradelog/backend/src/models"
)

// Errors returned by TradeStore implementations when a write hits a
// storage-level constraint. Everything else propagates verbatim.
var (
	ErrDuplicateSourceID = errors.New("trade with this source_id already exists")
	ErrConstraint        = errors.New("trade violates a storage constraint")
)

// ListFilter restricts and bounds a ledger listing. Zero values mean
// "no restriction" for Symbol and Side; Limit must be positive.
type ListFilter struct {
	Symbol string
	Side   models.Side
	Limit  int
}

// TradeStore is the durable ledger of trade records. Implementations must
// enforce the side/quantity/price/commission constraints and source_id
// uniqueness; all mutations are durable before the call returns.
type TradeStore interface {
	// Insert writes a new trade and returns its assigned id.
	Insert(ctx context.Context, t *models.Trade) (int64, error)

	// FindBySourceID returns the trade with the given source_id,
	// or (nil, nil) when none exists.
	FindBySourceID(ctx context.Context, sourceID string) (*models.Trade, error)

	// List returns a filtered view of the ledger ordered by
	// executed_at descending, most recent first.
	List(ctx context.Context, filter ListFilter) ([]models.Trade, error)

	// Summary computes ledger-wide statistics in one snapshot.
	Summary(ctx context.Context) (*models.SummaryResult, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
