package services

import (
	"context"

	"github.com/username/tradelog/backend/src/models"
)

// IngestStatus distinguishes a fresh insert from an idempotent replay.
type IngestStatus string

const (
	IngestStatusOK        IngestStatus = "ok"
	IngestStatusDuplicate IngestStatus = "duplicate"
)

// IngestResult is the non-error outcome of ingesting a trade submission.
// A duplicate is a benign outcome, not a failure: the ledger already holds a
// record with the submission's source_id and ID points at it.
type IngestResult struct {
	Status IngestStatus
	ID     int64
}

// TradeService is the core of the trade-logging service: idempotent
// ingestion, filtered listing, source_id existence checks, and aggregate
// statistics. It assumes the caller has already been authorized.
type TradeService interface {
	// IngestTrade validates and persists a submission. Validation failures
	// wrap validation.ErrValidationFailed and never touch storage; a replayed
	// source_id yields the duplicate outcome without writing.
	IngestTrade(ctx context.Context, sub models.TradeSubmission) (*IngestResult, error)

	// ListTrades returns up to limit most-recent trades, optionally
	// restricted to a symbol (case-insensitive) and side.
	ListTrades(ctx context.Context, symbol string, side models.Side, limit int) ([]models.Trade, error)

	// CheckSourceID reports whether a trade with the given source_id exists,
	// and its id when it does.
	CheckSourceID(ctx context.Context, sourceID string) (exists bool, id int64, err error)

	// GetSummary returns ledger-wide statistics from a single snapshot.
	GetSummary(ctx context.Context) (*models.SummaryResult, error)

	// Ping verifies the underlying store is reachable.
	Ping(ctx context.Context) error
}
