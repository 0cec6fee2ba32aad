package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/models"
	"github.com/username/tradelog/backend/src/security/validation"
	"github.com/username/tradelog/backend/src/store"
)

// Listing bounds. DefaultListLimit applies when the caller gives no limit;
// MaxListLimit guards against unbounded values from untrusted input.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

const summaryCacheKey = "stats:summary"

type tradeServiceImpl struct {
	tradeStore   store.TradeStore
	summaryCache *cache.Cache
}

// NewTradeService returns a TradeService backed by the given store.
// The summary cache holds the aggregate snapshot between writes.
func NewTradeService(tradeStore store.TradeStore, summaryCache *cache.Cache) TradeService {
	return &tradeServiceImpl{
		tradeStore:   tradeStore,
		summaryCache: summaryCache,
	}
}

func (s *tradeServiceImpl) IngestTrade(ctx context.Context, sub models.TradeSubmission) (*IngestResult, error) {
	if err := validateSubmission(&sub); err != nil {
		return nil, err
	}

	trade := &models.Trade{
		Symbol:     strings.ToUpper(strings.TrimSpace(sub.Symbol)),
		Side:       sub.Side,
		Quantity:   sub.Quantity,
		Price:      sub.Price,
		Commission: sub.Commission,
		ExecutedAt: sub.ExecutedAt.UTC(),
		Source:     sanitizeOptional(sub.Source),
		SourceID:   trimOptional(sub.SourceID),
		Notes:      sanitizeOptional(sub.Notes),
	}

	// Fast path: an already-recorded source_id resolves to the duplicate
	// outcome without a write. The UNIQUE constraint below remains the
	// authoritative guard against races.
	if trade.SourceID != nil {
		existing, err := s.tradeStore.FindBySourceID(ctx, *trade.SourceID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &IngestResult{Status: IngestStatusDuplicate, ID: existing.ID}, nil
		}
	}

	id, err := s.tradeStore.Insert(ctx, trade)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateSourceID) && trade.SourceID != nil {
			// Lost a race with a concurrent insert of the same source_id;
			// resolve to the winner's record.
			existing, lookupErr := s.tradeStore.FindBySourceID(ctx, *trade.SourceID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			result := &IngestResult{Status: IngestStatusDuplicate}
			if existing != nil {
				result.ID = existing.ID
			}
			logger.FromContext(ctx).Info("Duplicate source_id resolved after insert race", "sourceID", *trade.SourceID)
			return result, nil
		}
		return nil, err
	}

	s.summaryCache.Delete(summaryCacheKey)
	return &IngestResult{Status: IngestStatusOK, ID: id}, nil
}

func (s *tradeServiceImpl) ListTrades(ctx context.Context, symbol string, side models.Side, limit int) ([]models.Trade, error) {
	if side != "" && !side.Valid() {
		return nil, fmt.Errorf("%w: side must be BUY or SELL", validation.ErrValidationFailed)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	filter := store.ListFilter{
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
		Side:   side,
		Limit:  limit,
	}
	return s.tradeStore.List(ctx, filter)
}

func (s *tradeServiceImpl) CheckSourceID(ctx context.Context, sourceID string) (bool, int64, error) {
	existing, err := s.tradeStore.FindBySourceID(ctx, sourceID)
	if err != nil {
		return false, 0, err
	}
	if existing == nil {
		return false, 0, nil
	}
	return true, existing.ID, nil
}

func (s *tradeServiceImpl) GetSummary(ctx context.Context) (*models.SummaryResult, error) {
	if cached, found := s.summaryCache.Get(summaryCacheKey); found {
		if summary, ok := cached.(*models.SummaryResult); ok {
			return summary, nil
		}
	}

	summary, err := s.tradeStore.Summary(ctx)
	if err != nil {
		return nil, err
	}
	s.summaryCache.Set(summaryCacheKey, summary, cache.DefaultExpiration)
	return summary, nil
}

func (s *tradeServiceImpl) Ping(ctx context.Context) error {
	return s.tradeStore.Ping(ctx)
}

func validateSubmission(sub *models.TradeSubmission) error {
	symbol := strings.TrimSpace(sub.Symbol)
	if err := validation.ValidateStringNotEmpty(symbol, "symbol"); err != nil {
		return err
	}
	if err := validation.ValidateStringMaxLength(symbol, validation.MaxSymbolLength, "symbol"); err != nil {
		return err
	}
	if !sub.Side.Valid() {
		return fmt.Errorf("%w: side must be BUY or SELL", validation.ErrValidationFailed)
	}
	if err := validation.ValidatePositive(sub.Quantity, "quantity"); err != nil {
		return err
	}
	if err := validation.ValidatePositive(sub.Price, "price"); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(sub.Commission, "commission"); err != nil {
		return err
	}
	if sub.ExecutedAt.IsZero() {
		return fmt.Errorf("%w: executed_at is required", validation.ErrValidationFailed)
	}
	if sub.SourceID != nil {
		if err := validation.ValidateStringMaxLength(*sub.SourceID, validation.MaxSourceIDLength, "source_id"); err != nil {
			return err
		}
	}
	if sub.Source != nil {
		if err := validation.ValidateStringMaxLength(*sub.Source, validation.MaxSourceLength, "source"); err != nil {
			return err
		}
	}
	if sub.Notes != nil {
		if err := validation.ValidateStringMaxLength(*sub.Notes, validation.MaxNotesLength, "notes"); err != nil {
			return err
		}
	}
	return nil
}

// trimOptional normalizes an optional field: trimmed, nil when empty.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// sanitizeOptional additionally strips HTML and unprintable characters from
// free-form fields before they reach the database.
func sanitizeOptional(s *string) *string {
	trimmed := trimOptional(s)
	if trimmed == nil {
		return nil
	}
	clean := validation.StripUnprintable(validation.SanitizeText(*trimmed))
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil
	}
	return &clean
}
