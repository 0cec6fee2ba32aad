package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/tradelog/backend/src/models"
)

// recentTradesLimit caps the recent_trades slice in the stats summary.
const recentTradesLimit = 5

// writeTimeLayout keeps fixed-width fractional seconds so that the TEXT
// ordering used by ORDER BY executed_at matches chronological ordering.
const writeTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timeLayouts are tried in order when reading timestamps back. RFC3339Nano
// covers values written by this store; the last entry covers rows whose
// created_at came from SQLite's CURRENT_TIMESTAMP default.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// SQLiteStore implements TradeStore over a single SQLite database.
// The schema (db/migrations) carries the CHECK and UNIQUE constraints that
// back the errors mapped by Insert.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Insert(ctx context.Context, t *models.Trade) (int64, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		(symbol, side, quantity, price, commission, executed_at, source, source_id, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Symbol, string(t.Side), t.Quantity, t.Price, t.Commission,
		formatTime(t.ExecutedAt), t.Source, t.SourceID, t.Notes, formatTime(createdAt),
	)
	if err != nil {
		return 0, mapConstraintError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted trade id: %w", err)
	}
	t.ID = id
	t.CreatedAt = createdAt
	return id, nil
}

func (s *SQLiteStore) FindBySourceID(ctx context.Context, sourceID string) (*models.Trade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, side, quantity, price, commission, executed_at, source, source_id, notes, created_at
		FROM trades
		WHERE source_id = ?`, sourceID)

	t, err := scanTrade(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up trade by source_id: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]models.Trade, error) {
	query := `
		SELECT id, symbol, side, quantity, price, commission, executed_at, source, source_id, notes, created_at
		FROM trades
		WHERE 1=1`
	args := []any{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Side != "" {
		query += " AND side = ?"
		args = append(args, string(filter.Side))
	}
	query += " ORDER BY executed_at DESC, id DESC LIMIT ?"
	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, scanErr := scanTrade(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning trade: %w", scanErr)
		}
		trades = append(trades, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating over trades: %w", err)
	}
	return trades, nil
}

// Summary runs all four aggregate reads inside one transaction so the
// figures reflect a single logical point in time.
func (s *SQLiteStore) Summary(ctx context.Context) (*models.SummaryResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning summary transaction: %w", err)
	}
	defer tx.Rollback()

	summary := &models.SummaryResult{RecentTrades: []models.RecentTrade{}}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&summary.TotalTrades); err != nil {
		return nil, fmt.Errorf("counting trades: %w", err)
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(ROUND(SUM(quantity * price), 2), 0) FROM trades`).Scan(&summary.TotalVolume); err != nil {
		return nil, fmt.Errorf("summing trade volume: %w", err)
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT symbol) FROM trades`).Scan(&summary.SymbolsCount); err != nil {
		return nil, fmt.Errorf("counting distinct symbols: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT symbol, side, quantity, price, executed_at
		FROM trades
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, recentTradesLimit)
	if err != nil {
		return nil, fmt.Errorf("querying recent trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rt         models.RecentTrade
			side       string
			executedAt string
		)
		if err := rows.Scan(&rt.Symbol, &side, &rt.Quantity, &rt.Price, &executedAt); err != nil {
			return nil, fmt.Errorf("scanning recent trade: %w", err)
		}
		rt.Side = models.Side(side)
		if rt.ExecutedAt, err = parseTime(executedAt); err != nil {
			return nil, err
		}
		summary.RecentTrades = append(summary.RecentTrades, rt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating over recent trades: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing summary transaction: %w", err)
	}
	return summary, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}

// scanTrade reads one full trade row. The scan argument is either
// (*sql.Row).Scan or (*sql.Rows).Scan.
func scanTrade(scan func(dest ...any) error) (*models.Trade, error) {
	var (
		t          models.Trade
		side       string
		executedAt string
		createdAt  string
		source     sql.NullString
		sourceID   sql.NullString
		notes      sql.NullString
	)
	err := scan(&t.ID, &t.Symbol, &side, &t.Quantity, &t.Price, &t.Commission,
		&executedAt, &source, &sourceID, &notes, &createdAt)
	if err != nil {
		return nil, err
	}

	t.Side = models.Side(side)
	if source.Valid {
		t.Source = &source.String
	}
	if sourceID.Valid {
		t.SourceID = &sourceID.String
	}
	if notes.Valid {
		t.Notes = &notes.String
	}
	if t.ExecutedAt, err = parseTime(executedAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(writeTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// mapConstraintError translates SQLite constraint failures into the store's
// sentinel errors. The driver only exposes these as error text.
func mapConstraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "source_id"):
		return fmt.Errorf("%w: %s", ErrDuplicateSourceID, msg)
	case strings.Contains(msg, "constraint failed"):
		return fmt.Errorf("%w: %s", ErrConstraint, msg)
	}
	return fmt.Errorf("inserting trade: %w", err)
}
