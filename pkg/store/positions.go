package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alim08/price_cache/pkg/metrics"
	"github.com/alim08/price_cache/pkg/models"
)

// PositionSource supplies the position records the instrument universe is
// derived from. The cache only reads positions; the dashboard owns writes.
type PositionSource interface {
	OpenPositions(ctx context.Context) ([]models.Position, error)
}

// positionStore implements PositionSource on Postgres
type positionStore struct {
	db *DB
}

// NewPositionSource creates a PositionSource backed by the given connection
func NewPositionSource(db *DB) PositionSource {
	return &positionStore{db: db}
}

// OpenPositions returns every open position across all accounts.
func (s *positionStore) OpenPositions(ctx context.Context) ([]models.Position, error) {
	start := time.Now()
	defer func() {
		metrics.DatabaseOperationDuration.WithLabelValues("open_positions", "success").Observe(time.Since(start).Seconds())
	}()

	query := `
		SELECT account, kind, ticker, quantity, expiration, strike, option_type
		FROM positions
		WHERE status = 'open'
		ORDER BY account, ticker
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		metrics.DatabaseErrors.WithLabelValues("open_positions").Inc()
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		var kind string
		var expiration sql.NullTime
		var strike decimal.NullDecimal
		var optionType sql.NullString
		if err := rows.Scan(&p.Account, &kind, &p.Ticker, &p.Quantity, &expiration, &strike, &optionType); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		p.Kind = models.PositionKind(kind)
		if expiration.Valid {
			p.Expiration = expiration.Time
		}
		if strike.Valid {
			p.Strike = strike.Decimal
		}
		if optionType.Valid {
			p.OptionType = models.OptionType(optionType.String)
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	metrics.DatabaseOperations.WithLabelValues("open_positions", "success").Inc()
	return positions, nil
}
