package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alim08/price_cache/pkg/logger"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	UpSQL       string
	DownSQL     string
}

// Migrations holds all database migrations
var Migrations = []Migration{
	{
		Version:     1,
		Description: "Create price cache schema",
		UpSQL: `
			-- One row per equity symbol; upserts overwrite in place.
			CREATE TABLE IF NOT EXISTS stock_prices (
				symbol VARCHAR(10) PRIMARY KEY,
				price DECIMAL(20,8) NOT NULL CHECK (price > 0),
				change DECIMAL(20,8) NOT NULL DEFAULT 0,
				change_percent DECIMAL(12,6) NOT NULL DEFAULT 0,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			-- One row per option contract; the 4-tuple is the identity.
			CREATE TABLE IF NOT EXISTS option_prices (
				symbol VARCHAR(10) NOT NULL,
				expiration DATE NOT NULL,
				strike DECIMAL(12,4) NOT NULL CHECK (strike > 0),
				option_type VARCHAR(4) NOT NULL CHECK (option_type IN ('call', 'put')),
				price DECIMAL(20,8) NOT NULL CHECK (price > 0),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (symbol, expiration, strike, option_type)
			);

			CREATE INDEX IF NOT EXISTS idx_option_prices_symbol ON option_prices(symbol);
			CREATE INDEX IF NOT EXISTS idx_option_prices_expiration ON option_prices(expiration);
		`,
		DownSQL: `
			DROP TABLE IF EXISTS option_prices;
			DROP TABLE IF EXISTS stock_prices;
		`,
	},
	{
		Version:     2,
		Description: "Create positions table",
		UpSQL: `
			CREATE TABLE IF NOT EXISTS positions (
				id BIGSERIAL PRIMARY KEY,
				account VARCHAR(50) NOT NULL,
				kind VARCHAR(10) NOT NULL CHECK (kind IN ('stock', 'option', 'cash')),
				ticker VARCHAR(30) NOT NULL,
				quantity DECIMAL(20,8) NOT NULL,
				expiration DATE,
				strike DECIMAL(12,4),
				option_type VARCHAR(4),
				status VARCHAR(10) NOT NULL DEFAULT 'open',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_positions_account ON positions(account);
			CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);
			CREATE INDEX IF NOT EXISTS idx_positions_ticker ON positions(ticker);
		`,
		DownSQL: `
			DROP TABLE IF EXISTS positions;
		`,
	},
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	logger.Log.Info("starting database migrations")

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range Migrations {
		if applied[migration.Version] {
			logger.Log.Debug("migration already applied", zap.Int("version", migration.Version))
			continue
		}

		logger.Log.Info("applying migration",
			zap.Int("version", migration.Version),
			zap.String("description", migration.Description))

		if err := db.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}

	logger.Log.Info("database migrations completed")
	return nil
}

// createMigrationsTable creates the migrations tracking table
func (db *DB) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

// getAppliedMigrations returns a map of applied migration versions
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]bool, error) {
	query := `SELECT version FROM migrations ORDER BY version`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// applyMigration applies a single migration inside a transaction
func (db *DB) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	query := `INSERT INTO migrations (version, description) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, query, migration.Version, migration.Description); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
