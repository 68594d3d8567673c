package seed

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/cgpa.works/internal/tuition"
)

const defaultTheme = "dark"

// Config contains the values required by startup seed.
type Config struct {
	TrimesterFee tuition.Amount
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureSettings(tx, cfg.TrimesterFee, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

// ensureSettings creates the settings singleton, or updates its fee when the
// configured one changed. A zero fee means unset and seeds the default.
func ensureSettings(tx *sql.Tx, fee tuition.Amount, stats *Stats) error {
	if fee <= 0 {
		fee = tuition.DefaultFixedFee
	}

	var current int64
	err := tx.QueryRow(`SELECT trimester_fee_cents FROM settings WHERE id = 1`).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.Exec(`
			INSERT INTO settings (id, trimester_fee_cents, default_theme)
			VALUES (1, ?, ?)
		`, int64(fee), defaultTheme); err != nil {
			return fmt.Errorf("insert settings singleton: %w", err)
		}
		stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("query settings singleton: %w", err)
	}

	if current == int64(fee) {
		return nil
	}

	if _, err := tx.Exec(`
		UPDATE settings
		SET trimester_fee_cents = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, int64(fee)); err != nil {
		return fmt.Errorf("update settings singleton: %w", err)
	}
	stats.Updates++
	return nil
}
