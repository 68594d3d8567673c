package formstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/cgpa.works/internal/tuition"
)

// Store persists one State per session, one row per present field.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load returns the stored state of session. An unknown session yields an empty State.
func (s *Store) Load(ctx context.Context, session string) (State, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT field, value
		FROM form_fields
		WHERE session_id = ?
	`, session)
	if err != nil {
		return State{}, fmt.Errorf("query form fields: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return State{}, fmt.Errorf("scan form field: %w", err)
		}
		values[field] = value
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate form fields: %w", err)
	}

	return stateFromFields(values)
}

// Save replaces the stored state of session with st. Unset fields are removed.
func (s *Store) Save(ctx context.Context, session string, st State) error {
	values, err := st.fields()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}

	for _, field := range allFields {
		value, ok := values[field]
		if !ok {
			if _, err := tx.ExecContext(ctx, `DELETE FROM form_fields WHERE session_id = ? AND field = ?`, session, field); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("delete form field %s: %w", field, err)
			}
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO form_fields (session_id, field, value)
			VALUES (?, ?, ?)
			ON CONFLICT(session_id, field) DO UPDATE SET
				value = excluded.value,
				updated_at = CURRENT_TIMESTAMP
		`, session, field, value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert form field %s: %w", field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save transaction: %w", err)
	}
	return nil
}

// Reset removes every stored field of session.
func (s *Store) Reset(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM form_fields WHERE session_id = ?`, session); err != nil {
		return fmt.Errorf("delete form fields: %w", err)
	}
	return nil
}

// Defaults reads the settings singleton, falling back to built-in values
// when it has not been seeded.
func (s *Store) Defaults(ctx context.Context) (Defaults, error) {
	d := Defaults{TrimesterFee: tuition.DefaultFixedFee, Theme: ThemeDark}

	var fee int64
	var theme string
	err := s.db.QueryRowContext(ctx, `
		SELECT trimester_fee_cents, default_theme
		FROM settings
		WHERE id = 1
	`).Scan(&fee, &theme)
	if errors.Is(err, sql.ErrNoRows) {
		return d, nil
	}
	if err != nil {
		return Defaults{}, fmt.Errorf("query settings: %w", err)
	}

	d.TrimesterFee = tuition.Amount(fee)
	if theme != "" {
		d.Theme = theme
	}
	return d, nil
}
