package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"salarizare/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context) (Settings, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT key, current_value, history
    FROM legal_settings
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := Settings{}
	for rows.Next() {
		var key string
		var attr Attribute
		var raw []byte
		if err := rows.Scan(&key, &attr.CurrentValue, &raw); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &attr.History); err != nil {
				return nil, fmt.Errorf("decode history of %q: %w", key, err)
			}
		}
		out[Key(key)] = attr
	}
	return out, rows.Err()
}

// Put writes every attribute and removes keys no longer present.
func (s *Store) Put(ctx context.Context, settings Settings) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	keys := make([]string, 0, len(settings))
	for key, attr := range settings {
		history := attr.History
		if history == nil {
			history = []HistoryEntry{}
		}
		payload, err := json.Marshal(history)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO legal_settings (key, current_value, history, updated_at)
      VALUES ($1, $2, $3, now())
      ON CONFLICT (key) DO UPDATE
      SET current_value = EXCLUDED.current_value, history = EXCLUDED.history, updated_at = now()
    `, string(key), attr.CurrentValue, payload); err != nil {
			return fmt.Errorf("save setting %q: %w", key, err)
		}
		keys = append(keys, string(key))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM legal_settings WHERE NOT (key = ANY($1))`, keys); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
