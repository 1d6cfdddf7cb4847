package workingdays

import (
	"context"
	"strconv"

	"salarizare/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context) (Data, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT year, month, days
    FROM working_days
    ORDER BY year, month
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := Data{}
	for rows.Next() {
		var year, month, days int
		if err := rows.Scan(&year, &month, &days); err != nil {
			return nil, err
		}
		key := strconv.Itoa(year)
		if out[key] == nil {
			out[key] = map[int]int{}
		}
		out[key][month] = days
	}
	return out, rows.Err()
}

// Put replaces the whole calendar.
func (s *Store) Put(ctx context.Context, data Data) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM working_days`); err != nil {
		return err
	}
	for yearKey, months := range data {
		year, err := strconv.Atoi(yearKey)
		if err != nil {
			return err
		}
		for month, days := range months {
			if _, err := tx.Exec(ctx, `
        INSERT INTO working_days (year, month, days)
        VALUES ($1, $2, $3)
      `, year, month, days); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}
