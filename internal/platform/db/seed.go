package db

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Seeder is one idempotent seeding step.
type Seeder struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Seed runs the steps in order and stops at the first failure.
func Seed(ctx context.Context, steps ...Seeder) error {
	for _, step := range steps {
		n, err := step.Run(ctx)
		if err != nil {
			return err
		}
		log.Info().Str("step", step.Name).Int("rows", n).Msg("seed step done")
	}
	return nil
}
