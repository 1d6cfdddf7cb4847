package workingdays

import (
	"context"

	"github.com/rs/zerolog"

	"salarizare/internal/platform/logger"
)

type Service struct {
	store StoreAPI
	log   zerolog.Logger

	// AfterUpdate runs once the calendar has been stored.
	AfterUpdate func(ctx context.Context)
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, log: logger.WithComponent("workingdays")}
}

func (s *Service) Get(ctx context.Context) (Data, error) {
	return s.store.Get(ctx)
}

// DaysFor returns the stored count for the month, or false when the month has
// not been filled in.
func (s *Service) DaysFor(ctx context.Context, year, month int) (int, bool, error) {
	data, err := s.store.Get(ctx)
	if err != nil {
		return 0, false, err
	}
	days, ok := data.DaysFor(year, month)
	return days, ok, nil
}

func (s *Service) Replace(ctx context.Context, data Data) error {
	if data == nil {
		data = Data{}
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if err := s.store.Put(ctx, data); err != nil {
		return err
	}
	s.log.Info().Int("years", len(data)).Msg("working days saved")
	if s.AfterUpdate != nil {
		s.AfterUpdate(ctx)
	}
	return nil
}

// SetMonth updates a single month, keeping the rest of the calendar.
func (s *Service) SetMonth(ctx context.Context, year, month, days int) error {
	data, err := s.store.Get(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		data = Data{}
	}
	if err := data.Set(year, month, days); err != nil {
		return err
	}
	return s.Replace(ctx, data)
}
