package settings

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/rs/zerolog"

	"salarizare/internal/platform/logger"
)

type Service struct {
	store StoreAPI
	log   zerolog.Logger
	now   func() time.Time

	// AfterUpdate runs once a new value has been stored.
	AfterUpdate func(ctx context.Context, key Key)
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, log: logger.WithComponent("settings"), now: time.Now}
}

// Load reads the stored settings and persists them back when normalisation
// changed anything (first run, legacy labels, whole-number rates).
func (s *Service) Load(ctx context.Context) (Settings, error) {
	stored, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	normalized := Normalize(stored, s.now())
	if !reflect.DeepEqual(stored, normalized) {
		if err := s.store.Put(ctx, normalized); err != nil {
			return nil, err
		}
		s.log.Info().Int("keys", len(normalized)).Msg("legal settings normalized")
	}
	return normalized, nil
}

func (s *Service) Values(ctx context.Context) (Values, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return Values{}, err
	}
	return current.Values(), nil
}

// Update stores a new value for key. With percent set, rate keys take the
// value as a whole percentage.
func (s *Service) Update(ctx context.Context, key Key, value float64, percent bool) (Settings, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	var next Settings
	if percent {
		next, err = SetPercent(current, key, value, s.now())
	} else {
		next, err = Set(current, key, value, s.now())
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info().Str("key", string(key)).Float64("value", next[key].CurrentValue).Msg("legal setting updated")
	if s.AfterUpdate != nil {
		s.AfterUpdate(ctx, key)
	}
	return next, nil
}

// Replace stores a full settings document after normalising it. The hook
// receives an empty key.
func (s *Service) Replace(ctx context.Context, next Settings) (Settings, error) {
	for key, attr := range next {
		if _, ok := Lookup(key); !ok && key != legacyKeyTichetDeMasa {
			return nil, fmt.Errorf("%q: %w", key, ErrUnknownKey)
		}
		if math.IsNaN(attr.CurrentValue) || math.IsInf(attr.CurrentValue, 0) || attr.CurrentValue < 0 {
			return nil, fmt.Errorf("%q: %w", key, ErrInvalidValue)
		}
	}
	normalized := Normalize(next, s.now())
	if err := s.store.Put(ctx, normalized); err != nil {
		return nil, err
	}
	s.log.Info().Int("keys", len(normalized)).Msg("legal settings replaced")
	if s.AfterUpdate != nil {
		s.AfterUpdate(ctx, "")
	}
	return normalized, nil
}
