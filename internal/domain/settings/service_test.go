package settings

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	stored Settings
	puts   int
	err    error
}

func (f *fakeStore) Get(ctx context.Context) (Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stored.Clone(), nil
}

func (f *fakeStore) Put(ctx context.Context, s Settings) error {
	if f.err != nil {
		return f.err
	}
	f.puts++
	f.stored = s.Clone()
	return nil
}

func newTestService(store StoreAPI, now time.Time) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return now }
	return svc
}

func TestServiceLoadPersistsNormalizedSettings(t *testing.T) {
	store := &fakeStore{stored: Settings{KeyCAS: {CurrentValue: 25, History: []HistoryEntry{{Value: 25, StartDate: "2024-01-01"}}}}}
	svc := newTestService(store, day1)

	got, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got[KeyCAS].CurrentValue != 0.25 {
		t.Fatalf("expected CAS 0.25, got %v", got[KeyCAS].CurrentValue)
	}
	if store.puts != 1 {
		t.Fatalf("expected one write, got %d", store.puts)
	}

	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if store.puts != 1 {
		t.Fatalf("normalized settings should not be written again, got %d writes", store.puts)
	}
}

func TestServiceUpdateRunsHook(t *testing.T) {
	store := &fakeStore{stored: Settings{}}
	svc := newTestService(store, day2)

	var updated []Key
	svc.AfterUpdate = func(ctx context.Context, key Key) { updated = append(updated, key) }

	next, err := svc.Update(context.Background(), KeyCotaImpozit, 16, true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if next[KeyCotaImpozit].CurrentValue != 0.16 {
		t.Fatalf("expected 0.16, got %v", next[KeyCotaImpozit].CurrentValue)
	}
	if store.stored[KeyCotaImpozit].CurrentValue != 0.16 {
		t.Fatal("expected update to be persisted")
	}
	if len(updated) != 1 || updated[0] != KeyCotaImpozit {
		t.Fatalf("expected hook for %q, got %v", KeyCotaImpozit, updated)
	}
}

func TestServiceUpdateRejectsInvalid(t *testing.T) {
	store := &fakeStore{stored: Settings{}}
	svc := newTestService(store, day2)
	svc.AfterUpdate = func(ctx context.Context, key Key) { t.Fatal("hook must not run") }

	if _, err := svc.Update(context.Background(), KeyCAS, -3, false); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestServiceValuesPropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	svc := newTestService(&fakeStore{err: boom}, day1)
	if _, err := svc.Values(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
