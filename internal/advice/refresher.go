package advice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tuutuut/tuutuut-api/internal/models"
)

// ErrRefreshInFlight is returned when a refresh for the same car has
// not finished yet.
var ErrRefreshInFlight = errors.New("advice refresh already in flight for this car")

// Fetcher is the slice of the AI client the refresher needs.
type Fetcher interface {
	GetMaintenanceAdvice(ctx context.Context, car models.Car, history []models.MaintenanceRecord) ([]models.MaintenanceSuggestion, error)
}

// Store is the slice of the persistence layer the refresher needs.
type Store interface {
	FindCarByID(ctx context.Context, ownerID, id string) (*models.Car, error)
	FindRecordsByCar(ctx context.Context, ownerID, carID string) ([]models.MaintenanceRecord, error)
	ReplaceAdvice(ctx context.Context, ownerID, id string, advice []models.MaintenanceSuggestion, at time.Time) error
}

// Refresher coordinates advice refreshes: at most one request in
// flight per car, and a slow response never overwrites a cache that a
// faster refresh filled in the meantime.
type Refresher struct {
	fetcher Fetcher
	store   Store

	mu       sync.Mutex
	inflight map[string]bool

	now func() time.Time
}

// NewRefresher creates a refresher over the given fetcher and store.
func NewRefresher(fetcher Fetcher, store Store) *Refresher {
	return &Refresher{
		fetcher:  fetcher,
		store:    store,
		inflight: make(map[string]bool),
		now:      time.Now,
	}
}

func (r *Refresher) begin(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[key] {
		return false
	}
	r.inflight[key] = true
	return true
}

func (r *Refresher) end(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, key)
}

// Refresh fetches a new suggestion list for one car and replaces the
// cache. On fetch failure the cached state is left untouched and the
// error is returned. Returns the car as stored after the refresh.
func (r *Refresher) Refresh(ctx context.Context, ownerID, carID string) (*models.Car, error) {
	key := ownerID + "/" + carID
	if !r.begin(key) {
		return nil, ErrRefreshInFlight
	}
	defer r.end(key)

	car, err := r.store.FindCarByID(ctx, ownerID, carID)
	if err != nil {
		return nil, err
	}
	history, err := r.store.FindRecordsByCar(ctx, ownerID, carID)
	if err != nil {
		return nil, err
	}

	started := r.now()
	suggestions, err := r.fetcher.GetMaintenanceAdvice(ctx, *car, history)
	if err != nil {
		return nil, err
	}

	// Re-read before writing: if another path cached newer advice
	// while this request was running, this response is stale and must
	// not win.
	current, err := r.store.FindCarByID(ctx, ownerID, carID)
	if err != nil {
		return nil, err
	}
	if current.LastAdviceDate != nil && current.LastAdviceDate.After(started) {
		return current, nil
	}

	if err := r.store.ReplaceAdvice(ctx, ownerID, carID, suggestions, r.now()); err != nil {
		return nil, err
	}
	return r.store.FindCarByID(ctx, ownerID, carID)
}
