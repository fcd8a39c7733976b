package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/reelroom/backend/internal/models"
)

// MemoryWatchlistRepository implements WatchlistRepository for tests and local
// development. Updates for one user hold that user's lock for the whole
// read-modify-write; different users never contend.
type MemoryWatchlistRepository struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	docs  map[string]models.WatchlistDocument
	now   func() time.Time
}

// NewMemoryWatchlistRepository returns an empty in-memory repository.
func NewMemoryWatchlistRepository() *MemoryWatchlistRepository {
	return &MemoryWatchlistRepository{
		locks: make(map[string]*sync.Mutex),
		docs:  make(map[string]models.WatchlistDocument),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Load returns a copy of the user's document or ErrNotFound.
func (r *MemoryWatchlistRepository) Load(_ context.Context, userID string) (models.WatchlistDocument, error) {
	r.mu.Lock()
	doc, ok := r.docs[userID]
	r.mu.Unlock()
	if !ok {
		return models.WatchlistDocument{}, ErrNotFound
	}
	return doc.Clone(), nil
}

// Update applies fn to a copy of the document and stores it when fn succeeds.
func (r *MemoryWatchlistRepository) Update(ctx context.Context, userID string, createMissing bool, fn MutateFunc) (models.WatchlistDocument, error) {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return models.WatchlistDocument{}, err
	}

	r.mu.Lock()
	stored, ok := r.docs[userID]
	r.mu.Unlock()

	var doc models.WatchlistDocument
	switch {
	case ok:
		doc = stored.Clone()
	case createMissing:
		doc = models.NewWatchlistDocument(userID)
	default:
		return models.WatchlistDocument{}, ErrNotFound
	}

	if err := fn(&doc); err != nil {
		return models.WatchlistDocument{}, err
	}

	doc.Version++
	doc.UpdatedAt = r.now()

	r.mu.Lock()
	r.docs[userID] = doc.Clone()
	r.mu.Unlock()

	return doc, nil
}

func (r *MemoryWatchlistRepository) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	return lock
}

var _ WatchlistRepository = (*MemoryWatchlistRepository)(nil)
