package memory

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"autosense/domain/core"
	"autosense/domain/dataset"
)

// DatasetStore keeps recently uploaded frames in memory. The least recently
// used frame is evicted once capacity is reached.
type DatasetStore struct {
	cache *ttlcache.Cache[core.DatasetHash, *dataset.Frame]
}

// NewDatasetStore creates a store holding at most capacity frames. A zero ttl
// keeps frames until they are evicted.
func NewDatasetStore(capacity int, ttl time.Duration) *DatasetStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[core.DatasetHash, *dataset.Frame](ttl),
		ttlcache.WithCapacity[core.DatasetHash, *dataset.Frame](uint64(capacity)),
	)
	return &DatasetStore{cache: cache}
}

// Put stores a frame under its content hash.
func (s *DatasetStore) Put(_ context.Context, frame *dataset.Frame) error {
	if frame.IsEmpty() {
		return core.ErrEmptyDataset
	}
	s.cache.Set(frame.ID, frame, ttlcache.DefaultTTL)
	return nil
}

// Get returns the frame stored under id.
func (s *DatasetStore) Get(_ context.Context, id core.DatasetHash) (*dataset.Frame, error) {
	item := s.cache.Get(id)
	if item == nil {
		return nil, core.NewNotFoundError("dataset", id.String())
	}
	return item.Value(), nil
}

// Len returns the number of stored frames.
func (s *DatasetStore) Len() int {
	return s.cache.Len()
}
