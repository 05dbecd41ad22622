package repository

import (
	"context"
	"sync"
	"time"
)

type MemoryCacheRepository struct {
	snapshots  sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

type snapshotEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryCacheRepository(ttl time.Duration) *MemoryCacheRepository {
	return &MemoryCacheRepository{
		ttl: ttl,
	}
}

func (r *MemoryCacheRepository) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	val, ok := r.snapshots.Load(key)
	if !ok {
		return nil, nil
	}
	entry := val.(*snapshotEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.snapshots.Delete(key)
		return nil, nil
	}
	return entry.data, nil
}

func (r *MemoryCacheRepository) SetSnapshot(ctx context.Context, key string, data []byte) error {
	r.snapshots.Store(key, &snapshotEntry{data: data, expiresAt: time.Now().Add(r.ttl)})
	return nil
}

func (r *MemoryCacheRepository) Invalidate(ctx context.Context, key string) error {
	r.snapshots.Delete(key)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryCacheRepository) CheckRateLimit(ctx context.Context, sender string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(sender)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(sender, entry)
	return entry.count <= limit, nil
}
