package repository

import (
	"context"
	"sync/atomic"
	"time"

	"tourcrm/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverCacheRepository ходит в Redis, пока тот отвечает, и
// переключается на память при первой же ошибке. Раз в минуту пробует
// вернуться на основной.
type FailoverCacheRepository struct {
	primary   domain.CacheRepository
	fallback  domain.CacheRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nano
}

func NewFailoverCacheRepository(primary, fallback domain.CacheRepository, logger *zerolog.Logger) *FailoverCacheRepository {
	return &FailoverCacheRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverCacheRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary cache repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverCacheRepository) shouldRetryPrimary() bool {
	return r.isDown.Load() && time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute
}

func (r *FailoverCacheRepository) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	if !r.isDown.Load() {
		data, err := r.primary.GetSnapshot(ctx, key)
		if err == nil {
			return data, nil
		}
		r.markDown(err)
	}

	if r.shouldRetryPrimary() {
		data, err := r.primary.GetSnapshot(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			return data, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetSnapshot(ctx, key)
}

func (r *FailoverCacheRepository) SetSnapshot(ctx context.Context, key string, data []byte) error {
	if !r.isDown.Load() {
		err := r.primary.SetSnapshot(ctx, key, data)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSnapshot(ctx, key, data)
}

func (r *FailoverCacheRepository) Invalidate(ctx context.Context, key string) error {
	if !r.isDown.Load() {
		err := r.primary.Invalidate(ctx, key)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.Invalidate(ctx, key)
}

func (r *FailoverCacheRepository) CheckRateLimit(ctx context.Context, sender string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, sender, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, sender, limit, window)
}
