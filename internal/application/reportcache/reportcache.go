// Package reportcache stores rendered plan reports and drops them when a
// plan's meal options change.
package reportcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"go.uber.org/zap"
)

// Index keeps report keys grouped per plan
type Index struct {
	cache  outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// New creates an index; a nil cache disables caching
func New(cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *Index {
	return &Index{cache: cache, ttl: ttl, logger: logger.Named("report-cache")}
}

// Key identifies a report by plan and the targets it was compared with
func Key(planID uuid.UUID, targets nutrition.Targets) string {
	h := sha256.New()
	for _, n := range targets.Tracked() {
		fmt.Fprintf(h, "%s=%g;", n, targets[n])
	}
	return fmt.Sprintf("report:%s:%s", planID, hex.EncodeToString(h.Sum(nil))[:16])
}

func planSet(planID uuid.UUID) string {
	return "report-keys:" + planID.String()
}

// Get returns a cached report body. Cache failures count as misses.
func (i *Index) Get(ctx context.Context, key string) ([]byte, bool) {
	if i.cache == nil {
		return nil, false
	}
	data, err := i.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			i.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// Put stores a report body and indexes its key under the plan
func (i *Index) Put(ctx context.Context, planID uuid.UUID, key string, data []byte) {
	if i.cache == nil {
		return
	}
	if err := i.cache.Set(ctx, key, data, i.ttl); err != nil {
		i.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := i.cache.SAdd(ctx, planSet(planID), key); err != nil {
		i.logger.Warn("Cache index update failed", zap.String("plan_id", planID.String()), zap.Error(err))
	}
}

// Invalidate drops every cached report of the plan
func (i *Index) Invalidate(ctx context.Context, planID uuid.UUID) {
	if i.cache == nil {
		return
	}
	keys, err := i.cache.SMembers(ctx, planSet(planID))
	if err != nil {
		i.logger.Warn("Cache index read failed", zap.String("plan_id", planID.String()), zap.Error(err))
		return
	}
	keys = append(keys, planSet(planID))
	if err := i.cache.Delete(ctx, keys...); err != nil {
		i.logger.Warn("Cache invalidation failed", zap.String("plan_id", planID.String()), zap.Error(err))
		return
	}
	i.logger.Debug("Reports invalidated", zap.String("plan_id", planID.String()), zap.Int("keys", len(keys)-1))
}
