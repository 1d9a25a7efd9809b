package services

import (
	"context"

	"github.com/google/uuid"

	redisclient "github.com/examtree/examtree-backend/internal/clients/redis"
	"github.com/examtree/examtree-backend/internal/platform/cache"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// Read cache keys are rooted at the exam so one prefix drop covers every
// projection and arena under a mutated ancestor.
const projectionKeyRoot = "proj:"

func examKeyPrefix(examID uuid.UUID) string { return projectionKeyRoot + examID.String() + ":" }

func arenaKey(examID uuid.UUID) string { return examKeyPrefix(examID) + "arena" }

func subjectTreeKey(examID, subjectID uuid.UUID) string {
	return examKeyPrefix(examID) + "subject:" + subjectID.String()
}

// Invalidator is the one path through which write operations touch the
// read cache: drop the local prefix, then tell peers over the bus. The
// bus may be nil (single instance).
type Invalidator struct {
	cache *cache.Cache
	bus   redisclient.InvalidationBus
	log   *logger.Logger
}

func NewInvalidator(c *cache.Cache, bus redisclient.InvalidationBus, baseLog *logger.Logger) *Invalidator {
	return &Invalidator{cache: c, bus: bus, log: baseLog.With("service", "Invalidator")}
}

func (iv *Invalidator) InvalidateExam(ctx context.Context, examID uuid.UUID) {
	if iv == nil || examID == uuid.Nil {
		return
	}
	prefix := examKeyPrefix(examID)
	dropped := iv.cache.InvalidatePrefix(prefix)
	if dropped > 0 {
		iv.log.Debug("Invalidated cached reads", "prefix", prefix, "dropped", dropped)
	}
	if iv.bus != nil {
		if err := iv.bus.Publish(ctx, prefix); err != nil {
			iv.log.Warn("Invalidation broadcast failed", "prefix", prefix, "error", err)
		}
	}
}

// InvalidateAll drops every cached projection. Used when a write cannot
// be attributed to one exam, so no stale read survives it.
func (iv *Invalidator) InvalidateAll(ctx context.Context) {
	if iv == nil {
		return
	}
	dropped := iv.cache.InvalidatePrefix(projectionKeyRoot)
	if dropped > 0 {
		iv.log.Debug("Invalidated all cached reads", "dropped", dropped)
	}
	if iv.bus != nil {
		if err := iv.bus.Publish(ctx, projectionKeyRoot); err != nil {
			iv.log.Warn("Invalidation broadcast failed", "prefix", projectionKeyRoot, "error", err)
		}
	}
}

// DropPrefix applies an invalidation received from a peer.
func (iv *Invalidator) DropPrefix(prefix string) {
	if iv == nil || prefix == "" {
		return
	}
	iv.cache.InvalidatePrefix(prefix)
}
