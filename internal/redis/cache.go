package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-booking/internal/booking"
)

// SlotStatusCache caches per-doctor weekly slot summaries in Redis. Misses
// and Redis faults both fall through to the projector's store reads; a cache
// error is never surfaced to callers.
type SlotStatusCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewSlotStatusCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *SlotStatusCache {
	return &SlotStatusCache{client: client, ttl: ttl, log: log}
}

func statusKey(doctorID uuid.UUID) string {
	return fmt.Sprintf("slotstatus:doctor:%s", doctorID.String())
}

func (c *SlotStatusCache) Get(ctx context.Context, doctorID uuid.UUID) (map[string]booking.SlotStatusSummary, bool) {
	raw, err := c.client.Get(ctx, statusKey(doctorID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("slot status cache read failed")
		}
		return nil, false
	}

	var status map[string]booking.SlotStatusSummary
	if err := json.Unmarshal(raw, &status); err != nil {
		c.log.Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("slot status cache entry corrupt, dropping")
		c.Invalidate(ctx, doctorID)
		return nil, false
	}

	return status, true
}

func (c *SlotStatusCache) Set(ctx context.Context, doctorID uuid.UUID, status map[string]booking.SlotStatusSummary) {
	raw, err := json.Marshal(status)
	if err != nil {
		c.log.Warn().Err(err).Msg("marshal slot status for cache")
		return
	}

	if err := c.client.Set(ctx, statusKey(doctorID), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("slot status cache write failed")
	}
}

func (c *SlotStatusCache) Invalidate(ctx context.Context, doctorID uuid.UUID) {
	if err := c.client.Del(ctx, statusKey(doctorID)).Err(); err != nil {
		c.log.Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("slot status cache invalidation failed")
	}
}
