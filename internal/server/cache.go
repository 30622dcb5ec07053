package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studypath/studypath/internal/store"
)

// PlanCache is a read-through cache for plan detail lookups. Keys are scoped
// by owner so a cached record can never leak across accounts. A nil receiver
// or nil client disables caching entirely, so handlers never branch on it.
type PlanCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPlanCache(rdb *redis.Client, ttl time.Duration) *PlanCache {
	return &PlanCache{rdb: rdb, ttl: ttl}
}

func (pc *PlanCache) enabled() bool { return pc != nil && pc.rdb != nil }

func planKey(userID, id string) string { return "plan:" + userID + ":" + id }

func (pc *PlanCache) Get(ctx context.Context, userID, id string) (store.PlanRecord, bool) {
	if !pc.enabled() {
		return store.PlanRecord{}, false
	}
	raw, err := pc.rdb.Get(ctx, planKey(userID, id)).Bytes()
	if err != nil {
		return store.PlanRecord{}, false
	}
	var rec store.PlanRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return store.PlanRecord{}, false
	}
	rec.UserID = userID
	return rec, true
}

func (pc *PlanCache) Put(ctx context.Context, rec store.PlanRecord) {
	if !pc.enabled() {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	pc.rdb.Set(ctx, planKey(rec.UserID, rec.ID), raw, pc.ttl)
}

func (pc *PlanCache) Invalidate(ctx context.Context, userID string, ids ...string) {
	if !pc.enabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = planKey(userID, id)
	}
	pc.rdb.Del(ctx, keys...)
}
