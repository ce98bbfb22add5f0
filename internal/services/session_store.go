package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/cache"
)

const (
	sessionKeyPrefix = "quiz:session:"
	lockKeyPrefix    = "quiz:lock:"
	lockTTL          = 10 * time.Second
)

// redisSessionStore keeps sessions under quiz:session:<user>:<session> so a
// user's sessions can be listed with one key scan.
type redisSessionStore struct {
	cache cache.CacheService
	ttl   time.Duration
}

func NewRedisSessionStore(cache cache.CacheService, ttl time.Duration) SessionStore {
	return &redisSessionStore{cache: cache, ttl: ttl}
}

func sessionKey(userID, sessionID string) string {
	return sessionKeyPrefix + userID + ":" + sessionID
}

func (r *redisSessionStore) Save(ctx context.Context, session *SessionRecord) error {
	return r.cache.Set(ctx, sessionKey(session.UserID, session.ID), session, r.ttl)
}

func (r *redisSessionStore) Load(ctx context.Context, userID, sessionID string) (*SessionRecord, error) {
	var record SessionRecord
	if err := r.cache.Get(ctx, sessionKey(userID, sessionID), &record); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &record, nil
}

func (r *redisSessionStore) Delete(ctx context.Context, userID, sessionID string) error {
	return r.cache.Delete(ctx, sessionKey(userID, sessionID))
}

func (r *redisSessionStore) ListByUser(ctx context.Context, userID string) ([]*SessionRecord, error) {
	return r.list(ctx, sessionKeyPrefix+userID+":*")
}

func (r *redisSessionStore) ListAll(ctx context.Context) ([]*SessionRecord, error) {
	return r.list(ctx, sessionKeyPrefix+"*")
}

func (r *redisSessionStore) list(ctx context.Context, pattern string) ([]*SessionRecord, error) {
	keys, err := r.cache.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}
	records := make([]*SessionRecord, 0, len(keys))
	for _, key := range keys {
		var record SessionRecord
		if err := r.cache.Get(ctx, key, &record); err != nil {
			// expired between scan and get
			if errors.Is(err, cache.ErrCacheMiss) {
				continue
			}
			return nil, fmt.Errorf("failed to load session %s: %w", strings.TrimPrefix(key, sessionKeyPrefix), err)
		}
		records = append(records, &record)
	}
	return records, nil
}

func (r *redisSessionStore) Lock(ctx context.Context, sessionID string) (func(context.Context) error, error) {
	unlock, err := r.cache.Lock(ctx, lockKeyPrefix+sessionID, lockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return nil, ErrSessionBusy
		}
		return nil, err
	}
	return unlock, nil
}
