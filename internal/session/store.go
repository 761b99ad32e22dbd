// Package session implements opaque server-side sessions and the per-session
// flash message queue.
//
// A session is a random token handed to the browser in an HTTP-only cookie;
// the token maps to a user ID in Redis with a sliding TTL. When Redis is
// unavailable the store degrades to an in-process map so local development
// and tests work without infrastructure.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// GuestUserID marks a session that carries flashes for a visitor who is not
// logged in.
const GuestUserID uint = 0

// Flash is a one-shot notification queued for the next page the user loads.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type localEntry struct {
	userID    uint
	expiresAt time.Time
	flashes   []Flash
}

// Store manages session tokens and their flash queues.
type Store struct {
	rdb *redis.Client
	ttl time.Duration

	mu    sync.Mutex
	local map[string]*localEntry
}

// NewStore creates a session store backed by rdb with the given sliding TTL.
// A nil client selects the in-process fallback.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb:   rdb,
		ttl:   ttl,
		local: make(map[string]*localEntry),
	}
}

func sessionKey(token string) string {
	return "session:" + token
}

func flashKey(token string) string {
	return "session:" + token + ":flashes"
}

// Create mints a new session token for userID. Use GuestUserID for a visitor
// session that only carries flashes.
func (s *Store) Create(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()

	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pruneLocked()
		s.local[token] = &localEntry{userID: userID, expiresAt: time.Now().Add(s.ttl)}
		return token, nil
	}

	if err := s.rdb.Set(ctx, sessionKey(token), strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Resolve looks up token and returns the associated user ID. The second
// return value is false when the token is unknown or expired. Resolving a
// live session slides its expiry forward.
func (s *Store) Resolve(ctx context.Context, token string) (uint, bool) {
	if token == "" {
		return 0, false
	}

	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		entry, ok := s.local[token]
		if !ok || time.Now().After(entry.expiresAt) {
			delete(s.local, token)
			return 0, false
		}
		entry.expiresAt = time.Now().Add(s.ttl)
		return entry.userID, true
	}

	raw, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		return 0, false
	}

	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		// Corrupt session entry; treat as unauthenticated.
		s.rdb.Del(ctx, sessionKey(token), flashKey(token))
		return 0, false
	}

	// Sliding expiration: active sessions stay alive.
	s.rdb.Expire(ctx, sessionKey(token), s.ttl)
	s.rdb.Expire(ctx, flashKey(token), s.ttl)

	return uint(userID), true
}

// Destroy removes the session and any queued flashes. Unknown tokens are a
// no-op.
func (s *Store) Destroy(ctx context.Context, token string) {
	if token == "" {
		return
	}

	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.local, token)
		return
	}

	s.rdb.Del(ctx, sessionKey(token), flashKey(token))
}

// AddFlash queues a flash message on the session identified by token.
func (s *Store) AddFlash(ctx context.Context, token, category, message string) error {
	flash := Flash{Category: category, Message: message}

	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		entry, ok := s.local[token]
		if !ok || time.Now().After(entry.expiresAt) {
			return fmt.Errorf("unknown session")
		}
		entry.flashes = append(entry.flashes, flash)
		return nil
	}

	data, err := json.Marshal(flash)
	if err != nil {
		return err
	}
	if err := s.rdb.RPush(ctx, flashKey(token), data).Err(); err != nil {
		return fmt.Errorf("failed to queue flash: %w", err)
	}
	s.rdb.Expire(ctx, flashKey(token), s.ttl)
	return nil
}

// PopFlashes drains and returns all queued flashes for the session, oldest
// first. An unknown session yields an empty slice.
func (s *Store) PopFlashes(ctx context.Context, token string) []Flash {
	if token == "" {
		return nil
	}

	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		entry, ok := s.local[token]
		if !ok {
			return nil
		}
		flashes := entry.flashes
		entry.flashes = nil
		return flashes
	}

	pipe := s.rdb.TxPipeline()
	rangeCmd := pipe.LRange(ctx, flashKey(token), 0, -1)
	pipe.Del(ctx, flashKey(token))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil
	}

	raws := rangeCmd.Val()
	flashes := make([]Flash, 0, len(raws))
	for _, raw := range raws {
		var f Flash
		if err := json.Unmarshal([]byte(raw), &f); err == nil {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// pruneLocked drops expired in-process entries. Caller must hold mu.
func (s *Store) pruneLocked() {
	now := time.Now()
	for token, entry := range s.local {
		if now.After(entry.expiresAt) {
			delete(s.local, token)
		}
	}
}
