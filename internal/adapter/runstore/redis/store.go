// Package redis implements the run store: pollable evaluation run state
// keyed by run id, evicted by TTL once a run finishes.
package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

const keyPrefix = "evalrun:"

// runningTTL bounds how long a run that never finishes stays visible, so a
// crashed worker cannot leak keys forever.
const runningTTL = 24 * time.Hour

// Store implements domain.RunStore on Redis.
type Store struct {
	rdb *goredis.Client
}

func New(addr string, db int) *Store {
	return &Store{rdb: goredis.NewClient(&goredis.Options{Addr: addr, DB: db})}
}

// NewWithClient wraps an existing client; tests use this with miniredis.
func NewWithClient(rdb *goredis.Client) *Store { return &Store{rdb: rdb} }

func key(runID string) string { return keyPrefix + runID }

// Save upserts the run state, refreshing the safety TTL.
func (s *Store) Save(ctx domain.Context, state domain.RunState) error {
	if state.RunID == "" {
		return fmt.Errorf("op=run.save: %w: empty run id", domain.ErrInvalidArgument)
	}
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("op=run.save marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, key(state.RunID), b, runningTTL).Err(); err != nil {
		return fmt.Errorf("op=run.save: %w", err)
	}
	return nil
}

// Get loads one run state by id.
func (s *Store) Get(ctx domain.Context, runID string) (domain.RunState, error) {
	b, err := s.rdb.Get(ctx, key(runID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.RunState{}, fmt.Errorf("op=run.get id=%s: %w", runID, domain.ErrNotFound)
		}
		return domain.RunState{}, fmt.Errorf("op=run.get: %w", err)
	}
	var state domain.RunState
	if err := json.Unmarshal(b, &state); err != nil {
		return domain.RunState{}, fmt.Errorf("op=run.get decode: %w", err)
	}
	return state, nil
}

// Finish writes the terminal state and arms the eviction TTL.
func (s *Store) Finish(ctx domain.Context, state domain.RunState, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("op=run.finish marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, key(state.RunID), b, ttl).Err(); err != nil {
		return fmt.Errorf("op=run.finish: %w", err)
	}
	return nil
}

// Healthy pings the server.
func (s *Store) Healthy(ctx domain.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("op=redis.ping: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.rdb.Close() }
