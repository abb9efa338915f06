package autozero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	credis "github.com/DIMO-Network/shared/redis"
	"github.com/go-redis/redis/v8"
)

const snapshotKey = "autozero_snapshot"

// Store persists the zeroed-metric snapshot as one JSON document in Redis,
// without a TTL. Retention is enforced on load, not by expiry.
type Store struct {
	Redis credis.CacheService
}

func NewStore(cache credis.CacheService) *Store {
	return &Store{Redis: cache}
}

// Save overwrites the snapshot.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	status := s.Redis.Set(ctx, snapshotKey, b, 0)
	if status.Err() != nil {
		return fmt.Errorf("failed to set cache value: %w", status.Err())
	}

	return nil
}

// Load reads the snapshot. A missing key is a cold start and yields an empty
// snapshot with no error; a corrupt or unreadable one yields an empty
// snapshot and the error for the caller to log. Load never returns nil.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := s.Redis.Get(ctx, snapshotKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Snapshot{}, nil
		}
		return &Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snap := new(Snapshot)
	if err := json.Unmarshal([]byte(raw), snap); err != nil {
		return &Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snap, nil
}

// Purge deletes the snapshot outright. Used by the purge-zero-states
// subcommand.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.Redis.Del(ctx, snapshotKey).Result(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
