package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pvplabs/predictor-api/internal/predictor"
)

const adversaryIndexKey = "combat:adversaries"

func historyKey(adversary string) string {
	return "combat:history:" + adversary
}

// HistoryStore persists per-adversary attack logs as JSON snapshots.
type HistoryStore struct {
	redis RedisClient
}

func NewHistoryStore(client RedisClient) *HistoryStore {
	return &HistoryStore{redis: client}
}

// Save writes the snapshot and registers the adversary in the index set.
func (s *HistoryStore) Save(ctx context.Context, adversary string, snap predictor.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling history snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, historyKey(adversary), data, 0).Err(); err != nil {
		return fmt.Errorf("persisting history: %w", err)
	}
	if err := s.redis.SAdd(ctx, adversaryIndexKey, adversary).Err(); err != nil {
		return fmt.Errorf("indexing adversary: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot. The second return is false when
// no snapshot exists for the adversary.
func (s *HistoryStore) Load(ctx context.Context, adversary string) (predictor.Snapshot, bool, error) {
	data, err := s.redis.Get(ctx, historyKey(adversary)).Bytes()
	if err == redis.Nil {
		return predictor.Snapshot{}, false, nil
	}
	if err != nil {
		return predictor.Snapshot{}, false, fmt.Errorf("loading history: %w", err)
	}
	var snap predictor.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return predictor.Snapshot{}, false, fmt.Errorf("decoding history snapshot: %w", err)
	}
	return snap, true, nil
}

// Delete removes the adversary's snapshot and index entry.
func (s *HistoryStore) Delete(ctx context.Context, adversary string) error {
	if err := s.redis.Del(ctx, historyKey(adversary)).Err(); err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	if err := s.redis.SRem(ctx, adversaryIndexKey, adversary).Err(); err != nil {
		return fmt.Errorf("unindexing adversary: %w", err)
	}
	return nil
}

// Adversaries lists every adversary with a persisted snapshot.
func (s *HistoryStore) Adversaries(ctx context.Context) ([]string, error) {
	names, err := s.redis.SMembers(ctx, adversaryIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing adversaries: %w", err)
	}
	return names, nil
}
