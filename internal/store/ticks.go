package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pvplabs/predictor-api/internal/models"
)

func tickKey(adversary string) string {
	return "combat:ticks:" + adversary
}

func weightsKey(adversary string) string {
	return "combat:weights:" + adversary
}

// TickStore persists tick records as a capped redis list per adversary
// and strategy weight documents as single JSON values. It satisfies
// predictor.TickStore on the read side.
type TickStore struct {
	redis    RedisClient
	maxTicks int
}

func NewTickStore(client RedisClient, maxTicks int) *TickStore {
	if maxTicks <= 0 {
		maxTicks = 2000
	}
	return &TickStore{redis: client, maxTicks: maxTicks}
}

// AppendTicks pushes records to the tail of the adversary's tick list
// and trims the head past the cap.
func (s *TickStore) AppendTicks(ctx context.Context, adversary string, records []models.TickRecord) error {
	if len(records) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling tick record: %w", err)
		}
		values = append(values, data)
	}
	if err := s.redis.RPush(ctx, tickKey(adversary), values...).Err(); err != nil {
		return fmt.Errorf("appending ticks: %w", err)
	}
	if err := s.redis.LTrim(ctx, tickKey(adversary), int64(-s.maxTicks), -1).Err(); err != nil {
		return fmt.Errorf("trimming ticks: %w", err)
	}
	return nil
}

// TickHistory returns the adversary's stored tick records, oldest first.
// Records that fail to decode are skipped.
func (s *TickStore) TickHistory(ctx context.Context, adversary string) ([]models.TickRecord, error) {
	raw, err := s.redis.LRange(ctx, tickKey(adversary), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("loading ticks: %w", err)
	}
	records := make([]models.TickRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.TickRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveWeights stores the adversary's strategy weight document.
func (s *TickStore) SaveWeights(ctx context.Context, adversary string, weights models.StrategyWeights) error {
	data, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("marshaling weights: %w", err)
	}
	if err := s.redis.Set(ctx, weightsKey(adversary), data, 0).Err(); err != nil {
		return fmt.Errorf("persisting weights: %w", err)
	}
	return nil
}

// StrategyWeights returns the stored weight document, or the defaults
// when none exists.
func (s *TickStore) StrategyWeights(ctx context.Context, adversary string) (models.StrategyWeights, error) {
	data, err := s.redis.Get(ctx, weightsKey(adversary)).Bytes()
	if err == redis.Nil {
		return models.DefaultStrategyWeights(), nil
	}
	if err != nil {
		return models.StrategyWeights{}, fmt.Errorf("loading weights: %w", err)
	}
	var weights models.StrategyWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return models.StrategyWeights{}, fmt.Errorf("decoding weights: %w", err)
	}
	return weights, nil
}

// DeleteTicks drops the adversary's tick list and weight document.
func (s *TickStore) DeleteTicks(ctx context.Context, adversary string) error {
	if err := s.redis.Del(ctx, tickKey(adversary), weightsKey(adversary)).Err(); err != nil {
		return fmt.Errorf("deleting ticks: %w", err)
	}
	return nil
}
