// Package redis implements the store.KeyValue boundary on top of Redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// maxUpdateRetries bounds optimistic-lock retries in Update.
const maxUpdateRetries = 16

// KV stores values as plain Redis strings under a Keyspace.
type KV struct {
	client *redis.Client
	keys   Keyspace
}

func NewKV(client *redis.Client, keys Keyspace) *KV {
	return &KV{client: client, keys: keys}
}

func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.keys.Key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *KV) Put(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.keys.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keys.Key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Update runs fn under WATCH and writes the result in a MULTI block,
// retrying when another client modified the key in between.
func (s *KV) Update(ctx context.Context, key string, fn func(current string, found bool) (string, error)) error {
	redisKey := s.keys.Key(key)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, redisKey).Result()
		found := true
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				return fmt.Errorf("failed to get %s: %w", key, err)
			}
			found = false
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, redisKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to update %s: too much contention", key)
}

// Keys lists the logical keys present in the keyspace.
func (s *KV) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.keys.Pattern(), 0).Iterator()
	for iter.Next(ctx) {
		name, err := s.keys.Extract(iter.Val())
		if err != nil {
			continue
		}
		keys = append(keys, name)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	return keys, nil
}

// Flush removes every key in the keyspace.
func (s *KV) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.keys.Pattern(), 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush keys: %w", err)
	}
	return nil
}
