// Package redisstore provides a Redis-backed durable step store so that
// interrupted executions can resume across worker processes.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "steps:"

// Store implements durable.StepStore on a Redis instance. Committed results
// expire after TTL; expired steps simply re-execute on resume.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewStore creates a Redis step store. A zero TTL keeps results forever.
func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// NewStoreFromAddr dials a single Redis node.
func NewStoreFromAddr(ctx context.Context, addr string, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	return NewStore(client, ttl), nil
}

func (s *Store) Get(ctx context.Context, executionID, stepName string) (json.RawMessage, bool, error) {
	payload, err := s.client.Get(ctx, s.key(executionID, stepName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to read step %s: %w", stepName, err)
	}

	return payload, true, nil
}

func (s *Store) Put(ctx context.Context, executionID, stepName string, result json.RawMessage) error {
	err := s.client.Set(ctx, s.key(executionID, stepName), []byte(result), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to commit step %s: %w", stepName, err)
	}

	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(executionID, stepName string) string {
	return keyPrefix + executionID + ":" + stepName
}
