// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// redisStore is the Redis-backed [DurableStore]. Each collection is a hash
// holding the values plus a sorted set ordering the keys by first write.
// Every mutation runs in MULTI/EXEC.
type redisStore struct {
	client *redis.Client
	prefix string
	logger *logger.Logger
}

// NewConnectRedis opens a Redis client and verifies the connection.
func NewConnectRedis(ctx context.Context, cfg config.ClientRedis, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Err(err).Str("func", "NewConnectRedis").Str("address", cfg.Address).Msg("error connecting redis (ping)")
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	log.Debug().Str("func", "NewConnectRedis").Str("address", cfg.Address).Msg("connected to redis successfully")

	return client, nil
}

// NewRedisStore returns a [DurableStore] on top of client. All keys are
// namespaced with prefix.
func NewRedisStore(client *redis.Client, prefix string, logger *logger.Logger) DurableStore {
	return &redisStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (s *redisStore) dataKey(c Collection) string  { return s.prefix + ":" + string(c) + ":data" }
func (s *redisStore) orderKey(c Collection) string { return s.prefix + ":" + string(c) + ":order" }
func (s *redisStore) seqKey(c Collection) string   { return s.prefix + ":" + string(c) + ":seq" }

func (s *redisStore) Put(ctx context.Context, collection Collection, key string, value []byte) error {
	if !collection.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	seq, err := s.client.Incr(ctx, s.seqKey(collection)).Result()
	if err != nil {
		return s.fail(ctx, "redisStore.Put", collection, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.dataKey(collection), key, value)
		// NX keeps the original position of an existing key
		pipe.ZAddNX(ctx, s.orderKey(collection), redis.Z{Score: float64(seq), Member: key})
		return nil
	})
	if err != nil {
		return s.fail(ctx, "redisStore.Put", collection, err)
	}

	return nil
}

func (s *redisStore) Get(ctx context.Context, collection Collection, key string) ([]byte, error) {
	if !collection.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	value, err := s.client.HGet(ctx, s.dataKey(collection), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, s.fail(ctx, "redisStore.Get", collection, err)
	}

	return value, nil
}

func (s *redisStore) GetAll(ctx context.Context, collection Collection) ([]Record, error) {
	if !collection.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	var (
		keysCmd *redis.StringSliceCmd
		dataCmd *redis.MapStringStringCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		keysCmd = pipe.ZRange(ctx, s.orderKey(collection), 0, -1)
		dataCmd = pipe.HGetAll(ctx, s.dataKey(collection))
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "redisStore.GetAll", collection, err)
	}

	data := dataCmd.Val()
	records := make([]Record, 0, len(data))
	for _, key := range keysCmd.Val() {
		value, ok := data[key]
		if !ok {
			continue
		}
		records = append(records, Record{Key: key, Value: []byte(value)})
	}

	return records, nil
}

func (s *redisStore) Delete(ctx context.Context, collection Collection, key string) error {
	if !collection.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.dataKey(collection), key)
		pipe.ZRem(ctx, s.orderKey(collection), key)
		return nil
	})
	if err != nil {
		return s.fail(ctx, "redisStore.Delete", collection, err)
	}

	return nil
}

func (s *redisStore) Clear(ctx context.Context, collection Collection) error {
	if !collection.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	if err := s.client.Del(ctx, s.dataKey(collection), s.orderKey(collection)).Err(); err != nil {
		return s.fail(ctx, "redisStore.Clear", collection, err)
	}

	return nil
}

func (s *redisStore) ReplaceAll(ctx context.Context, collection Collection, records []Record) error {
	if !collection.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.dataKey(collection), s.orderKey(collection), s.seqKey(collection))
		for i, rec := range records {
			pipe.HSet(ctx, s.dataKey(collection), rec.Key, rec.Value)
			pipe.ZAdd(ctx, s.orderKey(collection), redis.Z{Score: float64(i + 1), Member: rec.Key})
		}
		pipe.Set(ctx, s.seqKey(collection), len(records), 0)
		return nil
	})
	if err != nil {
		return s.fail(ctx, "redisStore.ReplaceAll", collection, err)
	}

	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func (s *redisStore) fail(ctx context.Context, fn string, collection Collection, err error) error {
	logger.FromContext(ctx).Err(err).
		Str("func", fn).
		Str("collection", string(collection)).
		Msg("redis command failed")
	return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
}
