package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ivlev/promoreel/internal/manifest"
)

const keyPrefix = "promoreel:manifest:"

// RedisStore keeps every version in a hash keyed by version number and the
// latest version number in a separate key, updated under WATCH.
type RedisStore struct {
	rdb *redis.Client
}

// RedisConfig mirrors the options the server exposes.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{rdb: rdb}
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func latestKey(id string) string   { return keyPrefix + id + ":latest" }
func versionsKey(id string) string { return keyPrefix + id + ":versions" }

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Save(ctx context.Context, m manifest.VideoManifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	lk := latestKey(m.ID)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, lk).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil && cur >= m.Version {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, versionsKey(m.ID), strconv.Itoa(m.Version), data)
			pipe.Set(ctx, lk, m.Version, 0)
			return nil
		})
		return err
	}

	err = s.rdb.Watch(ctx, txf, lk)
	if errors.Is(err, redis.TxFailedErr) {
		// someone else saved between our read and write
		return ErrVersionConflict
	}
	return err
}

func (s *RedisStore) Load(ctx context.Context, id string) (manifest.VideoManifest, error) {
	v, err := s.rdb.Get(ctx, latestKey(id)).Int()
	if errors.Is(err, redis.Nil) {
		return manifest.VideoManifest{}, ErrNotFound
	}
	if err != nil {
		return manifest.VideoManifest{}, err
	}
	return s.LoadVersion(ctx, id, v)
}

func (s *RedisStore) LoadVersion(ctx context.Context, id string, version int) (manifest.VideoManifest, error) {
	data, err := s.rdb.HGet(ctx, versionsKey(id), strconv.Itoa(version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return manifest.VideoManifest{}, ErrNotFound
	}
	if err != nil {
		return manifest.VideoManifest{}, err
	}

	var m manifest.VideoManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return manifest.VideoManifest{}, fmt.Errorf("decode manifest %s v%d: %w", id, version, err)
	}
	return m, nil
}

func (s *RedisStore) Versions(ctx context.Context, id string) ([]int, error) {
	fields, err := s.rdb.HKeys(ctx, versionsKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	sort.Ints(out)
	return out, nil
}
