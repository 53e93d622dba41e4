package store

import (
	"context"
	"encoding/binary"
	"math"
	"path"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a VectorStore backed by Redis.
// Keys are stored under prefix, and expire after ttl when ttl > 0.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) VectorStore {
	return &redisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (m *redisStore) getRedisKey(key string) string {
	return path.Join(m.prefix, "embeddings", key)
}

func (m *redisStore) Get(ctx context.Context, keys []string) ([][]float32, error) {
	res := make([][]float32, len(keys))
	if len(keys) == 0 {
		return res, nil
	}

	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = m.getRedisKey(key)
	}

	values, err := m.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return res, nil
		}
		return nil, errors.Wrap(err, "failed to get embeddings from Redis")
	}

	for i, val := range values {
		s, ok := val.(string)
		if !ok {
			continue
		}
		vec, err := decodeVector([]byte(s))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid embedding for key %s", keys[i])
		}
		res[i] = vec
	}
	return res, nil
}

func (m *redisStore) Put(ctx context.Context, entries map[string][]float32) error {
	if len(entries) == 0 {
		return nil
	}
	pipe := m.client.Pipeline()
	for key, vec := range entries {
		pipe.Set(ctx, m.getRedisKey(key), encodeVector(vec), m.ttl)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to store embeddings in Redis")
	}
	return nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, errors.Errorf("unexpected length %d", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}
