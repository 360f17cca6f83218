package history

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

const transactionsKey = "c/ramp_transactions"

// RedisList is the part of *redis.Client the store uses.
type RedisList interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// RedisStore keeps the newest records in a capped redis list.
type RedisStore struct {
	rdb RedisList
	max int64
}

func NewRedisStore(rdb RedisList, max int) *RedisStore {
	if max <= 0 {
		max = 50
	}
	return &RedisStore{rdb: rdb, max: int64(max)}
}

func (s *RedisStore) Add(ctx context.Context, r Record) error {
	if r.ID == "" {
		return errors.New("history: record id is empty")
	}
	res, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.rdb.LPush(ctx, transactionsKey, string(res)).Err(); err != nil {
		return errors.Wrap(err, "history: lpush")
	}
	if err := s.rdb.LTrim(ctx, transactionsKey, 0, s.max-1).Err(); err != nil {
		return errors.Wrap(err, "history: ltrim")
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]Record, error) {
	stop := s.max - 1
	if limit > 0 && int64(limit)-1 < stop {
		stop = int64(limit) - 1
	}
	res, err := s.rdb.LRange(ctx, transactionsKey, 0, stop).Result()
	if err != nil {
		return nil, errors.Wrap(err, "history: lrange")
	}

	out := make([]Record, 0, len(res))
	for _, raw := range res {
		var r Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, errors.Wrap(err, "history: decode record")
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	all, err := s.List(ctx, 0)
	if err != nil {
		return Record{}, err
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, errors.Wrapf(ErrNotFound, "%q", id)
}
