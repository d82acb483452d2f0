package prefs

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/catering/internal/domain"
)

const ttl = 90 * 24 * time.Hour

// RedisStore keeps page size preferences in redis under pagesize:<user>:<list>.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func key(user, list string) string {
	return "pagesize:" + strings.ToLower(user) + ":" + list
}

func (s *RedisStore) PageSize(ctx context.Context, user, list string) (int, bool) {
	if user == "" {
		return 0, false
	}
	v, err := s.rdb.Get(ctx, key(user, list)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("page size lookup")
		}
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || !domain.ValidPageSize(n) {
		return 0, false
	}
	return n, true
}

func (s *RedisStore) SetPageSize(ctx context.Context, user, list string, size int) error {
	if user == "" || !domain.ValidPageSize(size) {
		return nil
	}
	return s.rdb.Set(ctx, key(user, list), size, ttl).Err()
}
