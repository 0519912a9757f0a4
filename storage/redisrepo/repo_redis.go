package redisrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/property-portal/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "portal:session:"

var (
	_ storage.Provider = (*Provider)(nil)
	_ storage.Repo     = (*repo)(nil)
)

// Connect creates a Redis client from a redis:// URL or a host:port address and pings it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt.DialTimeout = 5 * time.Second
		opt.ConnMaxIdleTime = 5 * time.Minute
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL, DialTimeout: 5 * time.Second})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "[redisrepo.Connect] ping")
	}
	return client, nil
}

// Provider stores each browser client's values in one Redis hash.
// The hash expires after idleTTL without reads or writes; zero disables expiry.
type Provider struct {
	client  redis.UniversalClient
	idleTTL time.Duration
}

// New creates a Redis-backed storage provider
func New(client redis.UniversalClient, idleTTL time.Duration) *Provider {
	return &Provider{client: client, idleTTL: idleTTL}
}

func (p *Provider) ForClient(clientID string) storage.Repo {
	return &repo{client: p.client, key: keyPrefix + clientID, ttl: p.idleTTL}
}

type repo struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func (r *repo) Get(ctx context.Context, key string) (string, bool, error) {
	var hget *redis.StringCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		hget = pipe.HGet(ctx, r.key, key)
		r.touch(ctx, pipe)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", false, errors.Wrap(err, "[redisrepo.Get] hget")
	}

	v, err := hget.Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[redisrepo.Get] hget")
	}
	return v, true, nil
}

func (r *repo) GetAll(ctx context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	var hmget *redis.SliceCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		hmget = pipe.HMGet(ctx, r.key, keys...)
		r.touch(ctx, pipe)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "[redisrepo.GetAll] hmget")
	}
	for i, v := range hmget.Val() {
		if s, ok := v.(string); ok {
			values[keys[i]] = s
		}
	}
	return values, nil
}

// touch renews the idle expiry; EXPIRE on a missing hash is a no-op
func (r *repo) touch(ctx context.Context, pipe redis.Pipeliner) {
	if r.ttl > 0 {
		pipe.Expire(ctx, r.key, r.ttl)
	}
}

func (r *repo) SetAll(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, fields)
		r.touch(ctx, pipe)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[redisrepo.SetAll] multi hset")
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, r.key, keys...).Err(); err != nil {
		return errors.Wrap(err, "[redisrepo.Delete] hdel")
	}
	return nil
}
