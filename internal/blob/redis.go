package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis stores each blob as a hash with "body" and "content_type" fields.
type Redis struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(ctx context.Context, addr, prefix string) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{rdb: rdb, prefix: prefix}, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

func (r *Redis) Get(ctx context.Context, key string) (*Object, error) {
	vals, err := r.rdb.HMGet(ctx, r.key(key), "body", "content_type").Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get blob: %w", err)
	}
	if len(vals) != 2 || vals[0] == nil {
		return nil, nil
	}

	body, _ := vals[0].(string)
	ct, _ := vals[1].(string)
	return &Object{Body: []byte(body), ContentType: ct}, nil
}

func (r *Redis) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := r.rdb.HSet(ctx, r.key(key), "body", body, "content_type", contentType).Err(); err != nil {
		return fmt.Errorf("redis put blob: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete blob: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
