package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-holder lease on a redis key.
type Lock struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewLock(rdb *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{rdb: rdb, key: key, ttl: ttl}
}

// TryAcquire sets the key only if it is absent. The returned release func
// deletes the key only while this holder still owns it.
func (l *Lock) TryAcquire(ctx context.Context) (release func(context.Context) error, ok bool, err error) {
	token := uuid.NewString()
	ok, err = l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}, true, nil
}
