// Package locker provides a redis-backed single-flight lock used to
// keep concurrent batch runs from processing the same selection twice.
package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/netcontrib/internal/config"
)

// The release script only deletes the key when the caller still owns
// it, so an expired lock re-acquired by another run is never released
// by the first owner.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// ErrNotConfigured is returned when no redis client is wired in.
var ErrNotConfigured = errors.New("lock client not configured")

type Locker struct {
	client *redis.Client
	script *redis.Script
}

// NewRedisClient builds a redis client from configuration, or nil when
// no address is configured. A nil client disables locking without
// failing startup.
func NewRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(releaseScript),
	}
}

// BatchKey derives the lock key for a batch run over payment entries.
func BatchKey(scope string) string {
	return fmt.Sprintf("netcontrib:batch:%s", scope)
}

// TryLock attempts to take the lock and returns the owner token. A
// false result without error means another holder has it.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrNotConfigured
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release gives the lock back if the token still owns it.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}
