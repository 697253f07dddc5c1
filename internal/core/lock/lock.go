package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "pantry-chef:lock:"

// ErrTimeout 等待鎖逾時
var ErrTimeout = errors.New("lock wait timeout")

// 只有持有者可釋放
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 以 Redis SET NX PX 實作的建議鎖
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

// NewLocker 建立建議鎖，client 為 nil 或未啟用時回傳 nil
func NewLocker(client *redis.Client, cfg config.LockConfig) *Locker {
	if client == nil || !cfg.Enabled {
		return nil
	}
	return &Locker{
		client: client,
		ttl:    cfg.TTL,
		wait:   cfg.WaitTimeout,
		retry:  cfg.RetryInterval,
	}
}

// Acquire 取得 key 的鎖，回傳釋放函式；等待超過 WaitTimeout 回傳 ErrTimeout
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := common.GenerateUUID()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(redisKey, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Locker) release(redisKey, token string) {
	// 請求 context 可能已取消，釋放時使用獨立 context
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		common.LogWarn("釋放建議鎖失敗", zap.String("key", redisKey), zap.Error(err))
	}
}
