package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "pantry-chef:quota:"

// Reason 拒絕原因
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonRateLimit Reason = "RATE_LIMIT"
	ReasonDenied    Reason = "DENIED"
)

// Rule 配額規則
type Rule struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// Decision 配額判定結果
type Decision struct {
	Allowed   bool
	Reason    Reason
	Remaining int64
	ResetAt   time.Time
}

// Policy 配額服務介面
type Policy interface {
	Check(ctx context.Context, key string, requested int64, rule Rule) (Decision, error)
}

// RuleForTier 依訂閱方案挑選規則
func RuleForTier(cfg config.QuotaConfig, tier common.Tier) Rule {
	r := cfg.Free
	if tier == common.TierPro {
		r = cfg.Pro
	}
	return Rule{Name: r.Name, Limit: r.Limit, Window: r.Window}
}

// RedisPolicy 以 Redis 固定窗口計數實作配額
type RedisPolicy struct {
	client  *redis.Client
	metrics *metrics.Collector
	now     func() time.Time
}

var _ Policy = (*RedisPolicy)(nil)

// NewRedisPolicy 創建配額服務
func NewRedisPolicy(client *redis.Client, m *metrics.Collector) *RedisPolicy {
	return &RedisPolicy{
		client:  client,
		metrics: m,
		now:     time.Now,
	}
}

// Check 扣除 requested 單位，超過上限時回滾並拒絕
func (p *RedisPolicy) Check(ctx context.Context, key string, requested int64, rule Rule) (Decision, error) {
	if p.client == nil {
		return Decision{}, common.ErrServiceUnavailable.Wrap(errors.New("quota backend not configured"))
	}
	if key == "" || requested <= 0 || rule.Limit <= 0 || rule.Window <= 0 || requested > rule.Limit {
		p.metrics.RecordQuota(rule.Name, false)
		return Decision{Allowed: false, Reason: ReasonDenied}, nil
	}

	now := p.now()
	windowStart := now.Truncate(rule.Window)
	resetAt := windowStart.Add(rule.Window)
	redisKey := keyPrefix + rule.Name + ":" + key + ":" + strconv.FormatInt(windowStart.Unix(), 10)

	var incr *redis.IntCmd
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.IncrBy(ctx, redisKey, requested)
		pipe.ExpireAt(ctx, redisKey, resetAt)
		return nil
	})
	if err != nil {
		common.LogError("配額服務不可用", zap.String("rule", rule.Name), zap.Error(err))
		return Decision{}, common.ErrServiceUnavailable.Wrap(fmt.Errorf("quota check: %w", err))
	}

	used := incr.Val()
	if used > rule.Limit {
		if err := p.client.DecrBy(ctx, redisKey, requested).Err(); err != nil {
			common.LogWarn("配額回滾失敗", zap.String("rule", rule.Name), zap.Error(err))
		}
		p.metrics.RecordQuota(rule.Name, false)
		return Decision{
			Allowed:   false,
			Reason:    ReasonRateLimit,
			Remaining: 0,
			ResetAt:   resetAt,
		}, nil
	}

	p.metrics.RecordQuota(rule.Name, true)
	return Decision{
		Allowed:   true,
		Remaining: rule.Limit - used,
		ResetAt:   resetAt,
	}, nil
}
