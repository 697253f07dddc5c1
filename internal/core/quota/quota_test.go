package quota

import (
	"context"
	"testing"
	"time"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type QuotaSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	policy *RedisPolicy
	now    time.Time
}

func (s *QuotaSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.policy = NewRedisPolicy(s.client, nil)
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.policy.now = func() time.Time { return s.now }
	s.mr.SetTime(s.now)
}

func (s *QuotaSuite) TearDownTest() {
	_ = s.client.Close()
}

func (s *QuotaSuite) TestAllowsUntilLimitThenRateLimits() {
	rule := Rule{Name: "free_meal_recommendations", Limit: 3, Window: time.Hour}
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		d, err := s.policy.Check(ctx, "user_1", 1, rule)
		s.Require().NoError(err)
		s.True(d.Allowed)
		s.Equal(rule.Limit-i, d.Remaining)
	}

	d, err := s.policy.Check(ctx, "user_1", 1, rule)
	s.Require().NoError(err)
	s.False(d.Allowed)
	s.Equal(ReasonRateLimit, d.Reason)
	s.Equal(s.now.Truncate(time.Hour).Add(time.Hour), d.ResetAt)

	// 拒絕不應消耗額度
	d, err = s.policy.Check(ctx, "user_1", 1, rule)
	s.Require().NoError(err)
	s.False(d.Allowed)
}

func (s *QuotaSuite) TestKeysAreIsolatedPerUser() {
	rule := Rule{Name: "free", Limit: 1, Window: time.Hour}
	ctx := context.Background()

	d, err := s.policy.Check(ctx, "a", 1, rule)
	s.Require().NoError(err)
	s.True(d.Allowed)

	d, err = s.policy.Check(ctx, "b", 1, rule)
	s.Require().NoError(err)
	s.True(d.Allowed)
}

func (s *QuotaSuite) TestWindowResets() {
	rule := Rule{Name: "free", Limit: 1, Window: time.Hour}
	ctx := context.Background()

	d, err := s.policy.Check(ctx, "a", 1, rule)
	s.Require().NoError(err)
	s.True(d.Allowed)

	s.now = s.now.Add(time.Hour)
	s.mr.SetTime(s.now)
	d, err = s.policy.Check(ctx, "a", 1, rule)
	s.Require().NoError(err)
	s.True(d.Allowed)
}

func (s *QuotaSuite) TestInvalidRequestsAreDenied() {
	ctx := context.Background()
	rule := Rule{Name: "free", Limit: 2, Window: time.Hour}

	d, err := s.policy.Check(ctx, "", 1, rule)
	s.Require().NoError(err)
	s.Equal(ReasonDenied, d.Reason)

	d, err = s.policy.Check(ctx, "a", 5, rule)
	s.Require().NoError(err)
	s.Equal(ReasonDenied, d.Reason)
}

func (s *QuotaSuite) TestBackendDownIsServiceUnavailable() {
	s.mr.Close()
	_, err := s.policy.Check(context.Background(), "a", 1, Rule{Name: "free", Limit: 1, Window: time.Hour})
	s.ErrorIs(err, common.ErrServiceUnavailable)
}

func TestQuotaSuite(t *testing.T) {
	suite.Run(t, new(QuotaSuite))
}

func TestNilClientIsServiceUnavailable(t *testing.T) {
	_, err := NewRedisPolicy(nil, nil).Check(context.Background(), "a", 1, Rule{Name: "r", Limit: 1, Window: time.Minute})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestRuleForTier(t *testing.T) {
	cfg := config.QuotaConfig{
		Free: config.QuotaRule{Name: "free_meal_recommendations", Limit: 5, Window: 720 * time.Hour},
		Pro:  config.QuotaRule{Name: "pro_tier", Limit: 1000, Window: 720 * time.Hour},
	}
	free := RuleForTier(cfg, common.TierFree)
	require.Equal(t, "free_meal_recommendations", free.Name)
	assert.Equal(t, int64(5), free.Limit)
	assert.Equal(t, "pro_tier", RuleForTier(cfg, common.TierPro).Name)
}
