//go:build integration

package ratelimit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"givehub/internal/platform/ratelimit"
	"givehub/pkg/testutil/containers"
)

type LimiterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestLimiterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *LimiterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *LimiterSuite) newLimiter(limit int, window time.Duration) *ratelimit.Limiter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ratelimit.New(s.redis.Client, limit, window, logger)
}

func (s *LimiterSuite) TestFixedWindow() {
	ctx := context.Background()
	limiter := s.newLimiter(3, time.Minute)

	for range 3 {
		s.True(limiter.Allow(ctx, "actor-1"))
	}
	s.False(limiter.Allow(ctx, "actor-1"), "fourth request in the window is throttled")

	s.True(limiter.Allow(ctx, "actor-2"), "windows are per actor")
}

func (s *LimiterSuite) TestWindowExpiry() {
	ctx := context.Background()
	limiter := s.newLimiter(1, 500*time.Millisecond)

	s.True(limiter.Allow(ctx, "actor-3"))
	s.False(limiter.Allow(ctx, "actor-3"))

	time.Sleep(700 * time.Millisecond)
	s.True(limiter.Allow(ctx, "actor-3"), "a fresh window admits again")
}
