// Package ratelimit provides a Redis-backed fixed-window limiter for
// abuse-prone endpoints (flag-request submission). With no Redis configured
// the limiter is a pass-through; the core invariants never depend on it.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"givehub/pkg/platform/httputil"
	"givehub/pkg/requestcontext"
)

const keyPrefix = "rl:flagreq:"

// Limiter counts requests per actor in a fixed window.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *slog.Logger
}

// New builds a limiter. A nil redis client yields a pass-through limiter.
func New(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, logger: logger}
}

// Allow reports whether the actor may proceed. INCR + EXPIRE keeps the
// check-and-count atomic enough for a fixed window; on Redis failure the
// limiter fails open and logs.
func (l *Limiter) Allow(ctx context.Context, actorKey string) bool {
	if l == nil || l.client == nil {
		return true
	}

	key := keyPrefix + actorKey
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.WarnContext(ctx, "rate limiter unavailable, failing open", "error", err)
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.WarnContext(ctx, "rate limiter expire failed", "error", err)
		}
	}
	return count <= int64(l.limit)
}

// Middleware enforces the limiter per authenticated actor.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorID := requestcontext.ActorID(ctx)
		if !l.Allow(ctx, actorID.String()) {
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limited",
				"error_description": "too many flag requests, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
