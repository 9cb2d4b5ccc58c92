package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestNilClientFailsOpen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := New(nil, 1, time.Minute, logger)

	for range 10 {
		if !limiter.Allow(context.Background(), "actor") {
			t.Fatal("expected pass-through limiter without redis")
		}
	}
}

func TestNilLimiterFailsOpen(t *testing.T) {
	var limiter *Limiter
	if !limiter.Allow(context.Background(), "actor") {
		t.Fatal("expected nil limiter to allow")
	}
}
