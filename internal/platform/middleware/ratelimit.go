// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/taibuivan/monova/internal/platform/apperr"
	"github.com/taibuivan/monova/internal/platform/constants"
	"github.com/taibuivan/monova/internal/platform/respond"
)

// # Rate Limiting

// RateLimiter limits requests per client IP.
//
// # Modes
//
// With a Redis client the limiter uses shared fixed-window counters, so the
// limit holds across replicas. Without one (local development, tests) it
// falls back to an in-process token bucket per IP.
type RateLimiter struct {
	redisClient *redis.Client
	logger      *slog.Logger

	mu      sync.Mutex
	clients map[string]*rateLimitClient
}

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter. redisClient may be nil.
//
// A background cleanup routine evicts idle local buckets; it stops when ctx
// is cancelled at application shutdown.
func NewRateLimiter(ctx context.Context, redisClient *redis.Client, logger *slog.Logger) *RateLimiter {
	limiter := &RateLimiter{
		redisClient: redisClient,
		logger:      logger,
		clients:     make(map[string]*rateLimitClient),
	}

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				limiter.mu.Lock()
				for ip, clientInfo := range limiter.clients {
					if time.Since(clientInfo.lastSeen) > constants.RateLimitClientTTL {
						delete(limiter.clients, ip)
					}
				}
				limiter.mu.Unlock()
			case <-ctx.Done():
				// Stop the goroutine when the application shuts down
				return
			}
		}
	}()

	return limiter
}

// Middleware enforces the per-IP limit and answers 429 when it is exceeded.
func (limiter *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			clientIP := RealIP(request)

			if !limiter.allow(request.Context(), clientIP) {
				respond.Error(writer, request, apperr.RateLimited())
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// allow reports whether one more request from clientIP fits the limit.
func (limiter *RateLimiter) allow(ctx context.Context, clientIP string) bool {
	if limiter.redisClient != nil {
		return limiter.allowRedis(ctx, clientIP)
	}
	return limiter.allowLocal(clientIP)
}

// allowRedis counts the request against a shared fixed window.
//
// INCR + EXPIRE on first hit keeps the counter self-cleaning. When Redis is
// unreachable the limiter fails open through the local bucket: availability
// wins over strictness for this guard.
func (limiter *RateLimiter) allowRedis(ctx context.Context, clientIP string) bool {
	window := time.Now().Unix() / int64(constants.RateLimitWindow.Seconds())
	key := "ratelimit:" + clientIP + ":" + time.Unix(window, 0).UTC().Format("150405")

	count, err := limiter.redisClient.Incr(ctx, key).Result()
	if err != nil {
		limiter.logger.Warn("rate_limit_redis_unavailable", slog.String("error", err.Error()))
		return limiter.allowLocal(clientIP)
	}
	if count == 1 {
		limiter.redisClient.Expire(ctx, key, constants.RateLimitWindow*2)
	}

	return count <= int64(constants.DefaultRateLimitRPS*constants.RateLimitWindow.Seconds())
}

// allowLocal checks the in-process token bucket for clientIP.
func (limiter *RateLimiter) allowLocal(clientIP string) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	clientInfo, found := limiter.clients[clientIP]

	// Initialize a new limiter if this is a fresh IP
	if !found {
		clientInfo = &rateLimitClient{
			limiter: rate.NewLimiter(
				rate.Limit(constants.DefaultRateLimitRPS),
				constants.DefaultRateLimitBurst,
			),
		}
		limiter.clients[clientIP] = clientInfo
	}

	// Update the activity timestamp
	clientInfo.lastSeen = time.Now()

	return clientInfo.limiter.Allow()
}
