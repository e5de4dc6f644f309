package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/ratelimit"
	"github.com/hyroxlab/roxcoach/internal/telemetry/metrics"
	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/go-redis/redis_rate/v9"
)

type requestLimiter interface {
	Check(key string) ratelimit.Result
}

// RateLimit guards API endpoints with the in-memory sliding-window limiter,
// keyed by the authenticated user id, or the client IP for anonymous
// requests. Disallowed requests get a 429 and cause no side effects.
func RateLimit(limiter requestLimiter, metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)

			res := limiter.Check(key)
			if res.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}

			w.Header().Set("Retry-After", strconv.FormatInt((res.ResetMs+999)/1000, 10))
			http.Error(
				w,
				fmt.Sprintf("rate limit exceeded, retry after %d ms", res.ResetMs),
				http.StatusTooManyRequests,
			)
		})
	}
}

func limiterKey(r *http.Request) string {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.Itoa(userID)
	}
	if ip, err := pkg.ReadUserIP(r); err == nil {
		return "ip:" + ip
	}
	return "ip:unknown"
}

type LoginRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// LoginRateLimit guards the login endpoint with a redis backed per-minute
// limit, shared between instances.
func LoginRateLimit(rateLimiter LoginRateLimiter, routerName string, allowedPerMin int, metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := rateLimiter.Allow(
				r.Context(),
				routerName,
				redis_rate.PerMinute(allowedPerMin),
			)
			if err != nil {
				http.Error(w, "rate limit internal error", http.StatusInternalServerError)
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}

			http.Error(
				w,
				fmt.Sprintf("retry after %f seconds", res.RetryAfter.Seconds()),
				http.StatusTooManyRequests,
			)
		})
	}
}
