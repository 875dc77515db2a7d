package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"go-storefront/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Limit describes one fixed-window limiter
type Limit struct {
	Name    string
	Max     int64
	Window  time.Duration
	Message string
	// SkipSuccessful counts only responses with status >= 400
	SkipSuccessful bool
}

var (
	GeneralLimit = Limit{Name: "general", Max: 100, Window: 15 * time.Minute,
		Message: "Too many requests from this IP, please try again later."}
	AuthLimit = Limit{Name: "auth", Max: 5, Window: 15 * time.Minute, SkipSuccessful: true,
		Message: "Too many login attempts, please try again after 15 minutes."}
	OTPLimit = Limit{Name: "otp", Max: 3, Window: 15 * time.Minute,
		Message: "Too many OTP requests, please try again after 15 minutes."}
	PaymentLimit = Limit{Name: "payment", Max: 10, Window: 15 * time.Minute,
		Message: "Too many payment requests, please try again later."}
)

// RateLimiter keeps per-IP counters in Redis. A nil client disables limiting.
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	if rdb == nil {
		logrus.Warn("Redis is not configured, rate limiting is disabled")
	}
	return &RateLimiter{rdb: rdb}
}

// Handler enforces limit on next
func (rl *RateLimiter) Handler(limit Limit) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl == nil || rl.rdb == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + limit.Name + ":" + clientIP(r)
			log := logrus.WithField("limiter", limit.Name)

			if !limit.SkipSuccessful {
				count, ttl, err := rl.hit(r.Context(), key, limit)
				if err != nil {
					// fail open
					log.WithError(err).Warn("Rate limit check failed")
					next.ServeHTTP(w, r)
					return
				}
				if count > limit.Max {
					tooMany(w, limit, ttl)
					return
				}
				setHeaders(w, limit, limit.Max-count, ttl)
				next.ServeHTTP(w, r)
				return
			}

			count, ttl, err := rl.peek(r.Context(), key, limit)
			if err != nil {
				log.WithError(err).Warn("Rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}
			if count >= limit.Max {
				tooMany(w, limit, ttl)
				return
			}
			setHeaders(w, limit, limit.Max-count, ttl)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			if sw.status >= http.StatusBadRequest {
				if _, _, err := rl.hit(r.Context(), key, limit); err != nil {
					log.WithError(err).Warn("Rate limit update failed")
				}
			}
		})
	}
}

func (rl *RateLimiter) peek(ctx context.Context, key string, limit Limit) (int64, time.Duration, error) {
	count, err := rl.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, limit.Window, nil
	}
	if err != nil {
		return 0, 0, err
	}
	ttl, err := rl.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	return count, ttl, nil
}

func (rl *RateLimiter) hit(ctx context.Context, key string, limit Limit) (int64, time.Duration, error) {
	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := rl.rdb.Expire(ctx, key, limit.Window).Err(); err != nil {
			return 0, 0, err
		}
		return count, limit.Window, nil
	}
	ttl, err := rl.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// counter lost its expiry, start a fresh window
		if err := rl.rdb.Expire(ctx, key, limit.Window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = limit.Window
	}
	return count, ttl, nil
}

func setHeaders(w http.ResponseWriter, limit Limit, remaining int64, reset time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	if reset < 0 {
		reset = 0
	}
	w.Header().Set("RateLimit-Limit", strconv.FormatInt(limit.Max, 10))
	w.Header().Set("RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("RateLimit-Reset", strconv.Itoa(int((reset+time.Second-1)/time.Second)))
}

func tooMany(w http.ResponseWriter, limit Limit, reset time.Duration) {
	setHeaders(w, limit, 0, reset)
	w.Header().Set("Retry-After", strconv.Itoa(int((reset+time.Second-1)/time.Second)))
	utils.RespondError(w, http.StatusTooManyRequests, limit.Message)
}

// clientIP uses RemoteAddr, which handlers.ProxyHeaders rewrites when the proxy is trusted
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
