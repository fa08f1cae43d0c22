package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"

	"paygateway/internal/common/api"
)

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	PerMinute int `envconfig:"RATE_LIMIT_PER_MIN" default:"600"`
	Burst     int `envconfig:"RATE_LIMIT_BURST" default:"50"`
}

// RateLimiter limits requests per remote address with a GCRA bucket held in
// memory. Limits are not shared between instances. A PerMinute of zero or
// less disables limiting.
func RateLimiter(cfg RateLimitConfig, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	if cfg.PerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	store, err := memstore.New(65536)
	if err != nil {
		return nil, fmt.Errorf("create rate limit store: %w", err)
	}

	quota := throttled.RateQuota{
		MaxRate:  throttled.PerMin(cfg.PerMinute),
		MaxBurst: cfg.Burst,
	}
	limiter, err := throttled.NewGCRARateLimiter(store, quota)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	httpLimiter := throttled.HTTPRateLimiter{
		RateLimiter: limiter,
		VaryBy:      &throttled.VaryBy{RemoteAddr: true},
		DeniedHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api.WriteError(w, http.StatusTooManyRequests, api.ErrCodeRateLimited, "Too many requests")
		}),
		Error: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate limiter failed", "error", err, "correlation_id", GetCorrelationID(r.Context()))
			api.InternalError(w)
		},
	}

	return func(next http.Handler) http.Handler {
		limited := httpLimiter.RateLimit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}, nil
}
