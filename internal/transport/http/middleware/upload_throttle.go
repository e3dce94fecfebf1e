package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ThrottleStore defines the persistence operations behind the sliding-window
// upload throttle.
type ThrottleStore interface {
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
}

// UploadThrottle limits how often a single client may upload packets. A
// store outage never blocks uploads; the request is let through with a
// warning log.
type UploadThrottle struct {
	store  ThrottleStore
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewUploadThrottle builds the throttle middleware helper.
func NewUploadThrottle(store ThrottleStore, limit int, window time.Duration, logger *zap.Logger) *UploadThrottle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadThrottle{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a custom clock, primarily for tests.
func (t *UploadThrottle) WithClock(now func() time.Time) *UploadThrottle {
	if now != nil {
		t.now = now
	}
	return t
}

// Handler returns a Gin middleware enforcing the per-client upload limit.
func (t *UploadThrottle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t.store == nil || t.limit <= 0 || t.window <= 0 {
			c.Next()
			return
		}

		identifier := c.ClientIP()
		if identifier == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := t.now()

		count, err := t.evaluate(ctx, identifier, now)
		if err != nil {
			t.logger.Warn("upload throttle check failed",
				zap.String("identifier", identifier),
				zap.Error(err),
			)
			c.Next()
			return
		}

		remaining := t.limit - count
		if remaining < 0 {
			remaining = 0
		}

		headers := c.Writer.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(t.limit))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > t.limit {
			retrySeconds := int(math.Ceil(t.window.Seconds()))
			headers.Set("Retry-After", strconv.Itoa(retrySeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "upload limit exceeded",
				"retry_after": retrySeconds,
			})
			return
		}

		c.Next()
	}
}

func (t *UploadThrottle) evaluate(ctx context.Context, identifier string, now time.Time) (int, error) {
	if err := t.store.TrimWindow(ctx, identifier, t.window, now); err != nil {
		return 0, err
	}
	if err := t.store.RecordAttempt(ctx, identifier, now); err != nil {
		return 0, err
	}
	return t.store.CountAttempts(ctx, identifier, t.window, now)
}
