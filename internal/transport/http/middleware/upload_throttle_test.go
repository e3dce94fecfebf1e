package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type fakeThrottleStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	fail     bool
}

func newFakeThrottleStore() *fakeThrottleStore {
	return &fakeThrottleStore{attempts: make(map[string][]time.Time)}
}

func (s *fakeThrottleStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	if s.fail {
		return errors.New("store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.attempts[identifier][:0]
	for _, at := range s.attempts[identifier] {
		if !at.Before(reference.Add(-window)) {
			kept = append(kept, at)
		}
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *fakeThrottleStore) CountAttempts(_ context.Context, identifier string, _ time.Duration, _ time.Time) (int, error) {
	if s.fail {
		return 0, errors.New("store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts[identifier]), nil
}

func (s *fakeThrottleStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	if s.fail {
		return errors.New("store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func newThrottleRouter(throttle *UploadThrottle) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/packets", throttle.Handler(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func postPacket(router *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/packets", nil)
	req.RemoteAddr = "10.0.0.1:51234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestUploadThrottleAllowsWithinLimit(t *testing.T) {
	store := newFakeThrottleStore()
	throttle := NewUploadThrottle(store, 3, time.Minute, zaptest.NewLogger(t))
	router := newThrottleRouter(throttle)

	for i := 0; i < 3; i++ {
		if rr := postPacket(router); rr.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, rr.Code)
		}
	}
}

func TestUploadThrottleRejectsOverLimit(t *testing.T) {
	store := newFakeThrottleStore()
	throttle := NewUploadThrottle(store, 2, time.Minute, zaptest.NewLogger(t))
	router := newThrottleRouter(throttle)

	postPacket(router)
	postPacket(router)

	rr := postPacket(router)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on rejection")
	}
}

func TestUploadThrottleWindowSlides(t *testing.T) {
	store := newFakeThrottleStore()
	now := time.Now()
	throttle := NewUploadThrottle(store, 1, time.Minute, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return now })
	router := newThrottleRouter(throttle)

	postPacket(router)
	if rr := postPacket(router); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", rr.Code)
	}

	now = now.Add(2 * time.Minute)
	if rr := postPacket(router); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 after the window slid, got %d", rr.Code)
	}
}

func TestUploadThrottleFailsOpenOnStoreError(t *testing.T) {
	store := newFakeThrottleStore()
	store.fail = true
	throttle := NewUploadThrottle(store, 1, time.Minute, zaptest.NewLogger(t))
	router := newThrottleRouter(throttle)

	if rr := postPacket(router); rr.Code != http.StatusCreated {
		t.Fatalf("expected upload to pass through on store failure, got %d", rr.Code)
	}
}

func TestUploadThrottleDisabledWithoutStore(t *testing.T) {
	throttle := NewUploadThrottle(nil, 1, time.Minute, zaptest.NewLogger(t))
	router := newThrottleRouter(throttle)

	for i := 0; i < 5; i++ {
		if rr := postPacket(router); rr.Code != http.StatusCreated {
			t.Fatalf("expected pass-through without store, got %d", rr.Code)
		}
	}
}
