package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/minh-tn/salesorder-core/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(_ context.Context, _ time.Duration) error {
	return s.dbErr
}

func (s stubChecker) PingRedis(_ context.Context, _ time.Duration) error {
	return s.redisErr
}

func readyStatus(t *testing.T, handler health.Handler) (int, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var status map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rr.Code, status
}

func TestLive(t *testing.T) {
	handler := health.Handler{}
	rr := httptest.NewRecorder()
	handler.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestReadySuccess(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{}, DBTimeout: 50 * time.Millisecond, RedisTimeout: 50 * time.Millisecond}
	code, status := readyStatus(t, handler)
	if code != http.StatusOK {
		t.Fatalf("expected 200 got %d", code)
	}
	if status["db"] != "ok" || status["redis"] != "ok" {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestReadyDBFailure(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{dbErr: errors.New("db down")}}
	code, status := readyStatus(t, handler)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", code)
	}
	if status["db"] != "db down" {
		t.Fatalf("expected probe error in payload, got %#v", status)
	}
	if status["redis"] != "ok" {
		t.Fatalf("redis probe should still run, got %#v", status)
	}
}

func TestReadyRedisFailure(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{redisErr: errors.New("redis down")}}
	code, status := readyStatus(t, handler)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", code)
	}
	if status["db"] != "ok" || status["redis"] != "redis down" {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestReadyNilChecker(t *testing.T) {
	handler := health.Handler{}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("a handler without probes must never report ready, got %d", rr.Code)
	}
}
