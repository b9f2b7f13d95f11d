package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func up(context.Context) ComponentHealth { return ComponentHealth{Status: StatusUp} }

func TestRunAggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		want   Status
	}{
		{"empty", nil, StatusUp},
		{"all up", map[string]Check{"a": up, "b": up}, StatusUp},
		{"degraded", map[string]Check{"a": up, "redis": PingCheck(func(context.Context) error { return errors.New("refused") }, StatusDegraded)}, StatusDegraded},
		{"down wins", map[string]Check{
			"index": PingCheck(func(context.Context) error { return errors.New("not built") }, StatusDown),
			"redis": PingCheck(func(context.Context) error { return errors.New("refused") }, StatusDegraded),
		}, StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for name, check := range tt.checks {
				c.Register(name, check)
			}
			report := c.Run(context.Background())
			if report.Status != tt.want {
				t.Errorf("status = %s, want %s", report.Status, tt.want)
			}
			if len(report.Components) != len(tt.checks) {
				t.Errorf("components = %d, want %d", len(report.Components), len(tt.checks))
			}
		})
	}
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("redis", PingCheck(func(context.Context) error { return errors.New("refused") }, StatusDegraded))
	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("degraded service should stay ready, got %d", rec.Code)
	}

	c.Register("index", PingCheck(func(context.Context) error { return errors.New("not built") }, StatusDown))
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Components["index"].Message != "not built" {
		t.Errorf("unexpected index component: %+v", report.Components["index"])
	}
}

func TestRunBoundsSlowAndPanickingChecks(t *testing.T) {
	c := NewChecker()
	c.SetTimeout(20 * time.Millisecond)
	c.Register("index", up)
	c.Register("redis", func(ctx context.Context) ComponentHealth {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return ComponentHealth{Status: StatusUp}
	})
	c.Register("postgres", func(context.Context) ComponentHealth {
		panic("nil pool")
	})

	report := c.Run(context.Background())
	if report.Status != StatusDown {
		t.Fatalf("overall = %s, want down", report.Status)
	}
	if got := report.Components["redis"]; got.Status != StatusDown || got.Message != "check timed out" {
		t.Fatalf("redis = %+v", got)
	}
	if got := report.Components["postgres"]; got.Status != StatusDown || got.Message != "check panicked: nil pool" {
		t.Fatalf("postgres = %+v", got)
	}
	if report.Components["index"].Status != StatusUp {
		t.Fatalf("index = %+v", report.Components["index"])
	}
}
