package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleHealth_DegradesOnFailingCheck(t *testing.T) {
	s := NewServer(0, "test")
	s.RegisterCheck("risk", func(context.Context) (bool, string) {
		return false, "emergency stop engaged"
	})

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("expected degraded, got %q", status.Status)
	}
	if status.Checks["risk"].Message != "emergency stop engaged" {
		t.Errorf("unexpected check message: %q", status.Checks["risk"].Message)
	}
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	s := NewServer(0, "test")
	s.RegisterCheck("risk", func(context.Context) (bool, string) {
		return true, "trading"
	})

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
