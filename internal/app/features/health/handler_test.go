package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/health"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/testutil"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context, *readpref.ReadPref) error { return p.err }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	return body
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), zap.NewNop())

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	handler.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
	if body := decode(t, rec); body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestServe_PingOK(t *testing.T) {
	handler := health.NewHandler(stubPinger{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := decode(t, rec)
	if body["database"] != "connected" {
		t.Errorf("expected database connected, got %v", body["database"])
	}
	if _, ok := body["message"]; ok {
		t.Error("message should be omitted on success")
	}
}

func TestServe_PingFails(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := health.NewHandler(stubPinger{err: errors.New("server selection timeout")}, zap.New(core))

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "error" || body["database"] != "disconnected" {
		t.Errorf("unexpected body: %v", body)
	}
	if _, ok := body["error"]; ok {
		t.Error("driver error text must not be exposed")
	}
	if logs.FilterMessage("health-check: mongo ping failed").Len() != 1 {
		t.Error("expected ping failure to be logged")
	}
}
