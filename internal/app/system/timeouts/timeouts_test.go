package timeouts_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/timeouts"
)

func TestConfigure_IgnoresZeroValues(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Pass: time.Minute})

	if got := timeouts.Pass(); got != time.Minute {
		t.Errorf("Pass: got %v, want %v", got, time.Minute)
	}
	if got := timeouts.Review(); got != timeouts.DefaultReview {
		t.Errorf("Review: got %v, want default %v", got, timeouts.DefaultReview)
	}
	if got := timeouts.Current().Ping; got != timeouts.DefaultPing {
		t.Errorf("Ping: got %v, want default %v", got, timeouts.DefaultPing)
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, zap.New(core), "reconcile")
	<-ctx.Done()
	cancel()

	entries := logs.FilterMessage("operation timed out").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 timeout log, got %d", len(entries))
	}
	if op := entries[0].ContextMap()["operation"]; op != "reconcile" {
		t.Errorf("operation: got %v, want reconcile", op)
	}
}

func TestWithTimeout_NoLogOnCancel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	_, cancel := timeouts.WithTimeout(context.Background(), time.Hour, zap.New(core), "approve")
	cancel()

	if logs.Len() != 0 {
		t.Errorf("expected no logs, got %d", logs.Len())
	}
}
