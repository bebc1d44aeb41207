package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/shroud/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()
	var checker lifecycle.ReadinessChecker = lc

	release := make(chan struct{})
	var ran atomic.Int32
	for range 3 {
		lc.OnStartup(func() {
			<-release
			ran.Add(1)
		})
	}

	if checker.Ready() {
		t.Error("should not be ready before WaitForStartup")
	}

	close(release)
	lc.WaitForStartup()

	if !checker.Ready() {
		t.Error("should be ready after WaitForStartup")
	}
	if got := ran.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
}

func TestDegraded(t *testing.T) {
	lc := lifecycle.New()
	var reporter lifecycle.HealthReporter = lc

	if got := reporter.Degraded(); len(got) != 0 {
		t.Fatalf("degraded before any report: got %v", got)
	}

	lc.OnStartup(func() {
		lc.Degrade("en/ner", "connection refused")
		lc.Degrade("en/ner", "check timeout")
	})
	lc.WaitForStartup()

	got := reporter.Degraded()
	if len(got) != 1 || got["en/ner"] != "check timeout" {
		t.Errorf("degraded: got %v, want en/ner with latest reason", got)
	}
	if !reporter.Ready() {
		t.Error("degraded components should not block readiness")
	}

	got["he/ner"] = "mutated"
	if _, ok := lc.Degraded()["he/ner"]; ok {
		t.Error("Degraded returned the internal map")
	}
}

func TestShutdown(t *testing.T) {
	t.Run("runs hooks after cancellation", func(t *testing.T) {
		lc := lifecycle.New()

		var cleaned atomic.Bool
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			cleaned.Store(true)
		})
		lc.WaitForStartup()

		if err := lc.Shutdown(5 * time.Second); err != nil {
			t.Fatalf("shutdown failed: %v", err)
		}
		if !cleaned.Load() {
			t.Error("shutdown hook did not execute")
		}

		select {
		case <-lc.Context().Done():
		default:
			t.Error("context should be cancelled after shutdown")
		}
	})

	t.Run("times out on slow hooks", func(t *testing.T) {
		lc := lifecycle.New()
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			time.Sleep(500 * time.Millisecond)
		})
		lc.WaitForStartup()

		if err := lc.Shutdown(50 * time.Millisecond); err == nil {
			t.Error("expected timeout error, got nil")
		}
	})
}
