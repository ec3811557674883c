package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// waitForRuns polls until the runner has seen at least want passes.
func waitForRuns(t *testing.T, runner *fakeRunner, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runner.runCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("runner saw %d passes, want at least %d", runner.runCount(), want)
}

func TestAutoScheduler_EnableRunsImmediatelyAndTicks(t *testing.T) {
	runner := &fakeRunner{}
	settings := &fakeSettingsRepo{}
	scheduler := NewAutoScheduler(runner, settings, zap.NewNop(), 10*time.Millisecond)
	defer scheduler.Stop()

	if err := scheduler.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("SetEnabled(true): %v", err)
	}

	// The toggle itself runs one synchronous pass.
	if runner.runCount() < 1 {
		t.Fatalf("no immediate pass after enabling, runs = %d", runner.runCount())
	}

	enabled, err := scheduler.Enabled(context.Background())
	if err != nil || !enabled {
		t.Fatalf("Enabled() = %v, %v, want true", enabled, err)
	}

	waitForRuns(t, runner, 3)
}

func TestAutoScheduler_DisableStopsTicking(t *testing.T) {
	runner := &fakeRunner{}
	settings := &fakeSettingsRepo{}
	scheduler := NewAutoScheduler(runner, settings, zap.NewNop(), 10*time.Millisecond)
	defer scheduler.Stop()

	if err := scheduler.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("SetEnabled(true): %v", err)
	}
	waitForRuns(t, runner, 2)

	if err := scheduler.SetEnabled(context.Background(), false); err != nil {
		t.Fatalf("SetEnabled(false): %v", err)
	}
	scheduler.Stop()

	enabled, err := scheduler.Enabled(context.Background())
	if err != nil || enabled {
		t.Fatalf("Enabled() = %v, %v, want false", enabled, err)
	}

	before := runner.runCount()
	time.Sleep(50 * time.Millisecond)
	if after := runner.runCount(); after != before {
		t.Fatalf("runner still ticking after disable: %d -> %d", before, after)
	}
}

func TestAutoScheduler_StartResumesPersistedState(t *testing.T) {
	runner := &fakeRunner{}
	settings := &fakeSettingsRepo{}
	settings.SetAutoScheduling(context.Background(), true)

	scheduler := NewAutoScheduler(runner, settings, zap.NewNop(), 10*time.Millisecond)
	defer scheduler.Stop()

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForRuns(t, runner, 2)
}

func TestAutoScheduler_StartStaysIdleWhenDisabled(t *testing.T) {
	runner := &fakeRunner{}
	settings := &fakeSettingsRepo{}

	scheduler := NewAutoScheduler(runner, settings, zap.NewNop(), 10*time.Millisecond)
	defer scheduler.Stop()

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if runs := runner.runCount(); runs != 0 {
		t.Fatalf("runner saw %d passes while disabled, want 0", runs)
	}
}

func TestAutoScheduler_SurfacesSettingsReadFailure(t *testing.T) {
	runner := &fakeRunner{}
	settings := &fakeSettingsRepo{failReads: true}

	scheduler := NewAutoScheduler(runner, settings, zap.NewNop(), 10*time.Millisecond)
	if err := scheduler.Start(context.Background()); !errors.Is(err, errFakeStore) {
		t.Fatalf("Start err = %v, want store failure", err)
	}
	if _, err := scheduler.Enabled(context.Background()); !errors.Is(err, errFakeStore) {
		t.Fatalf("Enabled err = %v, want store failure", err)
	}
}

func TestAutoScheduler_EnableTwiceKeepsSingleLoop(t *testing.T) {
	runner := &fakeRunner{}
	settings := &fakeSettingsRepo{}
	scheduler := NewAutoScheduler(runner, settings, zap.NewNop(), time.Hour)
	defer scheduler.Stop()

	if err := scheduler.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("first enable: %v", err)
	}
	if err := scheduler.SetEnabled(context.Background(), true); err != nil {
		t.Fatalf("second enable: %v", err)
	}

	// Each toggle runs one synchronous pass; with an hour-long interval
	// no ticks contribute, so exactly two passes means one loop.
	if runs := runner.runCount(); runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}
	scheduler.Stop()
}
