package service

import (
	"context"
	"sync"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/repository"

	"go.uber.org/zap"
)

// DefaultAutoScheduleInterval is how often the background scheduler
// re-runs the assignment engine while enabled.
const DefaultAutoScheduleInterval = 60 * time.Second

// AutoScheduler is the long-lived controller around the persisted
// auto-scheduling flag. While enabled it invokes the assignment engine
// on a fixed interval; toggling it on also runs one immediate pass.
// Disabling stops the timer but never interrupts a pass already running.
type AutoScheduler struct {
	runner       SchedulingRunner
	settingsRepo repository.SettingsRepository
	logger       *zap.Logger
	interval     time.Duration

	mu       sync.Mutex
	stopChan chan struct{} // non-nil while the timer is armed
	wg       sync.WaitGroup
}

// NewAutoScheduler creates the controller. A non-positive interval falls
// back to the default.
func NewAutoScheduler(runner SchedulingRunner, settingsRepo repository.SettingsRepository, logger *zap.Logger, interval time.Duration) *AutoScheduler {
	if interval <= 0 {
		interval = DefaultAutoScheduleInterval
	}
	return &AutoScheduler{
		runner:       runner,
		settingsRepo: settingsRepo,
		logger:       logger,
		interval:     interval,
	}
}

// Start restores the persisted state: if auto-scheduling was enabled
// before the last shutdown, the timer is re-armed.
func (a *AutoScheduler) Start(ctx context.Context) error {
	setting, err := a.settingsRepo.GetAutoScheduling(ctx)
	if err != nil {
		return err
	}
	if setting.Enabled {
		a.mu.Lock()
		a.armLocked()
		a.mu.Unlock()
		a.logger.Info("auto-scheduling resumed", zap.Duration("interval", a.interval))
	}
	return nil
}

// Enabled reports the persisted flag.
func (a *AutoScheduler) Enabled(ctx context.Context) (bool, error) {
	setting, err := a.settingsRepo.GetAutoScheduling(ctx)
	if err != nil {
		return false, err
	}
	return setting.Enabled, nil
}

// SetEnabled persists the flag and arms or disarms the timer. Enabling
// runs one immediate pass before returning; its outcome is logged, not
// surfaced, since the toggle itself succeeded.
func (a *AutoScheduler) SetEnabled(ctx context.Context, enabled bool) error {
	if err := a.settingsRepo.SetAutoScheduling(ctx, enabled); err != nil {
		return err
	}

	a.mu.Lock()
	if enabled {
		a.armLocked()
	} else {
		a.disarmLocked()
	}
	a.mu.Unlock()

	if enabled {
		a.runOnce(ctx)
	}
	a.logger.Info("auto-scheduling toggled", zap.Bool("enabled", enabled))
	return nil
}

// Stop disarms the timer and waits for the loop goroutine to exit. Used
// during shutdown; it does not change the persisted flag.
func (a *AutoScheduler) Stop() {
	a.mu.Lock()
	a.disarmLocked()
	a.mu.Unlock()
	a.wg.Wait()
}

// armLocked starts the timer loop if it is not already running.
func (a *AutoScheduler) armLocked() {
	if a.stopChan != nil {
		return
	}
	stop := make(chan struct{})
	a.stopChan = stop
	a.wg.Add(1)
	go a.loop(stop)
}

// disarmLocked signals the timer loop to exit.
func (a *AutoScheduler) disarmLocked() {
	if a.stopChan == nil {
		return
	}
	close(a.stopChan)
	a.stopChan = nil
}

func (a *AutoScheduler) loop(stop chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.runOnce(context.Background())
		case <-stop:
			a.logger.Info("auto-scheduling timer stopped")
			return
		}
	}
}

func (a *AutoScheduler) runOnce(ctx context.Context) {
	result, err := a.runner.TriggerScheduling(ctx)
	if err != nil {
		a.logger.Error("auto-scheduling pass failed", zap.Error(err))
		return
	}
	if result.AppointmentsCreated > 0 {
		a.logger.Info("auto-scheduling pass created appointments",
			zap.Int("created", result.AppointmentsCreated))
	}
}
