package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/username/prodcalendar/internal/calendar"
	"go.uber.org/zap"
)

// Refresher re-downloads the document of a year
type Refresher interface {
	RefreshYear(year int) (*calendar.Document, error)
}

// Daemon keeps the calendar cache refreshed on a cron schedule
type Daemon struct {
	refresher       Refresher
	schedule        string
	refreshNextYear bool
	now             func() time.Time
	logger          *zap.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	cron            *cron.Cron
	entryID         cron.EntryID
	lastRunTime     time.Time  // Track last completed run
	lastErr         error      // Error of the last run, nil on success
	mu              sync.Mutex // Protect against concurrent refreshes
}

// NewDaemon creates a daemon running refreshes on the given cron schedule
// (standard 5-field spec, local time)
func NewDaemon(refresher Refresher, schedule string, refreshNextYear bool, logger *zap.Logger) (*Daemon, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule '%s': %w", schedule, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		refresher:       refresher,
		schedule:        schedule,
		refreshNextYear: refreshNextYear,
		now:             time.Now,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}, nil
}

// Start runs one refresh immediately, then follows the schedule.
// Blocks until Stop is called or SIGINT/SIGTERM is received.
func (d *Daemon) Start() error {
	c := cron.New(cron.WithLogger(cronLogger{d.logger.Sugar()}))

	entryID, err := c.AddFunc(d.schedule, d.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	d.mu.Lock()
	d.cron = c
	d.entryID = entryID
	d.mu.Unlock()

	d.logger.Info("Daemon started", zap.String("schedule", d.schedule))

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Run initial refresh immediately
	if err := d.RefreshNow(); err != nil {
		d.logger.Error("Initial refresh failed", zap.Error(err))
	}

	d.cron.Start()
	d.logger.Info("Next refresh scheduled", zap.Time("next_run", d.cron.Entry(d.entryID).Next))

	select {
	case <-d.ctx.Done():
		d.logger.Info("Daemon stopped")

	case sig := <-sigChan:
		d.logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		d.Stop()
	}

	// Wait for a running refresh to finish
	<-d.cron.Stop().Done()
	return nil
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) runScheduled() {
	d.logger.Info("Starting scheduled refresh", zap.Time("time", d.now()))

	if err := d.RefreshNow(); err != nil {
		d.logger.Error("Scheduled refresh failed", zap.Error(err))
		return
	}

	if d.cron != nil {
		d.logger.Info("Next refresh scheduled", zap.Time("next_run", d.cron.Entry(d.entryID).Next))
	}
}

// RefreshNow force-refreshes the current year and, if enabled, the next one.
// A failure for the next year is only logged: its document is usually
// published late in the current year.
func (d *Daemon) RefreshNow() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	year := d.now().Year()
	start := time.Now()

	_, err := d.refresher.RefreshYear(year)
	d.lastRunTime = d.now()
	d.lastErr = err
	if err != nil {
		return fmt.Errorf("failed to refresh %d: %w", year, err)
	}

	d.logger.Info("Calendar refreshed",
		zap.Int("year", year),
		zap.Duration("took", time.Since(start)))

	if d.refreshNextYear {
		if _, err := d.refresher.RefreshYear(year + 1); err != nil {
			d.logger.Warn("Next year is not available yet",
				zap.Int("year", year+1),
				zap.Error(err))
		} else {
			d.logger.Info("Calendar refreshed", zap.Int("year", year+1))
		}
	}

	return nil
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := map[string]interface{}{
		"schedule":          d.schedule,
		"refresh_next_year": d.refreshNextYear,
	}

	if !d.lastRunTime.IsZero() {
		status["last_run"] = d.lastRunTime.Format(time.RFC3339)
		if d.lastErr != nil {
			status["last_error"] = d.lastErr.Error()
		}
	}

	if d.cron != nil {
		if next := d.cron.Entry(d.entryID).Next; !next.IsZero() {
			status["next_run"] = next.Format(time.RFC3339)
		}
	}

	return status
}

// cronLogger routes cron's internal logging to zap
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
