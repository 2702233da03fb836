package doorsim

import (
	"context"
	"fmt"
	"net/http"
	"time"

	service "github.com/okian/doorlog/internal/app"
	"github.com/okian/doorlog/pkg/logger"
)

// Controller is the door the simulation walks through.
type Controller interface {
	Enter(ctx context.Context, code string) (service.Decision, error)
	Exit(ctx context.Context, code string) (service.Decision, error)
}

// Run plays a visit plan through door and, when enabled, checks the
// monitor's report against it.
func Run(ctx context.Context, cfg *Config, door Controller) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting door simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("visits", cfg.Visits),
		logger.Duration("minStay", cfg.MinStay),
		logger.Duration("maxStay", cfg.MaxStay),
		logger.Duration("gap", cfg.Gap),
		logger.Bool("verify", cfg.Verify))

	if cfg.Verify {
		if err := checkServiceHealth(ctx, cfg); err != nil {
			return stats, fmt.Errorf("service health check failed: %w", err)
		}
	}

	visits := PlanVisits(ctx, cfg)
	stats.VisitsPlanned = len(visits)

	granted := make([]Visit, 0, len(visits))
	for i, v := range visits {
		ok, err := visit(ctx, cfg, door, v, stats)
		if err != nil {
			return stats, fmt.Errorf("visit %d: %w", i, err)
		}
		if ok {
			granted = append(granted, v)
		}
		if i < len(visits)-1 {
			if err := sleep(ctx, cfg.Gap); err != nil {
				return stats, err
			}
		}
	}

	if cfg.Verify {
		if err := sleep(ctx, cfg.Settle); err != nil {
			return stats, err
		}
		rep, err := fetchReport(ctx, cfg)
		if err != nil {
			return stats, err
		}
		if err := verifyReport(ctx, expectedPeriods(granted), rep, stats); err != nil {
			return stats, err
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// visit enters, stays and exits. It reports whether the visit happened.
func visit(ctx context.Context, cfg *Config, door Controller, v Visit, stats *Stats) (bool, error) {
	dec, err := door.Enter(ctx, v.User)
	if err != nil {
		stats.Failed++
		return false, err
	}
	if cfg.Verbose {
		logger.Get().Info(ctx, "enter", logger.String("user", v.User), logger.String("decision", string(dec)))
	}
	if !dec.Granted() {
		stats.Denied++
		return false, nil
	}
	stats.Entered++

	if err := sleep(ctx, v.Stay); err != nil {
		return false, err
	}

	dec, err = door.Exit(ctx, v.User)
	if err != nil {
		stats.Failed++
		return false, err
	}
	if cfg.Verbose {
		logger.Get().Info(ctx, "exit", logger.String("user", v.User), logger.String("decision", string(dec)))
	}
	if !dec.Granted() {
		stats.Denied++
		return false, nil
	}
	stats.Exited++
	return true, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("simulation cancelled: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

// checkServiceHealth verifies the monitor is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("visitsPlanned", stats.VisitsPlanned),
		logger.Int("entered", stats.Entered),
		logger.Int("exited", stats.Exited),
		logger.Int("denied", stats.Denied),
		logger.Int("failed", stats.Failed),
		logger.Int("periodsReported", stats.PeriodsReported),
		logger.Duration("duration", stats.Duration))
}
