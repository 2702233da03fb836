package doorsim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/doorlog/internal/report"
	"github.com/okian/doorlog/pkg/logger"
)

// ErrVerification is returned when the report does not account for the run.
var ErrVerification = errors.New("report verification failed")

// verifyReport checks that every user has at least as many periods as
// visits were granted. The telemetry file may hold earlier runs, so extra
// periods are fine.
func verifyReport(ctx context.Context, expected map[string]int, rep report.Report, stats *Stats) error {
	got := make(map[string]int, len(rep.Occupants))
	for _, o := range rep.Occupants {
		got[o.Occupant] = len(o.Periods)
		stats.PeriodsReported += len(o.Periods)
	}

	users := make([]string, 0, len(expected))
	for u := range expected {
		users = append(users, u)
	}
	sort.Strings(users)

	var errs []error
	for _, u := range users {
		if got[u] < expected[u] {
			errs = append(errs, fmt.Errorf("%w: %s has %d periods, want at least %d", ErrVerification, u, got[u], expected[u]))
			continue
		}
		logger.Get().Info(ctx, "periods verified",
			logger.String("user", u),
			logger.Int("expected", expected[u]),
			logger.Int("reported", got[u]))
	}
	return errors.Join(errs...)
}
