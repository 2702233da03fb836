package doorsim

import (
	"context"
	"math/rand"
	"time"

	"github.com/okian/doorlog/pkg/logger"
)

// PlanVisits builds a deterministic visit plan for cfg. Users are drawn at
// random and stays are uniform in [MinStay, MaxStay].
func PlanVisits(ctx context.Context, cfg *Config) []Visit {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // simulation only

	visits := make([]Visit, 0, cfg.Visits)
	for range cfg.Visits {
		visits = append(visits, Visit{
			User: cfg.Users[rng.Intn(len(cfg.Users))],
			Stay: stay(rng, cfg.MinStay, cfg.MaxStay),
		})
	}

	logger.Get().Info(ctx, "planned visits", logger.Int("count", len(visits)), logger.Any("seed", seed))
	return visits
}

func stay(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rng.Int63n(int64(hi-lo)+1))
}

// expectedPeriods counts planned visits per user.
func expectedPeriods(visits []Visit) map[string]int {
	out := make(map[string]int)
	for _, v := range visits {
		out[v.User]++
	}
	return out
}
