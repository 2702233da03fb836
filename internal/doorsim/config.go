package doorsim

import "time"

// Config holds configuration for a simulated run.
type Config struct {
	BaseURL string        // Monitor HTTP base URL, used for health and report checks
	Users   []string      // User codes taking turns at the door
	Visits  int           // Number of visits to plan
	MinStay time.Duration // Shortest time spent inside
	MaxStay time.Duration // Longest time spent inside
	Gap     time.Duration // Wait between visits; longer than a second splits periods
	Settle  time.Duration // Wait after the last exit before reading the report
	Timeout time.Duration // HTTP request timeout
	Seed    int64         // Plan seed; zero picks one from the clock
	Verify  bool          // Compare the monitor report with the plan
	Verbose bool          // Log every door decision
}

// Visit is one planned entry and exit.
type Visit struct {
	User string        `json:"user"`
	Stay time.Duration `json:"stay"`
}

// Stats holds run statistics.
type Stats struct {
	VisitsPlanned   int
	Entered         int
	Exited          int
	Denied          int
	Failed          int
	PeriodsReported int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
