// Package segment reconstructs access periods from persisted telemetry.
//
// Reconstruction is pure: the same records always produce the same
// summaries. Records are grouped by occupant and each occupant's records are
// scanned in order; a gap of more than MaxGap between consecutive valid
// records closes the current period and opens the next one.
package segment

import (
	"math"
	"sort"
	"time"

	"github.com/okian/doorlog/internal/domain/model"
)

// MaxGap is the longest silence that still belongs to one period.
const MaxGap = time.Second

// Reading is one valid sample inside a period.
type Reading struct {
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Temperature float64   `json:"temperature" yaml:"temperature"`
	Humidity    float64   `json:"humidity" yaml:"humidity"`
	DewPoint    float64   `json:"dew_point" yaml:"dew_point"`
}

// Summary describes one reconstructed access period.
type Summary struct {
	Occupant        string    `json:"occupant" yaml:"occupant"`
	StartTime       time.Time `json:"start_time" yaml:"start_time"`
	EndTime         time.Time `json:"end_time" yaml:"end_time"`
	DurationSeconds float64   `json:"duration_seconds" yaml:"duration_seconds"`
	MaxTemperature  float64   `json:"max_temperature" yaml:"max_temperature"`
	MinDewPoint     float64   `json:"min_dew_point" yaml:"min_dew_point"`
	Readings        []Reading `json:"readings" yaml:"readings"`
}

// DewPoint approximates the dew point in °C from temperature and relative
// humidity.
func DewPoint(temperature, humidity float64) float64 {
	return temperature - (100-humidity)/5
}

// SortRecords orders records by timestamp, keeping the relative order of
// equal timestamps.
func SortRecords(records []model.TelemetryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}

// Reconstruct groups records by occupant and splits each group into
// periods. Input must already be sorted by timestamp. Every occupant seen
// in the input has an entry, empty when none of its records were valid.
func Reconstruct(records []model.TelemetryRecord) map[string][]Summary {
	out := make(map[string][]Summary)
	open := make(map[string]*Summary)

	for _, rec := range records {
		if _, seen := out[rec.Occupant]; !seen {
			out[rec.Occupant] = []Summary{}
		}
		if !rec.Valid() {
			continue
		}

		t, h := *rec.Temperature, *rec.Humidity
		r := Reading{Timestamp: rec.Timestamp, Temperature: t, Humidity: h, DewPoint: DewPoint(t, h)}

		cur := open[rec.Occupant]
		if cur != nil && rec.Timestamp.Sub(cur.EndTime) > MaxGap {
			out[rec.Occupant] = append(out[rec.Occupant], seal(cur))
			cur = nil
		}
		if cur == nil {
			open[rec.Occupant] = &Summary{
				Occupant:       rec.Occupant,
				StartTime:      r.Timestamp,
				EndTime:        r.Timestamp,
				MaxTemperature: t,
				MinDewPoint:    r.DewPoint,
				Readings:       []Reading{r},
			}
			continue
		}
		cur.EndTime = r.Timestamp
		cur.MaxTemperature = math.Max(cur.MaxTemperature, t)
		cur.MinDewPoint = math.Min(cur.MinDewPoint, r.DewPoint)
		cur.Readings = append(cur.Readings, r)
	}

	for occupant, cur := range open {
		out[occupant] = append(out[occupant], seal(cur))
	}
	return out
}

func seal(s *Summary) Summary {
	s.DurationSeconds = s.EndTime.Sub(s.StartTime).Seconds()
	return *s
}

// Total aggregates every period of one occupant.
type Total struct {
	Occupant    string   `json:"occupant" yaml:"occupant"`
	Periods     int      `json:"periods" yaml:"periods"`
	Seconds     float64  `json:"total_seconds" yaml:"total_seconds"`
	MinDewPoint *float64 `json:"lowest_dew_point,omitempty" yaml:"lowest_dew_point,omitempty"`
}

// Totals sums durations and finds the lowest dew point across summaries.
// MinDewPoint is nil when there are no summaries.
func Totals(summaries []Summary) Total {
	t := Total{Periods: len(summaries)}
	for _, s := range summaries {
		t.Occupant = s.Occupant
		t.Seconds += s.DurationSeconds
		if t.MinDewPoint == nil || s.MinDewPoint < *t.MinDewPoint {
			dp := s.MinDewPoint
			t.MinDewPoint = &dp
		}
	}
	return t
}

// Occupants returns the keys of a reconstruction in sorted order.
func Occupants(result map[string][]Summary) []string {
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
