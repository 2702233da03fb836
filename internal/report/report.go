// Package report turns persisted telemetry into per-occupant access period
// reports and renders them as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/doorlog/internal/domain/model"
	"github.com/okian/doorlog/internal/domain/segment"
	"github.com/okian/doorlog/pkg/metrics"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml (case-insensitive). Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Occupant is one staff member's section of a report.
type Occupant struct {
	Occupant string            `json:"occupant" yaml:"occupant"`
	Periods  []segment.Summary `json:"periods" yaml:"periods"`
	Total    segment.Total     `json:"total" yaml:"total"`
}

// Report is a full segmentation result.
type Report struct {
	GeneratedAt time.Time  `json:"generated_at" yaml:"generated_at"`
	Records     int        `json:"records" yaml:"records"`
	Occupants   []Occupant `json:"occupants" yaml:"occupants"`
}

// Periods counts every period across occupants.
func (r Report) Periods() int {
	n := 0
	for _, o := range r.Occupants {
		n += len(o.Periods)
	}
	return n
}

// Build sorts a copy of records and reconstructs the access periods. The
// caller's slice is left untouched.
func Build(records []model.TelemetryRecord) Report {
	began := time.Now()

	sorted := slices.Clone(records)
	segment.SortRecords(sorted)
	result := segment.Reconstruct(sorted)

	r := Report{GeneratedAt: began.UTC(), Records: len(records), Occupants: []Occupant{}}
	for _, name := range segment.Occupants(result) {
		periods := result[name]
		total := segment.Totals(periods)
		total.Occupant = name
		r.Occupants = append(r.Occupants, Occupant{Occupant: name, Periods: periods, Total: total})
	}

	metrics.RecordReportRun(r.Periods(), float64(time.Since(began).Microseconds())/1000)
	return r
}

// Render writes r to w in format f.
func Render(w io.Writer, r Report, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// textTime matches the timestamp shape of the legacy report.
const textTime = "2006-01-02 15:04:05"

func renderText(w io.Writer, r Report) error {
	var b strings.Builder
	for _, o := range r.Occupants {
		fmt.Fprintf(&b, "Staff Member: %s\n", o.Occupant)
		for _, p := range o.Periods {
			b.WriteString("Access Period:\n")
			fmt.Fprintf(&b, "  Start Time: %s\n", p.StartTime.Format(textTime))
			fmt.Fprintf(&b, "  End Time: %s\n", p.EndTime.Format(textTime))
			fmt.Fprintf(&b, "  Duration (seconds): %s\n", num(p.DurationSeconds))
			fmt.Fprintf(&b, "  Highest Temperature: %s\n", num(p.MaxTemperature))
			fmt.Fprintf(&b, "  Lowest Dew Point: %s\n", num(p.MinDewPoint))
			b.WriteString("  Readings:\n")
			for _, rd := range p.Readings {
				fmt.Fprintf(&b, "    Timestamp: %s, Temperature: %s, Humidity: %s, Dew Point: %s\n",
					rd.Timestamp.Format(textTime), num(rd.Temperature), num(rd.Humidity), num(rd.DewPoint))
			}
		}
		fmt.Fprintf(&b, "Total Time: %s\n", num(o.Total.Seconds))
		lowest := math.Inf(1)
		if o.Total.MinDewPoint != nil {
			lowest = *o.Total.MinDewPoint
		}
		fmt.Fprintf(&b, "Lowest Dew Point Recorded: %s\n\n", num(lowest))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	return nil
}

// num prints a float the way the legacy report did: shortest form, always
// with a decimal point.
func num(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
