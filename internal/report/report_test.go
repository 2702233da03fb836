package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/doorlog/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

var base = time.Date(2023, 5, 7, 14, 3, 9, 0, time.UTC)

func fp(v float64) *float64 { return &v }

func rec(occupant string, offset time.Duration, temp, hum float64) model.TelemetryRecord {
	return model.TelemetryRecord{Occupant: occupant, Timestamp: base.Add(offset), Temperature: fp(temp), Humidity: fp(hum)}
}

func fixture() []model.TelemetryRecord {
	return []model.TelemetryRecord{
		rec("MJ235AA", 5*time.Second, 25, 50),
		rec("MJ235AA", 0, 24, 40),
		rec("MJ235AA", time.Second, 24.5, 45),
		rec("CK523BB", 2*time.Second, 22, 60),
		{Occupant: "ZZ000ZZ", Timestamp: base, Temperature: fp(20)},
	}
}

func TestBuild(t *testing.T) {
	convey.Convey("Given unsorted telemetry for several occupants", t, func() {
		records := fixture()
		r := Build(records)

		convey.Convey("Then the input slice is not reordered", func() {
			convey.So(records[0].Timestamp, convey.ShouldEqual, base.Add(5*time.Second))
		})

		convey.Convey("Then occupants are listed in order with their periods", func() {
			convey.So(r.Records, convey.ShouldEqual, 5)
			convey.So(len(r.Occupants), convey.ShouldEqual, 3)
			convey.So(r.Occupants[0].Occupant, convey.ShouldEqual, "CK523BB")
			convey.So(r.Occupants[1].Occupant, convey.ShouldEqual, "MJ235AA")
			convey.So(len(r.Occupants[1].Periods), convey.ShouldEqual, 2)
			convey.So(r.Occupants[1].Total.Seconds, convey.ShouldEqual, 1.0)
			convey.So(*r.Occupants[1].Total.MinDewPoint, convey.ShouldEqual, 12.0)
			convey.So(r.Periods(), convey.ShouldEqual, 3)
		})

		convey.Convey("Then an occupant with no valid rows has an empty section", func() {
			z := r.Occupants[2]
			convey.So(z.Occupant, convey.ShouldEqual, "ZZ000ZZ")
			convey.So(z.Periods, convey.ShouldBeEmpty)
			convey.So(z.Total.Occupant, convey.ShouldEqual, "ZZ000ZZ")
			convey.So(z.Total.MinDewPoint, convey.ShouldBeNil)
		})
	})

	convey.Convey("Given no telemetry", t, func() {
		r := Build(nil)

		convey.Convey("Then the report is empty", func() {
			convey.So(r.Occupants, convey.ShouldBeEmpty)
			var buf bytes.Buffer
			convey.So(Render(&buf, r, FormatText), convey.ShouldBeNil)
			convey.So(buf.String(), convey.ShouldEqual, "")
		})
	})
}

func TestRender(t *testing.T) {
	convey.Convey("Given a report", t, func() {
		r := Build([]model.TelemetryRecord{rec("MJ235AA", 0, 24, 40), rec("MJ235AA", time.Second, 24.5, 45)})

		convey.Convey("When rendered as text", func() {
			var buf bytes.Buffer
			convey.So(Render(&buf, r, FormatText), convey.ShouldBeNil)

			convey.Convey("Then it follows the legacy layout", func() {
				convey.So(buf.String(), convey.ShouldEqual, strings.Join([]string{
					"Staff Member: MJ235AA",
					"Access Period:",
					"  Start Time: 2023-05-07 14:03:09",
					"  End Time: 2023-05-07 14:03:10",
					"  Duration (seconds): 1.0",
					"  Highest Temperature: 24.5",
					"  Lowest Dew Point: 12.0",
					"  Readings:",
					"    Timestamp: 2023-05-07 14:03:09, Temperature: 24.0, Humidity: 40.0, Dew Point: 12.0",
					"    Timestamp: 2023-05-07 14:03:10, Temperature: 24.5, Humidity: 45.0, Dew Point: 13.5",
					"Total Time: 1.0",
					"Lowest Dew Point Recorded: 12.0",
					"",
					"",
				}, "\n"))
			})
		})

		convey.Convey("When rendered as JSON", func() {
			var buf bytes.Buffer
			convey.So(Render(&buf, r, FormatJSON), convey.ShouldBeNil)

			convey.Convey("Then it decodes back to the same shape", func() {
				var got Report
				convey.So(json.Unmarshal(buf.Bytes(), &got), convey.ShouldBeNil)
				convey.So(got.Occupants[0].Periods[0].DurationSeconds, convey.ShouldEqual, 1.0)
				convey.So(len(got.Occupants[0].Periods[0].Readings), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When rendered as YAML", func() {
			var buf bytes.Buffer
			convey.So(Render(&buf, r, FormatYAML), convey.ShouldBeNil)

			convey.Convey("Then the totals are present", func() {
				var got map[string]any
				convey.So(yaml.Unmarshal(buf.Bytes(), &got), convey.ShouldBeNil)
				convey.So(buf.String(), convey.ShouldContainSubstring, "total_seconds: 1")
				convey.So(buf.String(), convey.ShouldContainSubstring, "occupant: MJ235AA")
			})
		})

		convey.Convey("When the format is unknown", func() {
			err := Render(&bytes.Buffer{}, r, Format("xml"))
			convey.So(errors.Is(err, ErrUnknownFormat), convey.ShouldBeTrue)
		})
	})
}

func TestParseFormat(t *testing.T) {
	convey.Convey("Given format names", t, func() {
		f, err := ParseFormat("")
		convey.So(err, convey.ShouldBeNil)
		convey.So(f, convey.ShouldEqual, FormatText)

		f, err = ParseFormat(" YAML ")
		convey.So(err, convey.ShouldBeNil)
		convey.So(f, convey.ShouldEqual, FormatYAML)
		convey.So(f.ContentType(), convey.ShouldStartWith, "application/yaml")

		_, err = ParseFormat("csv")
		convey.So(errors.Is(err, ErrUnknownFormat), convey.ShouldBeTrue)
	})
}
