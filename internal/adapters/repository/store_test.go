package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/doorlog/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

var ts0 = time.Date(2023, 5, 7, 14, 3, 9, 0, time.UTC)

func fp(v float64) *float64 { return &v }

func sample(occupant string, offset time.Duration, temp, hum float64) model.TelemetryRecord {
	return model.TelemetryRecord{Occupant: occupant, Timestamp: ts0.Add(offset), Temperature: fp(temp), Humidity: fp(hum)}
}

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(open func() Store) {
	ctx := context.Background()

	convey.Convey("When records and a boundary are appended", func() {
		s := open()
		defer func() { _ = s.Close() }()

		convey.So(s.Append(ctx, sample("MJ235AA", 0, 24.5, 45)), convey.ShouldBeNil)
		convey.So(s.Append(ctx, sample("MJ235AA", time.Second, 24.6, 46)), convey.ShouldBeNil)
		convey.So(s.AppendBoundary(ctx), convey.ShouldBeNil)
		convey.So(s.Append(ctx, sample("CK523BB", 5*time.Second, 30, 50)), convey.ShouldBeNil)

		convey.Convey("Then records come back in order without the marker", func() {
			got, err := s.Records(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(got), convey.ShouldEqual, 3)
			convey.So(got[0].Occupant, convey.ShouldEqual, "MJ235AA")
			convey.So(got[0].Timestamp.Equal(ts0), convey.ShouldBeTrue)
			convey.So(*got[1].Temperature, convey.ShouldEqual, 24.6)
			convey.So(*got[2].Humidity, convey.ShouldEqual, 50.0)
			convey.So(got[2].Occupant, convey.ShouldEqual, "CK523BB")
		})
	})

	convey.Convey("When a record has missing values", func() {
		s := open()
		defer func() { _ = s.Close() }()

		convey.So(s.Append(ctx, model.TelemetryRecord{Timestamp: ts0, Temperature: fp(21)}), convey.ShouldBeNil)

		convey.Convey("Then the missing value reads back as nil", func() {
			got, err := s.Records(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(got), convey.ShouldEqual, 1)
			convey.So(got[0].Occupant, convey.ShouldEqual, "")
			convey.So(*got[0].Temperature, convey.ShouldEqual, 21.0)
			convey.So(got[0].Humidity, convey.ShouldBeNil)
		})
	})

	convey.Convey("When the store is closed", func() {
		s := open()
		convey.So(s.Close(), convey.ShouldBeNil)

		convey.Convey("Then appends fail with ErrStoreClosed", func() {
			convey.So(errors.Is(s.Append(ctx, sample("A", 0, 1, 1)), ErrStoreClosed), convey.ShouldBeTrue)
			convey.So(errors.Is(s.AppendBoundary(ctx), ErrStoreClosed), convey.ShouldBeTrue)
			convey.So(s.Close(), convey.ShouldBeNil)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	convey.Convey("Given a memory store", t, func() {
		exerciseStore(func() Store { return NewMemoryStore() })

		convey.Convey("When writes are set to fail", func() {
			s := NewMemoryStore()
			boom := errors.New("disk full")
			s.FailWith(boom)

			convey.Convey("Then every append returns that error until cleared", func() {
				convey.So(s.Append(context.Background(), sample("A", 0, 1, 1)), convey.ShouldEqual, boom)
				convey.So(s.AppendBoundary(context.Background()), convey.ShouldEqual, boom)
				s.FailWith(nil)
				convey.So(s.AppendBoundary(context.Background()), convey.ShouldBeNil)
				n, _ := s.Boundaries(context.Background())
				convey.So(n, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestCSVStore(t *testing.T) {
	convey.Convey("Given a CSV store in a temp dir", t, func() {
		dir := t.TempDir()
		n := 0
		exerciseStore(func() Store {
			n++
			s, err := OpenCSV(filepath.Join(dir, "telemetry-"+strings.Repeat("x", n)+".csv"))
			convey.So(err, convey.ShouldBeNil)
			return s
		})

		convey.Convey("When rows are written", func() {
			path := filepath.Join(dir, "bme680_data.csv")
			s, err := OpenCSV(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Append(context.Background(), sample("MJ235AA", 0, 24.5, 45)), convey.ShouldBeNil)
			convey.So(s.AppendBoundary(context.Background()), convey.ShouldBeNil)
			convey.So(s.Close(), convey.ShouldBeNil)

			convey.Convey("Then the file has the header, the row and a blank marker", func() {
				raw, err := os.ReadFile(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldEqual,
					"User,Timestamp,Temperature (C),Humidity (%)\n"+
						"MJ235AA,07/05/2023 14:03:09,24.5,45\n"+
						",,,\n")
			})

			convey.Convey("Then reopening appends without a second header", func() {
				s2, err := OpenCSV(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(s2.Append(context.Background(), sample("CK523BB", time.Minute, 20, 30)), convey.ShouldBeNil)
				convey.So(s2.Close(), convey.ShouldBeNil)

				raw, _ := os.ReadFile(path)
				convey.So(strings.Count(string(raw), "User,Timestamp"), convey.ShouldEqual, 1)

				got, err := ReadCSVFile(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(got), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the path is empty", func() {
			_, err := OpenCSV("  ")

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, ErrEmptyPath), convey.ShouldBeTrue)
			})
		})
	})
}

func TestReadCSV(t *testing.T) {
	convey.Convey("Given a telemetry file written by an older logger", t, func() {
		in := strings.Join([]string{
			"User,Timestamp,Temperature (C),Humidity (%)",
			"MJ235AA,07/05/2023 14:03:09,24.5,45.0",
			"MJ235AA,07/05/2023 14:03:10,,46.0",
			",,,",
			"",
			"CK523BB,07/05/2023 15:00:00,22.1,NaN",
			"CK523BB,07/05/2023 15:00:00,Inf,40",
			"CK523BB,07/05/2023 15:00:00,22.1,-Inf",
			"CK523BB,not a time,22.1,40",
			"CK523BB,2023-05-07T15:00:01.5Z,22.2,41",
		}, "\n")

		got, err := ReadCSV(strings.NewReader(in))

		convey.Convey("Then markers and unparseable timestamps are skipped", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(got), convey.ShouldEqual, 6)
		})

		convey.Convey("Then empty and NaN cells become missing values", func() {
			convey.So(got[1].Temperature, convey.ShouldBeNil)
			convey.So(*got[1].Humidity, convey.ShouldEqual, 46.0)
			convey.So(got[2].Humidity, convey.ShouldBeNil)
		})

		convey.Convey("Then infinite cells become missing values", func() {
			convey.So(got[3].Temperature, convey.ShouldBeNil)
			convey.So(*got[3].Humidity, convey.ShouldEqual, 40.0)
			convey.So(got[4].Humidity, convey.ShouldBeNil)
		})

		convey.Convey("Then RFC 3339 timestamps are accepted", func() {
			convey.So(got[5].Timestamp, convey.ShouldEqual, time.Date(2023, 5, 7, 15, 0, 1, 500_000_000, time.UTC))
		})
	})

	convey.Convey("Given a missing file", t, func() {
		got, err := ReadCSVFile(filepath.Join(t.TempDir(), "absent.csv"))

		convey.Convey("Then it reads as empty", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldBeEmpty)
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	convey.Convey("Given a SQLite store", t, func() {
		dir := t.TempDir()
		n := 0
		exerciseStore(func() Store {
			n++
			s, err := OpenSQLite(context.Background(), filepath.Join(dir, "telemetry-"+strings.Repeat("x", n)+".db"))
			convey.So(err, convey.ShouldBeNil)
			return s
		})

		convey.Convey("When boundaries are written in memory", func() {
			s, err := OpenSQLite(context.Background(), ":memory:")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = s.Close() }()

			convey.So(s.AppendBoundary(context.Background()), convey.ShouldBeNil)
			convey.So(s.AppendBoundary(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then they are counted but never returned as records", func() {
				b, err := s.Boundaries(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(b, convey.ShouldEqual, 2)
				got, err := s.Records(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When sub-second timestamps are stored", func() {
			s, err := OpenSQLite(context.Background(), ":memory:")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = s.Close() }()
			convey.So(s.Append(context.Background(), sample("A", 250*time.Millisecond, 1, 2)), convey.ShouldBeNil)

			convey.Convey("Then they keep their precision", func() {
				got, _ := s.Records(context.Background())
				convey.So(got[0].Timestamp, convey.ShouldEqual, ts0.Add(250*time.Millisecond))
			})
		})
	})
}

func TestOpen(t *testing.T) {
	convey.Convey("Given a backend name", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		convey.Convey("When the backend is csv", func() {
			path := filepath.Join(dir, "t.csv")
			s, err := Open(ctx, BackendCSV, path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Append(ctx, sample("A", 0, 20, 50)), convey.ShouldBeNil)
			convey.So(s.Close(), convey.ShouldBeNil)

			convey.Convey("Then ReadAll sees the record", func() {
				got, err := ReadAll(ctx, BackendCSV, path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(got), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the backend is sqlite", func() {
			path := filepath.Join(dir, "t.db")
			s, err := Open(ctx, BackendSQLite, path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Append(ctx, sample("A", 0, 20, 50)), convey.ShouldBeNil)
			convey.So(s.Close(), convey.ShouldBeNil)

			convey.Convey("Then ReadAll reopens and reads it", func() {
				got, err := ReadAll(ctx, BackendSQLite, path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(got), convey.ShouldEqual, 1)
				convey.So(got[0].Occupant, convey.ShouldEqual, "A")
			})
		})

		convey.Convey("When the backend is unknown", func() {
			_, err := Open(ctx, "parquet", filepath.Join(dir, "x"))
			convey.So(errors.Is(err, ErrUnknownBackend), convey.ShouldBeTrue)
		})
	})
}
