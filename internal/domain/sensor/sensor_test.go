package sensor

import (
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// scripted replays draws expressed in the [1,100] domain used by the walk.
type scripted struct {
	draws []int
	pos   int
}

func (s *scripted) Intn(n int) int {
	if s.pos >= len(s.draws) {
		return n - 1 // draw 100: hold
	}
	d := s.draws[s.pos]
	s.pos++
	return d - 1
}

// noSpike never yields a draw below SpikeProbability, so every change is directed.
type noSpike struct{ r *rand.Rand }

func (s noSpike) Intn(n int) int {
	return SpikeProbability - 1 + s.r.Intn(n-SpikeProbability+1)
}

const hold = 100

func TestStepSingleChannel(t *testing.T) {
	Convey("Given a model at the normal reading", t, func() {
		Convey("When the change draw misses", func() {
			m := New(WithSource(&scripted{draws: []int{ChangeProbability, hold, hold, hold}}))
			r := m.Step(Target{Temperature: Float(35)})

			Convey("Then the channel holds", func() {
				So(r.Temperature, ShouldEqual, NormalTemperature)
			})
		})

		Convey("When a directed move is drawn below target", func() {
			m := New(WithSource(&scripted{draws: []int{1, SpikeProbability, hold, hold, hold}}))
			r := m.Step(Target{Temperature: Float(35)})

			Convey("Then temperature rises one step", func() {
				So(r.Temperature, ShouldAlmostEqual, NormalTemperature+TemperatureStep, 1e-9)
				So(r.Pressure, ShouldEqual, NormalPressure)
			})
		})

		Convey("When a directed move is drawn above target", func() {
			m := New(WithSource(&scripted{draws: []int{hold, 66, 50, hold, hold}}))
			r := m.Step(Target{Pressure: Float(900)})

			Convey("Then pressure falls one step", func() {
				So(r.Pressure, ShouldEqual, NormalPressure-PressureStep)
			})
		})

		Convey("When a downward spike is drawn against the target", func() {
			m := New(WithSource(&scripted{draws: []int{1, 4, 50, hold, hold, hold}}))
			r := m.Step(Target{Temperature: Float(35)})

			Convey("Then temperature drops despite the higher target", func() {
				So(r.Temperature, ShouldAlmostEqual, NormalTemperature-TemperatureStep, 1e-9)
			})
		})

		Convey("When an upward spike is drawn at the target", func() {
			m := New(WithSource(&scripted{draws: []int{hold, hold, 1, 1, 51, hold}}))
			r := m.Step(Target{})

			Convey("Then humidity rises away from normal", func() {
				So(r.Humidity, ShouldEqual, NormalHumidity+HumidityStep)
			})
		})

		Convey("When the target is unset and the value already matches normal", func() {
			m := New(WithSource(&scripted{draws: []int{1, 50, 1, 50, 1, 50, 1, 50}}))
			r := m.Step(Target{})

			Convey("Then every channel holds", func() {
				So(r, ShouldResemble, NormalReading())
			})
		})

		Convey("When gas resistance is driven toward a lower target", func() {
			m := New(WithSource(&scripted{draws: []int{hold, hold, hold, 10, 90}}))
			r := m.Step(Target{GasResistance: Float(1000)})

			Convey("Then it drops one step and heat stays stable", func() {
				So(r.GasResistance, ShouldEqual, NormalGasResistance-GasResistanceStep)
				So(r.HeatStable, ShouldBeTrue)
				So(m.Reading(), ShouldResemble, r)
			})
		})
	})
}

func TestDirectedWalkConvergence(t *testing.T) {
	Convey("Given a model that never spikes", t, func() {
		m := New(WithSource(noSpike{r: rand.New(rand.NewSource(7))}))
		target := Target{
			Temperature:   Float(35),
			Pressure:      Float(950),
			Humidity:      Float(60),
			GasResistance: Float(5000),
		}

		Convey("When stepping toward a higher temperature target", func() {
			prev := m.Reading()
			monotone := true
			for i := 0; i < 3000; i++ {
				r := m.Step(target)
				if prev.Temperature < 35-TemperatureStep && r.Temperature < prev.Temperature {
					monotone = false
				}
				if prev.Pressure > 950 && r.Pressure > prev.Pressure {
					monotone = false
				}
				prev = r
			}

			Convey("Then channels move monotonically toward the target", func() {
				So(monotone, ShouldBeTrue)
			})

			Convey("Then every channel ends within one step of its target", func() {
				r := m.Reading()
				So(math.Abs(r.Temperature-35), ShouldBeLessThanOrEqualTo, TemperatureStep+1e-6)
				So(math.Abs(r.Pressure-950), ShouldBeLessThanOrEqualTo, PressureStep)
				So(math.Abs(r.Humidity-60), ShouldBeLessThanOrEqualTo, HumidityStep)
				So(r.GasResistance, ShouldEqual, 5000)
			})

			Convey("Then it stays inside the band afterwards", func() {
				inside := true
				for i := 0; i < 500; i++ {
					r := m.Step(target)
					if math.Abs(r.Temperature-35) > TemperatureStep+1e-6 || math.Abs(r.Humidity-60) > HumidityStep {
						inside = false
					}
				}
				So(inside, ShouldBeTrue)
			})
		})
	})
}

func TestSeededModelsAreReproducible(t *testing.T) {
	Convey("Given two models with the same seed", t, func() {
		a := New(WithSeed(42))
		b := New(WithSeed(42))

		Convey("Then they produce identical trajectories", func() {
			for i := 0; i < 200; i++ {
				So(a.Step(Target{Temperature: Float(20)}), ShouldResemble, b.Step(Target{Temperature: Float(20)}))
			}
		})
	})

	Convey("Given a model with a custom initial reading", t, func() {
		start := Reading{Temperature: 30, Pressure: 1000, Humidity: 50, GasResistance: 4000, HeatStable: true}
		m := New(WithInitial(start), WithSource(&scripted{}))

		Convey("Then holding draws keep it there", func() {
			So(m.Step(Target{}), ShouldResemble, start)
		})
	})
}
