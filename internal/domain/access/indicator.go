package access

import "time"

// RGB is an 8-bit colour.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Indicator colours.
var (
	Off   = RGB{}
	Green = RGB{G: 255}
	Amber = RGB{R: 255, G: 191}
	Red   = RGB{R: 255}
)

// Occupancy thresholds for the LED colour.
const (
	GreenUntil = 5 * time.Second
	AmberUntil = 10 * time.Second
)

// Gradient range in °C.
const (
	GradientMin = 20.0
	GradientMax = 35.0
)

// OccupancyColour is green for the first 5s of a period, amber until 10s and
// red after that. It is off when nobody is inside.
func OccupancyColour(p Period, now time.Time) RGB {
	if !p.Active {
		return Off
	}
	switch e := p.Elapsed(now); {
	case e <= GreenUntil:
		return Green
	case e <= AmberUntil:
		return Amber
	default:
		return Red
	}
}

// TemperatureColour maps a temperature onto a blue (cold) to red (hot) ramp.
func TemperatureColour(t float64) RGB {
	if t < GradientMin {
		t = GradientMin
	} else if t > GradientMax {
		t = GradientMax
	}
	f := (t - GradientMin) / (GradientMax - GradientMin)
	return RGB{R: uint8(255 * f), B: uint8(255 * (1 - f))}
}
