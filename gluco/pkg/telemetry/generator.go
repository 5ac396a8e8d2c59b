package telemetry

import (
	"math"
	"math/rand"
	"securegluco/gluco/defs"
	"time"
)

const (
	MinValue = 50
	MaxValue = 400

	// Trend moves past this many mg/dL between consecutive readings.
	TrendDelta = 5

	baseValue     = 120
	baseAmplitude = 30
	noiseRange    = 20
	readingsOfDay = int(24 * time.Hour / defs.ReadingSpacing)
)

// Generator produces simulated CGM readings. It is not safe for concurrent
// use; the dashboard only calls it from its scheduler.
type Generator struct {
	Spacing time.Duration
	MaxStep int

	rand *rand.Rand
}

func New(src rand.Source, maxStep int) *Generator {
	if maxStep <= 0 {
		maxStep = defs.DefaultMaxStep
	}
	return &Generator{
		Spacing: defs.ReadingSpacing,
		MaxStep: maxStep,
		rand:    rand.New(src),
	}
}

// Generate returns windowSize readings ending at now, oldest first, following
// a daily sine curve with bounded noise.
func (g *Generator) Generate(now time.Time, windowSize int) []defs.GlucoseReading {
	if windowSize <= 0 {
		return []defs.GlucoseReading{}
	}

	trs := make([]defs.GlucoseReading, 0, windowSize)
	for i := windowSize - 1; i >= 0; i-- {
		phase := 2 * math.Pi * float64(i) / float64(readingsOfDay)
		base := baseValue + math.Sin(phase)*baseAmplitude
		noise := (g.rand.Float64() - 0.5) * noiseRange
		value := Clamp(int(math.Round(base+noise)), MinValue, MaxValue)

		trend := defs.Stable
		if len(trs) > 0 {
			trend = TrendOf(trs[len(trs)-1].Value, value)
		}

		trs = append(trs, defs.GlucoseReading{
			Time:  now.Add(-time.Duration(i) * g.Spacing),
			Value: value,
			Trend: trend,
		})
	}
	return trs
}

// Advance returns a new window with one reading appended at now and the
// oldest dropped. The input is not modified.
func (g *Generator) Advance(series []defs.GlucoseReading, now time.Time) []defs.GlucoseReading {
	if len(series) == 0 {
		return []defs.GlucoseReading{{Time: now, Value: baseValue, Trend: defs.Stable}}
	}

	prev := series[len(series)-1].Value
	step := g.rand.Intn(2*g.MaxStep+1) - g.MaxStep
	value := Clamp(prev+step, MinValue, MaxValue)

	next := make([]defs.GlucoseReading, 0, len(series))
	next = append(next, series[1:]...)
	next = append(next, defs.GlucoseReading{
		Time:  now,
		Value: value,
		Trend: TrendOf(prev, value),
	})
	return next
}

func TrendOf(prev, cur int) defs.Trend {
	switch diff := cur - prev; {
	case diff > TrendDelta:
		return defs.Rising
	case diff < -TrendDelta:
		return defs.Falling
	default:
		return defs.Stable
	}
}

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
