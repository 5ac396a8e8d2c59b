package stats

import (
	"fmt"
	"securegluco/gluco/defs"
	"time"

	"github.com/montanaflynn/stats"
)

// MaxBuckets is how many hourly buckets are kept, most recent last.
const MaxBuckets = 24

type TimeRange int

const (
	Day TimeRange = iota
	Week
	Month
	Quarter
)

func (tr TimeRange) String() string {
	return [...]string{"24h", "7d", "30d", "90d"}[tr]
}

func (tr TimeRange) Duration() time.Duration {
	return [...]time.Duration{24 * time.Hour, 7 * 24 * time.Hour, 30 * 24 * time.Hour, 90 * 24 * time.Hour}[tr]
}

// ParseTimeRange accepts the labels produced by String. The empty string is
// the last day.
func ParseTimeRange(s string) (TimeRange, error) {
	if s == "" {
		return Day, nil
	}
	for _, tr := range []TimeRange{Day, Week, Month, Quarter} {
		if tr.String() == s {
			return tr, nil
		}
	}
	return Day, fmt.Errorf("unknown time range %q", s)
}

// FilterRange keeps the readings taken within tr of now.
func FilterRange(trs []defs.GlucoseReading, tr TimeRange, now time.Time) []defs.GlucoseReading {
	cutoff := now.Add(-tr.Duration())
	out := make([]defs.GlucoseReading, 0, len(trs))
	for _, r := range trs {
		if !r.Time.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// RangeAnalysis holds whole percentages, rounded independently, so they need
// not add up to exactly 100.
type RangeAnalysis struct {
	BelowRange int `json:"low"`
	InRange    int `json:"inRange"`
	AboveRange int `json:"high"`
}

func TimeSpentInRange(trs []defs.GlucoseReading, lower, upper int) RangeAnalysis {
	if len(trs) == 0 {
		return RangeAnalysis{}
	}

	below, above := 0.0, 0.0
	for _, tr := range trs {
		switch {
		case tr.Value < lower:
			below++
		case tr.Value > upper:
			above++
		}
	}
	in := float64(len(trs)) - below - above

	total := float64(len(trs))
	return RangeAnalysis{
		BelowRange: percent(below, total),
		InRange:    percent(in, total),
		AboveRange: percent(above, total),
	}
}

type SummaryStatistics struct {
	Count     int     `json:"count"`
	Average   float64 `json:"average"`
	Deviation float64 `json:"deviation"`
	Min       int     `json:"min"`
	Max       int     `json:"max"`
}

func GlucoseSummary(trs []defs.GlucoseReading) SummaryStatistics {
	if len(trs) == 0 {
		return SummaryStatistics{}
	}

	values := floats(trs)
	avg, _ := stats.Mean(values)
	dev, _ := stats.StandardDeviation(values)
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)

	avg, _ = stats.Round(avg, 0)
	dev, _ = stats.Round(dev, 1)

	return SummaryStatistics{
		Count:     len(trs),
		Average:   avg,
		Deviation: dev,
		Min:       int(min),
		Max:       int(max),
	}
}

type HourlyBucket struct {
	Hour    time.Time `json:"hour"`
	Average int       `json:"average"`
	InRange int       `json:"inRange"`
	Total   int       `json:"total"`
}

// HourlyBuckets groups readings by the hour they were taken in loc, oldest
// first, and keeps the last MaxBuckets of them.
func HourlyBuckets(trs []defs.GlucoseReading, lower, upper int, loc *time.Location) []HourlyBucket {
	if loc == nil {
		loc = time.UTC
	}

	buckets := make([]HourlyBucket, 0)
	values := make([]float64, 0)
	flush := func() {
		if len(buckets) == 0 {
			return
		}
		avg, _ := stats.Mean(values)
		avg, _ = stats.Round(avg, 0)
		buckets[len(buckets)-1].Average = int(avg)
	}

	for _, tr := range trs {
		hour := tr.Time.In(loc).Truncate(time.Hour)
		if len(buckets) == 0 || !buckets[len(buckets)-1].Hour.Equal(hour) {
			flush()
			buckets = append(buckets, HourlyBucket{Hour: hour})
			values = values[:0]
		}

		b := &buckets[len(buckets)-1]
		b.Total++
		if tr.Value >= lower && tr.Value <= upper {
			b.InRange++
		}
		values = append(values, float64(tr.Value))
	}
	flush()

	if len(buckets) > MaxBuckets {
		buckets = buckets[len(buckets)-MaxBuckets:]
	}
	return buckets
}

type Band int

const (
	CriticalLow Band = iota
	Low
	Normal
	High
	CriticalHigh
)

func (b Band) String() string {
	return [...]string{"critical-low", "low", "normal", "high", "critical-high"}[b]
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Bands used for colouring readings. High stops at 250, below the alerting
// critical threshold.
const (
	bandCriticalLow = 54
	bandLow         = 70
	bandNormal      = 180
	bandHigh        = 250
)

func Classify(v int) Band {
	switch {
	case v < bandCriticalLow:
		return CriticalLow
	case v < bandLow:
		return Low
	case v <= bandNormal:
		return Normal
	case v <= bandHigh:
		return High
	default:
		return CriticalHigh
	}
}

func floats(trs []defs.GlucoseReading) []float64 {
	out := make([]float64, len(trs))
	for i, tr := range trs {
		out[i] = float64(tr.Value)
	}
	return out
}

func percent(n, total float64) int {
	p, _ := stats.Round(n/total*100, 0)
	return int(p)
}
