package stats

import (
	"math/rand"
	"securegluco/gluco/defs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type StatsTestSuite struct {
	suite.Suite
	now time.Time
}

func TestStatsTestSuite(t *testing.T) {
	suite.Run(t, new(StatsTestSuite))
}

func (suite *StatsTestSuite) SetupTest() {
	suite.now = time.Date(2022, time.May, 12, 8, 0, 0, 0, time.UTC)
}

func (suite *StatsTestSuite) TestTimeSpentInRange() {
	trs := genReadings(suite.now, []metaReadings{
		{size: 15, min: 50, max: 69},
		{size: 60, min: 70, max: 180},
		{size: 25, min: 181, max: 400},
	}...)
	ra := TimeSpentInRange(trs, 70, 180)

	assert.Equal(suite.T(), 15, ra.BelowRange, "below range should match")
	assert.Equal(suite.T(), 60, ra.InRange, "in range should match")
	assert.Equal(suite.T(), 25, ra.AboveRange, "above range should match")
}

func (suite *StatsTestSuite) TestTimeSpentInRangeRounds() {
	trs := genReadings(suite.now, []metaReadings{
		{size: 1, min: 60, max: 60},
		{size: 2, min: 100, max: 100},
	}...)
	ra := TimeSpentInRange(trs, 70, 180)

	assert.Equal(suite.T(), 33, ra.BelowRange)
	assert.Equal(suite.T(), 67, ra.InRange)
	assert.Equal(suite.T(), 0, ra.AboveRange)
}

func (suite *StatsTestSuite) TestTimeSpentInRangeEmpty() {
	assert.Equal(suite.T(), RangeAnalysis{}, TimeSpentInRange(nil, 70, 180))
}

func (suite *StatsTestSuite) TestSummaryStatistics() {
	trs := genReadings(suite.now, []metaReadings{
		{size: 100, min: 120, max: 120},
	}...)
	ss := GlucoseSummary(trs)

	assert.Equal(suite.T(), float64(120), ss.Average, "averages do not equal")
	assert.Equal(suite.T(), float64(0), ss.Deviation, "deviations do not equal")
	assert.Equal(suite.T(), 100, ss.Count)
	assert.Equal(suite.T(), 120, ss.Min)
	assert.Equal(suite.T(), 120, ss.Max)

	assert.Equal(suite.T(), SummaryStatistics{}, GlucoseSummary(nil))
}

func (suite *StatsTestSuite) TestFilterRange() {
	trs := []defs.GlucoseReading{
		{Time: suite.now.Add(-48 * time.Hour), Value: 100},
		{Time: suite.now.Add(-24 * time.Hour), Value: 110},
		{Time: suite.now.Add(-time.Hour), Value: 120},
	}

	assert.Len(suite.T(), FilterRange(trs, Day, suite.now), 2)
	assert.Len(suite.T(), FilterRange(trs, Week, suite.now), 3)
}

func (suite *StatsTestSuite) TestParseTimeRange() {
	for s, want := range map[string]TimeRange{"": Day, "24h": Day, "7d": Week, "30d": Month, "90d": Quarter} {
		tr, err := ParseTimeRange(s)
		assert.NoError(suite.T(), err)
		assert.Equal(suite.T(), want, tr)
	}

	_, err := ParseTimeRange("1y")
	assert.Error(suite.T(), err)
}

func (suite *StatsTestSuite) TestHourlyBuckets() {
	// 36 hours of readings every 20 minutes.
	trs := make([]defs.GlucoseReading, 0)
	start := suite.now.Add(-36 * time.Hour)
	for i := 0; i < 36*3; i++ {
		v := 100
		if i%3 == 0 {
			v = 200
		}
		trs = append(trs, defs.GlucoseReading{Time: start.Add(time.Duration(i*20) * time.Minute), Value: v})
	}

	buckets := HourlyBuckets(trs, 70, 180, time.UTC)
	assert.Len(suite.T(), buckets, MaxBuckets)
	assert.Equal(suite.T(), suite.now.Add(-time.Hour), buckets[len(buckets)-1].Hour)

	for _, b := range buckets {
		assert.Equal(suite.T(), 3, b.Total)
		assert.Equal(suite.T(), 2, b.InRange)
		assert.Equal(suite.T(), 133, b.Average)
	}
}

func (suite *StatsTestSuite) TestClassify() {
	assert.Equal(suite.T(), CriticalLow, Classify(53))
	assert.Equal(suite.T(), Low, Classify(54))
	assert.Equal(suite.T(), Low, Classify(69))
	assert.Equal(suite.T(), Normal, Classify(70))
	assert.Equal(suite.T(), Normal, Classify(180))
	assert.Equal(suite.T(), High, Classify(250))
	assert.Equal(suite.T(), CriticalHigh, Classify(251))
}

type metaReadings struct {
	size int
	min  int
	max  int
}

func genReadings(now time.Time, mrs ...metaReadings) []defs.GlucoseReading {
	trs := make([]defs.GlucoseReading, 0)

	count := 0
	for _, mr := range mrs {
		for i := 0; i < mr.size; i++ {
			v := mr.min + rand.Intn(mr.max-mr.min+1)
			trs = append(trs, defs.GlucoseReading{
				Time:  now.Add(time.Duration(count*5) * time.Minute),
				Value: v,
				Trend: defs.Stable,
			})
			count++
		}
	}

	return trs
}
