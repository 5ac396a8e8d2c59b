package telemetry

import (
	"math/rand"
	"securegluco/gluco/defs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type GeneratorTestSuite struct {
	suite.Suite
	gen *Generator
	now time.Time
}

func TestGeneratorTestSuite(t *testing.T) {
	suite.Run(t, new(GeneratorTestSuite))
}

func (suite *GeneratorTestSuite) SetupTest() {
	suite.gen = New(rand.NewSource(42), defs.DefaultMaxStep)
	suite.now = time.Date(2022, time.May, 12, 8, 0, 0, 0, time.UTC)
}

func (suite *GeneratorTestSuite) TestGenerateWindow() {
	trs := suite.gen.Generate(suite.now, defs.DefaultWindow)

	assert.Len(suite.T(), trs, defs.DefaultWindow)
	assert.Equal(suite.T(), suite.now, trs[len(trs)-1].Time)
	assert.Equal(suite.T(), suite.now.Add(-time.Duration(defs.DefaultWindow-1)*defs.ReadingSpacing), trs[0].Time)
	assert.Equal(suite.T(), defs.Stable, trs[0].Trend)

	for i := 1; i < len(trs); i++ {
		assert.Equal(suite.T(), defs.ReadingSpacing, trs[i].Time.Sub(trs[i-1].Time))
		assert.Equal(suite.T(), TrendOf(trs[i-1].Value, trs[i].Value), trs[i].Trend)
	}
}

func (suite *GeneratorTestSuite) TestGenerateEmpty() {
	assert.Empty(suite.T(), suite.gen.Generate(suite.now, 0))
}

func (suite *GeneratorTestSuite) TestValuesAlwaysClamped() {
	trs := suite.gen.Generate(suite.now, defs.DefaultWindow)
	for _, tr := range trs {
		assert.GreaterOrEqual(suite.T(), tr.Value, MinValue)
		assert.LessOrEqual(suite.T(), tr.Value, MaxValue)
	}

	// A wide step pushes the walk into both bounds.
	wide := New(rand.NewSource(7), 200)
	now := suite.now
	for i := 0; i < 500; i++ {
		now = now.Add(30 * time.Second)
		trs = wide.Advance(trs, now)
		last := trs[len(trs)-1]
		assert.GreaterOrEqual(suite.T(), last.Value, MinValue)
		assert.LessOrEqual(suite.T(), last.Value, MaxValue)
	}
}

func (suite *GeneratorTestSuite) TestAdvanceSlidesWindow() {
	trs := suite.gen.Generate(suite.now, 10)
	original := make([]defs.GlucoseReading, len(trs))
	copy(original, trs)

	next := suite.gen.Advance(trs, suite.now.Add(30*time.Second))

	assert.Len(suite.T(), next, 10)
	assert.Equal(suite.T(), original[1:], next[:9])
	assert.Equal(suite.T(), suite.now.Add(30*time.Second), next[9].Time)
	assert.Equal(suite.T(), original, trs, "input window was modified")

	diff := next[9].Value - original[9].Value
	assert.LessOrEqual(suite.T(), diff, defs.DefaultMaxStep)
	assert.GreaterOrEqual(suite.T(), diff, -defs.DefaultMaxStep)
}

func (suite *GeneratorTestSuite) TestAdvanceTrend() {
	wide := New(rand.NewSource(3), 40)
	trs := wide.Generate(suite.now, 5)
	for i := 0; i < 200; i++ {
		prev := trs[len(trs)-1].Value
		trs = wide.Advance(trs, suite.now.Add(time.Duration(i)*time.Second))
		last := trs[len(trs)-1]

		switch diff := last.Value - prev; {
		case diff > TrendDelta:
			assert.Equal(suite.T(), defs.Rising, last.Trend)
		case diff < -TrendDelta:
			assert.Equal(suite.T(), defs.Falling, last.Trend)
		default:
			assert.Equal(suite.T(), defs.Stable, last.Trend)
		}
	}
}

func (suite *GeneratorTestSuite) TestAdvanceEmpty() {
	trs := suite.gen.Advance(nil, suite.now)
	assert.Len(suite.T(), trs, 1)
	assert.Equal(suite.T(), defs.Stable, trs[0].Trend)
}

func (suite *GeneratorTestSuite) TestTrendOf() {
	assert.Equal(suite.T(), defs.Rising, TrendOf(100, 106))
	assert.Equal(suite.T(), defs.Stable, TrendOf(100, 105))
	assert.Equal(suite.T(), defs.Stable, TrendOf(100, 95))
	assert.Equal(suite.T(), defs.Falling, TrendOf(100, 94))
}

func (suite *GeneratorTestSuite) TestSeedThreats() {
	threats := Threats(suite.now)
	assert.Len(suite.T(), threats, 3)
	assert.Equal(suite.T(), defs.ThreatBlocked, threats[0].Status)

	pump := PumpStatus(suite.now)
	assert.True(suite.T(), pump.Delivering)
	assert.Equal(suite.T(), defs.Connected, pump.ConnectionStatus)
}
