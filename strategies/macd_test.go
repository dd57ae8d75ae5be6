package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trendTable(t *testing.T, days int) ([]time.Time, map[string][]float64) {
	t.Helper()
	dates := make([]time.Time, days)
	up := make([]float64, days)
	down := make([]float64, days)
	for i := 0; i < days; i++ {
		dates[i] = d(2024, 1, 1).AddDate(0, 0, i)
		up[i] = 100 + float64(i)
		down[i] = 200 - float64(i)
	}
	return dates, map[string][]float64{"UP": up, "DOWN": down}
}

func TestMACDLongsRisersExitsFallers(t *testing.T) {
	dates, cols := trendTable(t, 40)
	tbl := tableOf(t, dates, cols)

	weights := NewMACD(0, 0, 0).Signals(tbl)
	require.NotNil(t, weights)

	// the riser takes all positive weight; the faller keeps an explicit
	// zero so held positions get sold
	assert.InDelta(t, 1.0, weights["UP"], 1e-12)
	assert.Equal(t, 0.0, weights["DOWN"])
}

func TestMACDSplitsWeightAcrossBullishTickers(t *testing.T) {
	dates, cols := trendTable(t, 40)
	up2 := make([]float64, 40)
	for i := range up2 {
		up2[i] = 50 + 2*float64(i)
	}
	cols["UP2"] = up2
	tbl := tableOf(t, dates, cols)

	weights := NewMACD(0, 0, 0).Signals(tbl)
	require.NotNil(t, weights)
	assert.InDelta(t, 0.5, weights["UP"], 1e-12)
	assert.InDelta(t, 0.5, weights["UP2"], 1e-12)
	assert.Equal(t, 0.0, weights["DOWN"])
}

func TestMACDNeedsWarmup(t *testing.T) {
	dates, cols := trendTable(t, 10) // shorter than the slow period
	tbl := tableOf(t, dates, cols)

	assert.Nil(t, NewMACD(0, 0, 0).Signals(tbl))
}

func TestMACDDefaults(t *testing.T) {
	s := NewMACD(0, 0, 0)
	assert.Equal(t, DefaultMACDFast, s.Fast)
	assert.Equal(t, DefaultMACDSlow, s.Slow)
	assert.Equal(t, DefaultMACDSignal, s.Signal)

	s = NewMACD(5, 15, 4)
	assert.Equal(t, 5, s.Fast)
	assert.Equal(t, 15, s.Slow)
	assert.Equal(t, 4, s.Signal)
}
