package strategies

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/rebal/config"
)

func writeSentiment(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentiment.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const sentimentFeed = `date,ticker,finbert_score
2024-01-02,AAPL,0.5
2024-01-03,AAPL,0.5
2024-01-02,MSFT,-0.3
`

func TestSentimentDecayAccumulation(t *testing.T) {
	s := NewNewsSentiment(writeSentiment(t, sentimentFeed), 0.05, 5, 1)
	require.NoError(t, s.PreRun(nil))

	decay := math.Exp(-0.05)
	assert.InDelta(t, 0.5, s.asOf("AAPL", d(2024, 1, 2)), 1e-12)
	assert.InDelta(t, 0.5+0.5*decay, s.asOf("AAPL", d(2024, 1, 3)), 1e-12)
	// later dates hold the last value
	assert.InDelta(t, 0.5+0.5*decay, s.asOf("AAPL", d(2024, 2, 1)), 1e-12)
	// no news yet means zero
	assert.Equal(t, 0.0, s.asOf("AAPL", d(2023, 12, 29)))
	assert.Equal(t, 0.0, s.asOf("UNKNOWN", d(2024, 1, 3)))
}

func TestSentimentSignalsUseLaggedDate(t *testing.T) {
	// AAPL turns strongly negative on the last day; with a one-day lag the
	// decision must still see the older positive value
	feed := `date,ticker,score
2024-01-02,AAPL,0.8
2024-01-04,AAPL,-5.0
2024-01-02,MSFT,0.1
`
	s := NewNewsSentiment(writeSentiment(t, feed), 0.05, 1, 1)
	require.NoError(t, s.PreRun(nil))

	tbl := tableOf(t,
		[]time.Time{d(2024, 1, 2), d(2024, 1, 3), d(2024, 1, 4)},
		map[string][]float64{"AAPL": {1, 1, 1}, "MSFT": {1, 1, 1}})

	weights := s.Signals(tbl)
	require.NotNil(t, weights)
	assert.Equal(t, 1.0, weights["AAPL"]) // ranked on Jan 3 data
	assert.Equal(t, 0.0, weights["MSFT"])

	// with no lag the crash is visible immediately and MSFT wins
	s0 := NewNewsSentiment(writeSentiment(t, feed), 0.05, 1, 0)
	require.NoError(t, s0.PreRun(nil))
	weights = s0.Signals(tbl)
	require.NotNil(t, weights)
	assert.Equal(t, 0.0, weights["AAPL"])
	assert.Equal(t, 1.0, weights["MSFT"])
}

func TestSentimentLagNeedsHistory(t *testing.T) {
	s := NewNewsSentiment(writeSentiment(t, sentimentFeed), 0.05, 5, 3)
	require.NoError(t, s.PreRun(nil))

	tbl := tableOf(t,
		[]time.Time{d(2024, 1, 2), d(2024, 1, 3)},
		map[string][]float64{"AAPL": {1, 1}})

	assert.Nil(t, s.Signals(tbl)) // only 2 days of history, lag is 3
}

func TestSentimentTopNEqualWeights(t *testing.T) {
	feed := `date,ticker,score
2024-01-02,A,0.9
2024-01-02,B,0.8
2024-01-02,C,0.7
2024-01-02,D,0.1
`
	s := NewNewsSentiment(writeSentiment(t, feed), 0.05, 2, 0)
	require.NoError(t, s.PreRun(nil))

	tbl := tableOf(t,
		[]time.Time{d(2024, 1, 2)},
		map[string][]float64{"A": {1}, "B": {1}, "C": {1}, "D": {1}})

	weights := s.Signals(tbl)
	require.NotNil(t, weights)
	assert.Equal(t, map[string]float64{"A": 0.5, "B": 0.5, "C": 0, "D": 0}, weights)
}

func TestSentimentMissingFileFailsPreRun(t *testing.T) {
	s := NewNewsSentiment(filepath.Join(t.TempDir(), "nope.csv"), 0, 0, 0)
	assert.Error(t, s.PreRun(nil))
}

func TestSentimentBadFeed(t *testing.T) {
	s := NewNewsSentiment(writeSentiment(t, "date,ticker,score\nbad-date,AAPL,1\n"), 0, 0, 0)
	assert.Error(t, s.PreRun(nil))

	s = NewNewsSentiment(writeSentiment(t, "foo,bar\n"), 0, 0, 0)
	assert.Error(t, s.PreRun(nil))
}

func TestSentimentDefaults(t *testing.T) {
	s := NewNewsSentiment("x.csv", 0, 0, -1)
	assert.Equal(t, DefaultDecayAlpha, s.DecayAlpha)
	assert.Equal(t, DefaultTopStocks, s.TopN)
	assert.Equal(t, DefaultLagDays, s.LagDays)
}

func TestFromConfig(t *testing.T) {
	s, err := FromConfig(config.StrategyConfig{Name: "macd", FastPeriod: 5, SlowPeriod: 15, SignalPeriod: 4})
	require.NoError(t, err)
	m, ok := s.(*MACD)
	require.True(t, ok)
	assert.Equal(t, 15, m.Slow)

	_, err = FromConfig(config.StrategyConfig{Name: "sentiment"})
	assert.Error(t, err) // no file

	s, err = FromConfig(config.StrategyConfig{Name: "sentiment", SentimentFile: "s.csv", LagDays: 2})
	require.NoError(t, err)
	ns, ok := s.(*NewsSentiment)
	require.True(t, ok)
	assert.Equal(t, 2, ns.LagDays)

	_, err = FromConfig(config.StrategyConfig{Name: "bogus"})
	assert.Error(t, err)
}
