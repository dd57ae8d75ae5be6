package strategies

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quantlab/rebal/backtest"
	"github.com/quantlab/rebal/market"
)

// NewsSentiment defaults.
const (
	DefaultDecayAlpha = 0.05
	DefaultTopStocks  = 5
	DefaultLagDays    = 1
)

// sentimentPoint is the decayed cumulative sentiment of one ticker as of one
// date. Points are stored per ticker in ascending date order so any
// historical as-of value can be looked up, which is what makes a real lag
// possible.
type sentimentPoint struct {
	date  time.Time
	value float64
}

// NewsSentiment ranks tickers by exponentially decayed news sentiment and
// goes long the top N, equal-weighted. The decision on day T uses the
// effective sentiment as of LagDays trading days before T: published news
// needs time to be tradable, so the lag is part of the contract, not an
// approximation.
type NewsSentiment struct {
	Path       string
	DecayAlpha float64
	TopN       int
	LagDays    int

	// effective sentiment series per ticker, built once in PreRun. The
	// state lives here, owned by the strategy instance; nothing global.
	effective map[string][]sentimentPoint
}

// NewNewsSentiment builds the strategy; non-positive parameters select the
// defaults. The file at path must be a CSV with a date,ticker,score header.
func NewNewsSentiment(path string, decayAlpha float64, topN, lagDays int) *NewsSentiment {
	if decayAlpha <= 0 {
		decayAlpha = DefaultDecayAlpha
	}
	if topN <= 0 {
		topN = DefaultTopStocks
	}
	if lagDays < 0 {
		lagDays = DefaultLagDays
	}
	return &NewsSentiment{
		Path:       path,
		DecayAlpha: decayAlpha,
		TopN:       topN,
		LagDays:    lagDays,
	}
}

func (s *NewsSentiment) Name() string { return "sentiment" }

// PreRun loads the raw sentiment feed and folds it into one decayed series
// per ticker: eff[i] = score[i] + eff[i-1] * exp(-alpha).
func (s *NewsSentiment) PreRun(full *market.Table) error {
	raw, err := loadSentimentCSV(s.Path)
	if err != nil {
		return fmt.Errorf("sentiment: %w", err)
	}

	decay := math.Exp(-s.DecayAlpha)
	s.effective = make(map[string][]sentimentPoint, len(raw))

	for ticker, points := range raw {
		eff := make([]sentimentPoint, len(points))
		acc := 0.0
		for i, pt := range points {
			acc = pt.value + acc*decay
			eff[i] = sentimentPoint{date: pt.date, value: acc}
		}
		s.effective[ticker] = eff
	}
	return nil
}

func (s *NewsSentiment) Signals(history *market.Table) map[string]float64 {
	if s.effective == nil || history.IsEmpty() {
		return nil
	}

	// The decision date is lagged back along the trading calendar actually
	// present in the data, not calendar days.
	dates := history.Dates()
	idx := len(dates) - 1 - s.LagDays
	if idx < 0 {
		return nil // not enough history to honor the lag
	}
	asOf := dates[idx]

	type ranked struct {
		ticker string
		value  float64
	}
	scores := make([]ranked, 0, len(history.Tickers()))
	for _, ticker := range history.Tickers() {
		scores = append(scores, ranked{ticker, s.asOf(ticker, asOf)})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].value != scores[j].value {
			return scores[i].value > scores[j].value
		}
		return scores[i].ticker < scores[j].ticker
	})

	n := s.TopN
	if n > len(scores) {
		n = len(scores)
	}
	if n == 0 {
		return nil
	}

	weights := make(map[string]float64, len(scores))
	for _, r := range scores {
		weights[r.ticker] = 0
	}
	per := 1.0 / float64(n)
	for _, r := range scores[:n] {
		weights[r.ticker] = per
	}
	return weights
}

func (s *NewsSentiment) PostRun(res backtest.Result) {
	fmt.Printf("sentiment(top %d, lag %dd): final equity %.2f over %d trades\n",
		s.TopN, s.LagDays, res.EquityCurve.Final(), len(res.Trades))
}

// asOf returns the ticker's effective sentiment at the most recent point on
// or before the given date, or zero when no news exists yet.
func (s *NewsSentiment) asOf(ticker string, date time.Time) float64 {
	points := s.effective[ticker]
	i := sort.Search(len(points), func(i int) bool { return points[i].date.After(date) })
	if i == 0 {
		return 0
	}
	return points[i-1].value
}

// loadSentimentCSV reads a date,ticker,score feed and returns the raw
// scores per ticker in ascending date order.
func loadSentimentCSV(path string) (map[string][]sentimentPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	dateCol, tickerCol, scoreCol := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateCol = i
		case "ticker":
			tickerCol = i
		default:
			// the score column carries the model name in some exports
			if scoreCol == -1 {
				scoreCol = i
			}
		}
	}
	if dateCol == -1 || tickerCol == -1 || scoreCol == -1 {
		return nil, fmt.Errorf("header must contain date, ticker and a score column, got %v", header)
	}

	out := make(map[string][]sentimentPoint)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		d, err := time.Parse("2006-01-02", strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date %q: %w", line, rec[dateCol], err)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[scoreCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad score %q: %w", line, rec[scoreCol], err)
		}

		ticker := strings.TrimSpace(rec[tickerCol])
		out[ticker] = append(out[ticker], sentimentPoint{date: market.Day(d), value: score})
	}

	for ticker := range out {
		points := out[ticker]
		sort.Slice(points, func(i, j int) bool { return points[i].date.Before(points[j].date) })
	}
	return out, nil
}
