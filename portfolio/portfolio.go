// Package portfolio owns the cash/share accounting of a single backtest run
// and the rebalance engine that turns target weights into trades.
package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const (
	// tradeDeadZone suppresses trades whose dollar delta is below a cent,
	// so rebalances don't churn on rounding noise.
	tradeDeadZone = 0.01

	// dustEpsilon is the tolerance for purging residual share counts left
	// behind by floating-point arithmetic. Much tighter than the dead-zone.
	dustEpsilon = 1e-8
)

// Kind classifies a trade record.
type Kind string

const (
	Buy        Kind = "BUY"
	BuyPartial Kind = "BUY_PARTIAL"
	Sell       Kind = "SELL"
)

// TradeRecord is an immutable log entry for one executed trade. Records are
// appended in execution order and never edited.
type TradeRecord struct {
	Date   time.Time
	Ticker string
	Kind   Kind
	Shares float64 // signed: negative for sells
	Price  float64
	Value  float64 // signed dollar value of the trade
	Cost   float64 // transaction cost charged
}

// Portfolio tracks cash, share positions and the trade log for one run.
// It is exclusively owned by that run's simulation loop; there is no
// locking because there is no sharing.
type Portfolio struct {
	Cash          float64
	Positions     map[string]float64
	HoldingsValue float64
	TotalValue    float64
	Trades        []TradeRecord

	costBps float64
	log     zerolog.Logger
}

// New creates a portfolio holding only cash. costBps is the transaction cost
// in basis points charged on the dollar value of every trade.
func New(initialCash, costBps float64, log zerolog.Logger) *Portfolio {
	return &Portfolio{
		Cash:       initialCash,
		Positions:  make(map[string]float64),
		TotalValue: initialCash,
		costBps:    costBps,
		log:        log,
	}
}

// CostBps returns the configured transaction cost rate.
func (p *Portfolio) CostBps() float64 { return p.costBps }

// transactionCost returns the cost for a trade of the given dollar value.
func (p *Portfolio) transactionCost(value float64) float64 {
	return math.Abs(value) * p.costBps / 10000.0
}

// UpdateValue revalues the portfolio against the day's prices. Holdings are
// valued only over tickers present in both positions and prices; a held
// ticker with no tradable price today contributes nothing but stays held.
func (p *Portfolio) UpdateValue(prices map[string]float64) {
	p.purgeDust()

	holdings := 0.0
	for ticker, shares := range p.Positions {
		price, ok := prices[ticker]
		if !ok || math.IsNaN(price) {
			continue
		}
		holdings += shares * price
	}

	p.HoldingsValue = holdings
	p.TotalValue = p.Cash + holdings
}

// Rebalance trades the portfolio toward the target weights at today's prices.
//
// Deltas are processed most-negative first so sells free cash before buys
// consume it; this ordering is a correctness requirement of the cash model,
// not an optimization. Costs are charged against the intended trade size
// before any sizing is reconciled to available cash. Insufficient cash
// produces a partial fill, an oversell is clamped to the held quantity, and
// a missing or zero price skips only that ticker.
func (p *Portfolio) Rebalance(weights, prices map[string]float64, date time.Time) {
	if len(weights) == 0 || len(prices) == 0 {
		return
	}

	for ticker := range weights {
		if _, ok := p.Positions[ticker]; !ok {
			p.Positions[ticker] = 0
		}
	}

	// Capital base: cash plus the market value of everything priced today.
	// Unpriced holdings are not part of the allocatable capital.
	holdings := 0.0
	for ticker, price := range prices {
		holdings += p.Positions[ticker] * price
	}
	capital := p.Cash + holdings

	type order struct {
		ticker string
		delta  float64
	}
	orders := make([]order, 0, len(weights))
	for ticker, weight := range weights {
		current := 0.0
		if price, ok := prices[ticker]; ok && !math.IsNaN(price) {
			current = p.Positions[ticker] * price
		}
		orders = append(orders, order{ticker, weight*capital - current})
	}

	// Sells first. Ties break by ticker so runs are deterministic.
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].delta != orders[j].delta {
			return orders[i].delta < orders[j].delta
		}
		return orders[i].ticker < orders[j].ticker
	})

	for _, o := range orders {
		if math.Abs(o.delta) < tradeDeadZone {
			continue
		}

		price, ok := prices[o.ticker]
		if !ok || math.IsNaN(price) || price == 0 {
			p.log.Warn().
				Str("ticker", o.ticker).
				Time("date", date).
				Msg("no usable price, trade skipped")
			continue
		}

		// Cost is charged on the intended size even when the trade below is
		// reduced or dropped for lack of cash.
		cost := p.transactionCost(o.delta)
		p.Cash -= cost

		if o.delta > 0 {
			p.buy(o.ticker, o.delta, price, cost, date)
		} else {
			p.sell(o.ticker, o.delta, price, cost, date)
		}
	}

	p.purgeDust()
}

func (p *Portfolio) buy(ticker string, delta, price, cost float64, date time.Time) {
	if p.Cash >= delta {
		p.Positions[ticker] += delta / price
		p.Cash -= delta
		p.Trades = append(p.Trades, TradeRecord{
			Date: date, Ticker: ticker, Kind: Buy,
			Shares: delta / price, Price: price, Value: delta, Cost: cost,
		})
		return
	}

	// Partial fill from whatever cash is left after the cost deduction.
	affordable := p.Cash
	if affordable <= 0 {
		p.log.Warn().
			Str("ticker", ticker).
			Time("date", date).
			Msg("no cash remaining, buy dropped")
		return
	}

	shares := affordable / price
	p.Positions[ticker] += shares
	p.Cash -= affordable
	p.Trades = append(p.Trades, TradeRecord{
		Date: date, Ticker: ticker, Kind: BuyPartial,
		Shares: shares, Price: price, Value: affordable,
		Cost: p.transactionCost(affordable),
	})

	p.log.Warn().
		Str("ticker", ticker).
		Time("date", date).
		Float64("wanted", delta).
		Float64("filled", affordable).
		Msg("insufficient cash, partial buy")
}

func (p *Portfolio) sell(ticker string, delta, price, cost float64, date time.Time) {
	shares := delta / price // negative

	if held := p.Positions[ticker]; -shares > held {
		p.log.Warn().
			Str("ticker", ticker).
			Time("date", date).
			Float64("requested", -shares).
			Float64("held", held).
			Msg("oversell clamped to held quantity")
		shares = -held
		delta = shares * price
	}

	p.Positions[ticker] += shares
	p.Cash -= delta // delta is negative: cash increases
	p.Trades = append(p.Trades, TradeRecord{
		Date: date, Ticker: ticker, Kind: Sell,
		Shares: shares, Price: price, Value: delta, Cost: cost,
	})
}

// purgeDust removes positions whose share count is within floating-point
// tolerance of zero, so stale tickers never linger at dust quantities.
func (p *Portfolio) purgeDust() {
	for ticker, shares := range p.Positions {
		if math.Abs(shares) <= dustEpsilon {
			delete(p.Positions, ticker)
		}
	}
}
