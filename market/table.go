// Package market holds the historical price data consumed by a backtest:
// a date-indexed, ticker-columned table of adjusted closing prices.
package market

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Day normalizes a timestamp to midnight UTC. All table dates are stored
// in this form so dates compare and hash consistently.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Table is an immutable date x ticker price grid. Dates are ascending and
// unique; each column has exactly one value per date, with NaN marking a
// missing observation.
//
// Lookups are always explicit (date -> snapshot, ticker -> series). There is
// no positional alignment between columns: a snapshot is built by visiting
// every column at a single date index.
type Table struct {
	dates   []time.Time
	cols    map[string][]float64
	tickers []string // sorted
}

// NewTable builds a table from ascending dates and per-ticker columns.
// Every column must have one value per date; NaN marks a missing price.
func NewTable(dates []time.Time, cols map[string][]float64) (*Table, error) {
	norm := make([]time.Time, len(dates))
	for i, d := range dates {
		norm[i] = Day(d)
		if i > 0 && !norm[i].After(norm[i-1]) {
			return nil, fmt.Errorf("market: dates must be strictly ascending (index %d)", i)
		}
	}

	tickers := make([]string, 0, len(cols))
	for ticker, col := range cols {
		if len(col) != len(norm) {
			return nil, fmt.Errorf("market: column %q has %d values, want %d", ticker, len(col), len(norm))
		}
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	return &Table{dates: norm, cols: cols, tickers: tickers}, nil
}

// Len returns the number of dates in the table.
func (t *Table) Len() int { return len(t.dates) }

// IsEmpty reports whether the table has no dates or no tickers.
func (t *Table) IsEmpty() bool { return len(t.dates) == 0 || len(t.tickers) == 0 }

// Date returns the date at index i.
func (t *Table) Date(i int) time.Time { return t.dates[i] }

// LastDate returns the most recent date, or the zero time for an empty table.
func (t *Table) LastDate() time.Time {
	if len(t.dates) == 0 {
		return time.Time{}
	}
	return t.dates[len(t.dates)-1]
}

// Dates returns the ascending date index. Callers must not modify it.
func (t *Table) Dates() []time.Time { return t.dates }

// Tickers returns the column names in sorted order. Callers must not modify it.
func (t *Table) Tickers() []string { return t.tickers }

// SnapshotAt extracts the prices at date index i, dropping tickers whose
// value is missing or not positive. A fully missing day yields an empty map.
func (t *Table) SnapshotAt(i int) map[string]float64 {
	out := make(map[string]float64, len(t.tickers))
	for _, ticker := range t.tickers {
		v := t.cols[ticker][i]
		if math.IsNaN(v) || v <= 0 {
			continue
		}
		out[ticker] = v
	}
	return out
}

// Snapshot extracts the prices on the given date. It returns nil when the
// date is not present in the table.
func (t *Table) Snapshot(date time.Time) map[string]float64 {
	i, ok := t.index(Day(date))
	if !ok {
		return nil
	}
	return t.SnapshotAt(i)
}

// Series returns the dense close series for a ticker with missing values
// dropped, oldest first. Indicator math wants contiguous values, not gaps.
func (t *Table) Series(ticker string) []float64 {
	col, ok := t.cols[ticker]
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Select returns the view restricted to the given tickers. Names not present
// in the table are ignored.
func (t *Table) Select(tickers []string) *Table {
	cols := make(map[string][]float64, len(tickers))
	kept := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if col, ok := t.cols[ticker]; ok {
			cols[ticker] = col
			kept = append(kept, ticker)
		}
	}
	sort.Strings(kept)
	return &Table{dates: t.dates, cols: cols, tickers: kept}
}

// UpTo returns the view of the table covering every date up to and including
// the given date. The view shares backing storage with the parent; tables are
// read-only so this is safe.
func (t *Table) UpTo(date time.Time) *Table {
	d := Day(date)
	n := sort.Search(len(t.dates), func(i int) bool { return t.dates[i].After(d) })
	return t.slice(0, n)
}

// Range returns the view covering dates within [start, end], inclusive.
func (t *Table) Range(start, end time.Time) *Table {
	s, e := Day(start), Day(end)
	lo := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(s) })
	hi := sort.Search(len(t.dates), func(i int) bool { return t.dates[i].After(e) })
	return t.slice(lo, hi)
}

func (t *Table) slice(lo, hi int) *Table {
	cols := make(map[string][]float64, len(t.cols))
	for ticker, col := range t.cols {
		cols[ticker] = col[lo:hi]
	}
	return &Table{dates: t.dates[lo:hi], cols: cols, tickers: t.tickers}
}

func (t *Table) index(d time.Time) (int, bool) {
	i := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(d) })
	if i < len(t.dates) && t.dates[i].Equal(d) {
		return i, true
	}
	return 0, false
}

// MonthEnds returns the dates that are the last trading day of their month,
// judged purely from the dates present: a date qualifies when the next date
// in the sequence falls in a different month, or when it is the final date.
// Markets close around calendar month-ends, so calendar math is not used.
func MonthEnds(dates []time.Time) []time.Time {
	var out []time.Time
	for i, d := range dates {
		if i == len(dates)-1 || !sameMonth(d, dates[i+1]) {
			out = append(out, d)
		}
	}
	return out
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
