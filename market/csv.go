package market

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// dateLayout is the on-disk date format for price files.
const dateLayout = "2006-01-02"

// LoadCSV reads a price table from a CSV file with a "date,TICKER,..." header
// and one row per trading day. Empty cells mark missing prices. Files ending
// in .gz or .xz are decompressed transparently; acquisition tooling ships
// both compressed forms.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("market: gzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("market: xz %s: %w", path, err)
		}
		r = xr
	}

	return ReadCSV(r)
}

// ReadCSV parses a price table from CSV content.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("market: read header: %w", err)
	}
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return nil, fmt.Errorf("market: header must be date,TICKER,... got %v", header)
	}

	tickers := make([]string, len(header)-1)
	for i, h := range header[1:] {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("market: empty ticker name in column %d", i+1)
		}
		tickers[i] = h
	}

	var dates []time.Time
	cols := make(map[string][]float64, len(tickers))
	for _, ticker := range tickers {
		cols[ticker] = nil
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("market: line %d: %w", line, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("market: line %d: %d fields, want %d", line, len(rec), len(header))
		}

		d, err := time.Parse(dateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("market: line %d: bad date %q: %w", line, rec[0], err)
		}
		dates = append(dates, d)

		for i, ticker := range tickers {
			cell := strings.TrimSpace(rec[i+1])
			if cell == "" {
				cols[ticker] = append(cols[ticker], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("market: line %d: bad price %q for %s: %w", line, cell, ticker, err)
			}
			cols[ticker] = append(cols[ticker], v)
		}
	}

	return NewTable(dates, cols)
}
