package entity

import (
	"fmt"
	"time"
)

// PricePoint is one closing price for one calendar date.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is an ordered sequence of closing prices for one symbol over
// one period, ascending by date with no duplicate dates. A series is
// immutable once fetched.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Period string       `json:"period"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of points in the series.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// IsEmpty reports whether the series holds no points.
func (s PriceSeries) IsEmpty() bool {
	return len(s.Points) == 0
}

// First returns the oldest point in the series.
func (s PriceSeries) First() PricePoint {
	return s.Points[0]
}

// Latest returns the newest point in the series.
func (s PriceSeries) Latest() PricePoint {
	return s.Points[len(s.Points)-1]
}

// Closes returns the closing prices in date order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Validate checks the series ordering invariants: ascending by date, no
// duplicate dates.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1].Date, s.Points[i].Date
		if !cur.After(prev) {
			return fmt.Errorf("price series for %s is not strictly ascending at index %d (%s >= %s)",
				s.Symbol, i, prev.Format(time.DateOnly), cur.Format(time.DateOnly))
		}
	}
	return nil
}
