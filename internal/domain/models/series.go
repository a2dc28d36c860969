package models

import "time"

// ProductTotal is a product's summed quantity across the cleaned dataset.
type ProductTotal struct {
	ProductCode   string `json:"product_code"`
	TotalQuantity int64  `json:"total_quantity"`
}

// ProductRanking is ordered by TotalQuantity, highest first.
type ProductRanking []ProductTotal

// Codes returns the ranked product codes in order.
func (r ProductRanking) Codes() []string {
	out := make([]string, len(r))
	for i, p := range r {
		out[i] = p.ProductCode
	}
	return out
}

// Contains reports whether code is part of the ranking.
func (r ProductRanking) Contains(code string) bool {
	for _, p := range r {
		if p.ProductCode == code {
			return true
		}
	}
	return false
}

// WeeklyPoint is the quantity sold in the week ending on WeekEnding (a Sunday).
type WeeklyPoint struct {
	WeekEnding time.Time `json:"week_ending"`
	Quantity   float64   `json:"quantity"`
}

// WeeklySalesSeries is one product's weekly demand, WeekEnding strictly increasing.
type WeeklySalesSeries struct {
	ProductCode string        `json:"product_code"`
	Points      []WeeklyPoint `json:"points"`
}

// Len returns the number of weekly points.
func (s WeeklySalesSeries) Len() int { return len(s.Points) }

// Values returns the quantities in date order.
func (s WeeklySalesSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Quantity
	}
	return out
}

// Dates returns the week-ending dates in order.
func (s WeeklySalesSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.WeekEnding
	}
	return out
}

// LastDate returns the final week-ending date, or the zero time for an empty series.
func (s WeeklySalesSeries) LastDate() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].WeekEnding
}
