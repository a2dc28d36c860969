package models

// Requests for the forecast HTTP endpoints.

type ProductsRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=10"`
}

type ForecastQuery struct {
	Product string `query:"product" json:"product" validate:"required"`
	// nil means DefaultHorizonWeeks; an explicit value must be in range
	Horizon *int   `query:"horizon" json:"horizon" validate:"omitempty,gte=1,lte=15"`
	Backend string `query:"backend" json:"backend" default:"trend_changepoint" validate:"backend"`
}

// HorizonWeeks resolves the requested horizon, applying the default when
// the parameter was absent.
func (q *ForecastQuery) HorizonWeeks() int {
	if q.Horizon == nil {
		return DefaultHorizonWeeks
	}
	return *q.Horizon
}
