package models

import "time"

// LineStyle tells the presentation layer how to draw a series.
type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDashed LineStyle = "dashed"
)

// SeriesView is one named series of the combined chart.
type SeriesView struct {
	Name   string      `json:"name"`
	Style  LineStyle   `json:"style"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// AlignedView puts history and forecast on a shared timeline for display.
// Values are never merged; each series keeps its own dates.
type AlignedView struct {
	Title      string      `json:"title"`
	XLabel     string      `json:"x_label"`
	YLabel     string      `json:"y_label"`
	Timeline   []time.Time `json:"timeline"`
	Historical SeriesView  `json:"historical"`
	Forecast   SeriesView  `json:"forecast"`
}
