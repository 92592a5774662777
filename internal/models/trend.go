package models

// TrendDelta describes how the average price per m2 moved between two
// snapshots. It is derived at read time and never persisted; a nil
// TrendDelta means there was not enough history to compare against.
type TrendDelta struct {
	ChangePercent  float64 `json:"change_percent"`
	ChangeAbsolute float64 `json:"change_absolute"`
}
