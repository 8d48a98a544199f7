package models

// Aggregation labels produced when building classifier training rows.
const (
	LabelAbove = "above"
	LabelUnder = "under"
)

// MonthCount is one bar of the monthly companies chart.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// StatusCount is one slice of the status pie chart.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Dashboard is the statistics index view.
type Dashboard struct {
	Bar []MonthCount  `json:"bar"`
	Pie []StatusCount `json:"pie"`
}

// AggregationRow is a derived training tuple for the threshold classifier.
// It is built per request and never stored.
type AggregationRow struct {
	Label        string
	RoomsNumber  int
	MonthlyCount int
	Location     float64
}

// Advice is the classification answer returned to the dashboard widget.
type Advice struct {
	Message string `json:"message"`
}
