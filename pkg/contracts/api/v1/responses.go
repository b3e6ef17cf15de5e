package api

import "time"

// PointDTO is one normalized price point.
type PointDTO struct {
	Timestamp float64   `json:"timestamp"`
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
}

// StatisticsDTO describes sampling density of the analyzed window.
type StatisticsDTO struct {
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	TotalPoints     int       `json:"total_points"`
	AvgGapMinutes   float64   `json:"avg_gap_minutes"`
	MinGapMinutes   float64   `json:"min_gap_minutes"`
	MaxGapMinutes   float64   `json:"max_gap_minutes"`
	NoGapsAvailable bool      `json:"no_gaps_available"`
}

// SkippedPointDTO reports a raw record the analyzer dropped.
type SkippedPointDTO struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// ChartDTO is the dataset and caption for a rendering collaborator.
type ChartDTO struct {
	Title   string    `json:"title"`
	XLabel  string    `json:"x_label"`
	YLabel  string    `json:"y_label"`
	Labels  []string  `json:"labels"`
	Prices  []float64 `json:"prices"`
	Caption string    `json:"caption"`

	// ImageFile is the file name a renderer should save the chart under
	ImageFile string `json:"image_file"`
}

// ExportDTO lists the files an export wrote.
type ExportDTO struct {
	Detailed   string `json:"detailed"`
	Simplified string `json:"simplified"`
	Summary    string `json:"summary,omitempty"`
	Workbook   string `json:"workbook,omitempty"`
}

// AnalysisResponse is the result of one analysis run.
type AnalysisResponse struct {
	RunID        string            `json:"run_id"`
	ItemName     string            `json:"item_name"`
	Instrument   string            `json:"instrument"`
	Source       string            `json:"source"`
	RawPoints    int               `json:"raw_points"`
	Normalized   int               `json:"normalized"`
	Skipped      []SkippedPointDTO `json:"skipped"`
	WindowDays   float64           `json:"window_days"`
	Cutoff       time.Time         `json:"cutoff"`
	UsedFallback bool              `json:"used_fallback"`
	Statistics   StatisticsDTO     `json:"statistics"`
	Series       []PointDTO        `json:"series"`
	Chart        ChartDTO          `json:"chart"`
	Export       *ExportDTO        `json:"export,omitempty"`
	DurationMS   int64             `json:"duration_ms"`
}
