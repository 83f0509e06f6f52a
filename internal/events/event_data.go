package events

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// ChartGeneratedData contains data for ChartGenerated events
type ChartGeneratedData struct {
	RequestID  string `json:"request_id"`
	ChartType  string `json:"chart_type"`
	Metric     string `json:"metric"`
	DateRange  string `json:"date_range"`
	DataPoints int    `json:"data_points"`
	DurationMs int64  `json:"duration_ms"`
}

// EventType returns the event type for ChartGeneratedData
func (d *ChartGeneratedData) EventType() EventType {
	return ChartGenerated
}

// DashboardGeneratedData contains data for DashboardGenerated events
type DashboardGeneratedData struct {
	DashboardID    string `json:"dashboard_id"`
	RequestID      string `json:"request_id"`
	TotalCharts    int    `json:"total_charts"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

// EventType returns the event type for DashboardGeneratedData
func (d *DashboardGeneratedData) EventType() EventType {
	return DashboardGenerated
}

// FeedbackReceivedData contains data for FeedbackReceived events
type FeedbackReceivedData struct {
	RequestID string `json:"request_id"`
	Rating    int    `json:"rating"`
	ChartID   string `json:"chart_id,omitempty"`
}

// EventType returns the event type for FeedbackReceivedData
func (d *FeedbackReceivedData) EventType() EventType {
	return FeedbackReceived
}
