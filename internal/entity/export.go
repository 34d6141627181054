package entity

import "time"

// ExportFile is a rendered report document.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReportRequest asks for a report over Period. Location sets calendar
// boundaries, the server's local zone when nil.
type ReportRequest struct {
	Period      TimeRange
	Type        ReportType
	Selection   Selection
	Granularity MetricsGranularity
	TopN        int
	Location    *time.Location
}
