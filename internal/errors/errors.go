package gerr

import "errors"

var (
	ErrInvalidDateRange  = errors.New("invalid date range: start is after end")
	ErrInvalidReportType = errors.New("invalid report type")
	ErrInvalidRequest    = errors.New("invalid report request")
	ErrNoReport          = errors.New("no report has been generated yet")
	ErrStaleGeneration   = errors.New("report generation superseded by a newer request")
	ErrUnknownDrilldown  = errors.New("unknown drilldown kind")
	ErrBucketNotFound    = errors.New("bucket not found")
	ErrUploadDisabled    = errors.New("export upload is not configured")
	ErrMailLimitReached  = errors.New("mail api limit reached")
)
