package models

// RunStatus represents the state of an extraction run. The states mirror
// the pipeline stages: Loaded -> FixturesResolved -> Extracting -> Done.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusResolving  RunStatus = "resolving"
	RunStatusExtracting RunStatus = "extracting"
	RunStatusComplete   RunStatus = "complete"
	RunStatusError      RunStatus = "error"
)

// ExtractRun represents one asynchronous extraction run over a document.
type ExtractRun struct {
	ID               string    `json:"id"`
	FileID           string    `json:"fileId"`
	Status           RunStatus `json:"status"`
	Progress         float64   `json:"progress"` // 0-100
	FixtureCount     int       `json:"fixtureCount,omitempty"`
	RoutineCount     int       `json:"routineCount,omitempty"`
	WarningCount     int       `json:"warningCount,omitempty"`
	ProcessingTimeMs int64     `json:"processingTimeMs,omitempty"`
	StartTime        int64     `json:"startTime,omitempty"` // Unix ms
	EndTime          int64     `json:"endTime,omitempty"`   // Unix ms
	Error            string    `json:"error,omitempty"`
}

// NewExtractRun creates a new ExtractRun in pending status.
func NewExtractRun(id, fileID string) *ExtractRun {
	return &ExtractRun{
		ID:       id,
		FileID:   fileID,
		Status:   RunStatusPending,
		Progress: 0,
	}
}
