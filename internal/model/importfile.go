package model

import "time"

// FileStatus is the lifecycle state of an uploaded CSV.
type FileStatus string

const (
	FileStatusPending   FileStatus = "PENDING"
	FileStatusProcessed FileStatus = "PROCESSED"
	FileStatusError     FileStatus = "ERROR"
)

// ImportFile records one uploaded CSV and the outcome of importing it.
type ImportFile struct {
	ID          string
	SessionID   string
	Source      Provider // empty until the format is known
	Filename    string
	SHA256      string
	Status      FileStatus
	RowCount    int
	Imported    int
	Duplicates  int
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
