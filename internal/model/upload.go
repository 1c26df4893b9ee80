package model

import "time"

// UploadStatus is the outcome of an upload run.
type UploadStatus string

// Upload statuses.
const (
	UploadSuccess UploadStatus = "success"
	UploadError   UploadStatus = "error"
)

// UploadRun is the audit record of one statement upload.
type UploadRun struct {
	StartedAt      time.Time
	ID             string
	Filename       string
	Format         string
	Status         UploadStatus
	Message        string
	NewCount       int
	ChangedCount   int
	UnmatchedCount int
	DuplicateCount int
}
