package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeDMAImport JobType = "dma_import"
	JobTypeLimitScan JobType = "limit_scan"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// DMAImportJobPayload contains the payload for DMA import jobs
type DMAImportJobPayload struct {
	RunID    uint   `json:"run_id"`
	RunUUID  string `json:"run_uuid"`
	Source   string `json:"source"`    // csv or lookup
	FilePath string `json:"file_path"` // uploaded file, csv only
}

// ToMap converts the payload to a map for storage
func (p DMAImportJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"run_id":    p.RunID,
		"run_uuid":  p.RunUUID,
		"source":    p.Source,
		"file_path": p.FilePath,
	}
}

// DMAImportJobPayloadFromMap creates a payload from a map
func DMAImportJobPayloadFromMap(data map[string]interface{}) (*DMAImportJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload DMAImportJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// LimitScanJobPayload contains the payload for limit scan jobs
type LimitScanJobPayload struct {
	Trigger string `json:"trigger"` // admin or schedule
	Archive bool   `json:"archive"` // upload the spreadsheet when S3 is configured
}

func (p LimitScanJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"trigger": p.Trigger,
		"archive": p.Archive,
	}
}

func LimitScanJobPayloadFromMap(data map[string]interface{}) (*LimitScanJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var payload LimitScanJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
