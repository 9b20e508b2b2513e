package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportStatus tracks the lifecycle of a DMA import run.
type ImportStatus string

const (
	ImportStatusQueued    ImportStatus = "queued"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportRun is the durable record of one ingestion batch and its issues report.
type ImportRun struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UUID       string         `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	Source     string         `gorm:"type:varchar(32);not null" json:"source"`
	SourceRef  string         `gorm:"type:varchar(512)" json:"source_ref,omitempty"`
	Status     ImportStatus   `gorm:"type:varchar(16);not null;index" json:"status"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Summary    datatypes.JSON `json:"summary,omitempty"`
	Report     datatypes.JSON `json:"report,omitempty"`
	ReportPath string         `gorm:"type:varchar(512)" json:"report_path,omitempty"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the ImportRun model
func (ImportRun) TableName() string {
	return "import_runs"
}
