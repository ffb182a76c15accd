package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType represents the type of job
type JobType string

const (
	JobTypeGenerate JobType = "generate"
)

// JobStatus represents the state of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one background pipeline run for a site
type Job struct {
	ID          uuid.UUID              `gorm:"type:text;primary_key" json:"id"`
	SiteID      uuid.UUID              `gorm:"type:text;index" json:"site_id"`
	OwnerID     uuid.UUID              `gorm:"type:text;index" json:"owner_id"`
	Type        JobType                `gorm:"not null" json:"type"`
	Status      JobStatus              `gorm:"not null;default:'pending'" json:"status"`
	Stage       SiteStage              `json:"stage,omitempty"`
	Logs        string                 `gorm:"type:text" json:"logs"`
	Error       string                 `gorm:"type:text" json:"error,omitempty"`
	Metadata    map[string]interface{} `gorm:"serializer:json" json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// BeforeCreate hook to generate UUID
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
