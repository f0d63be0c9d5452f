package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// Analysis is the durable record handed to the persistence adapter: raw
// inputs plus the finished result. JobDescription and Result hold marshaled
// JSON payloads.
type Analysis struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID         string         `gorm:"type:text;not null;index" json:"user_id"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	JobDescription *string        `gorm:"type:jsonb" json:"job_description,omitempty"`
	Status         AnalysisStatus `gorm:"not null;default:'queued'" json:"status"`
	Score          *int           `gorm:"type:integer" json:"score,omitempty"`
	Result         *string        `gorm:"type:jsonb" json:"result,omitempty"`
	ErrorMessage   *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Analysis) TableName() string {
	return "analyses"
}
