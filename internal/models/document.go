package models

import (
	"time"

	"github.com/google/uuid"
)

// Document tracks an uploaded resume file on disk.
type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID           string    `gorm:"type:text;index" json:"user_id"`
	Filename         string    `gorm:"type:text" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	FilePath         string    `gorm:"type:text" json:"file_path"`
	PageCount        int       `gorm:"type:integer" json:"page_count"`
	CreatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
