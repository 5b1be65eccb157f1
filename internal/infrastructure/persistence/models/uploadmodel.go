package models

import (
	"time"

	"gorm.io/datatypes"
)

// UploadModel is the metadata row of one stored photo.
type UploadModel struct {
	ID           string `gorm:"primarykey;size:32"`
	OwnerID      string `gorm:"not null;size:64;index:idx_uploads_owner_created,priority:1"`
	StorageKey   string `gorm:"not null;size:255;uniqueIndex:idx_uploads_storage_key"`
	Size         int64  `gorm:"not null"`
	ContentType  string `gorm:"size:100"`
	OriginalName string `gorm:"size:255"`
	Metadata     datatypes.JSON
	CreatedAt    time.Time `gorm:"index:idx_uploads_owner_created,priority:2"`
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (UploadModel) TableName() string {
	return "uploads"
}
