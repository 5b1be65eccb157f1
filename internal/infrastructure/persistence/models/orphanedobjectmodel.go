package models

import "time"

// OrphanedObjectModel tracks a stored object whose delete has to be retried.
type OrphanedObjectModel struct {
	ID         uint       `gorm:"primarykey"`
	StorageKey string     `gorm:"not null;size:255;uniqueIndex:idx_orphaned_objects_key"`
	Reason     string     `gorm:"not null;size:32"`
	Attempts   int        `gorm:"not null;default:1"`
	LastError  string     `gorm:"size:512"`
	ResolvedAt *time.Time `gorm:"index:idx_orphaned_objects_resolved"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (OrphanedObjectModel) TableName() string {
	return "orphaned_objects"
}
