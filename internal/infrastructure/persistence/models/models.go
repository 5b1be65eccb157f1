// Package models holds the gorm persistence models.
package models

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&QuotaLedgerModel{},
		&UploadModel{},
		&OrphanedObjectModel{},
	}
}
