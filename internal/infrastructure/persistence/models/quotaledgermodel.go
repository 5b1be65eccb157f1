package models

import "time"

// QuotaLedgerModel is the persistence model of an owner's upload ledger.
type QuotaLedgerModel struct {
	ID               uint       `gorm:"primarykey"`
	OwnerID          string     `gorm:"not null;size:64;uniqueIndex:idx_quota_ledgers_owner"`
	Plan             string     `gorm:"not null;size:20;default:FREE;index:idx_quota_ledgers_plan"`
	Status           string     `gorm:"not null;size:20;default:active;index:idx_quota_ledgers_status"`
	UsedCount        int        `gorm:"not null;default:0"`
	CurrentPeriodEnd *time.Time `gorm:"index:idx_quota_ledgers_period_end"`
	Version          int        `gorm:"not null;default:1"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM
func (QuotaLedgerModel) TableName() string {
	return "quota_ledgers"
}
