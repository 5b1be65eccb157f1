package quota

import "time"

// Reservation is the outcome of asking for capacity. Exactly one of a
// committed increment or a Rejection is described.
type Reservation struct {
	OwnerID   string
	Amount    int
	Used      int
	Limit     int
	Rejection *Rejection
}

// Committed reports whether the counter was incremented.
func (r *Reservation) Committed() bool {
	return r.Rejection == nil
}

// LedgerStatus is an unlocked, eventually consistent view for display. It
// never gates a write.
type LedgerStatus struct {
	OwnerID          string     `json:"owner_id"`
	Plan             Plan       `json:"plan"`
	Status           Status     `json:"status"`
	UsedCount        int        `json:"used_count"`
	Limit            int        `json:"limit"`
	Remaining        int        `json:"remaining"`
	AcceptsUploads   bool       `json:"accepts_uploads"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	// Version is the ledger version the snapshot was read at.
	Version int `json:"version"`
}

// Drift compares the counter with the records that actually exist.
type Drift struct {
	OwnerID   string
	UsedCount int
	Actual    int64
}

// Delta is positive when the counter is ahead of the records.
func (d *Drift) Delta() int64 {
	return int64(d.UsedCount) - d.Actual
}

func (d *Drift) InSync() bool {
	return d.Delta() == 0
}
