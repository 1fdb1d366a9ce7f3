package model

import "time"

// UsageLogEntry is one row of the append-only usage log. Exactly one entry
// is written per successfully billed operation, in the same transaction as
// the debit. Entries are never mutated or deleted.
type UsageLogEntry struct {
	ID            string    `json:"id"`
	APIKey        string    `json:"-"`
	Endpoint      string    `json:"endpoint"`
	UnitsConsumed int64     `json:"units_consumed"`
	CreatedAt     time.Time `json:"created_at"`
}

// UsageTotals aggregates the usage log for one API key.
type UsageTotals struct {
	Calls      int64 `json:"calls"`
	UnitsTotal int64 `json:"units_total"`
}

// UsageResponse is returned by GET /usage.
type UsageResponse struct {
	Totals  UsageTotals      `json:"totals"`
	Entries []*UsageLogEntry `json:"entries"`
}
