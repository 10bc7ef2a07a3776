package models

import "time"

// AuditFields mirrors the audit columns shared by every ledger table.
type AuditFields struct {
	CreatedAt     time.Time
	CreatedBy     string
	LastUpdatedAt time.Time
	LastUpdatedBy string
	Version       int64
}
