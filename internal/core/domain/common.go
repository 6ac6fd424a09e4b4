package domain

import "time"

// AuditFields holds standard audit information for domain records.
// CreatedBy and LastUpdatedBy carry the actor id that performed the write.
type AuditFields struct {
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	LastUpdatedAt time.Time `json:"updated_at"`
	LastUpdatedBy string    `json:"updated_by"`
}

// Stamp sets all four audit fields for a freshly created record.
func (a *AuditFields) Stamp(actorID string, at time.Time) {
	a.CreatedAt = at
	a.CreatedBy = actorID
	a.LastUpdatedAt = at
	a.LastUpdatedBy = actorID
}

// Touch records an update by actorID.
func (a *AuditFields) Touch(actorID string, at time.Time) {
	a.LastUpdatedAt = at
	a.LastUpdatedBy = actorID
}

// DeleteMode selects between status-only and physical deletion.
type DeleteMode string

const (
	SoftDelete DeleteMode = "soft"
	HardDelete DeleteMode = "hard"
)
