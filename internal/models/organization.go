package models

import "time"

// Organization is a row of core_organizations.
type Organization struct {
	OrganizationID       string `db:"organization_id"`
	Name                 string `db:"organization_name"`
	Code                 string `db:"organization_code"`
	Status               string `db:"status"`
	Currency             string `db:"currency"`
	FiscalYearStartMonth int    `db:"fiscal_year_start_month"`
	AuditFields
}

// OrganizationMember is a row of core_organization_members.
type OrganizationMember struct {
	OrganizationID string    `db:"organization_id"`
	UserID         string    `db:"user_id"`
	Role           string    `db:"role"`
	JoinedAt       time.Time `db:"joined_at"`
}
