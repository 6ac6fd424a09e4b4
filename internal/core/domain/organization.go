package domain

import "time"

// OrganizationStatus is the tenant lifecycle state. Organizations are never hard-deleted.
type OrganizationStatus string

const (
	OrganizationActive    OrganizationStatus = "active"
	OrganizationSuspended OrganizationStatus = "suspended"
	OrganizationArchived  OrganizationStatus = "archived"
)

// Organization is the tenant root every other record hangs off.
type Organization struct {
	OrganizationID       string             `json:"organization_id"`
	Name                 string             `json:"organization_name"`
	Code                 string             `json:"organization_code"`
	Status               OrganizationStatus `json:"status"`
	Currency             string             `json:"currency"`
	FiscalYearStartMonth int                `json:"fiscal_year_start_month"`
	AuditFields
}

// MemberRole defines what an actor may do inside an organization.
type MemberRole string

const (
	RoleOwner    MemberRole = "OWNER"
	RoleAdmin    MemberRole = "ADMIN"
	RoleMember   MemberRole = "MEMBER"
	RoleReadOnly MemberRole = "READONLY"
	RoleRemoved  MemberRole = "REMOVED"
)

// CanWrite reports whether the role may perform write operations.
func (r MemberRole) CanWrite() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// CanRead reports whether the role may read organization data.
func (r MemberRole) CanRead() bool {
	return r.CanWrite() || r == RoleReadOnly
}

// OrganizationMember is an actor's membership in an organization.
type OrganizationMember struct {
	OrganizationID string     `json:"organization_id"`
	UserID         string     `json:"user_id"`
	Role           MemberRole `json:"role"`
	JoinedAt       time.Time  `json:"joined_at"`
}
