package dto

import "github.com/SscSPs/hera_engine/internal/core/domain"

// CreateOrganizationRequest onboards a tenant.
type CreateOrganizationRequest struct {
	Name                 string `json:"organization_name" binding:"required"`
	Code                 string `json:"organization_code" binding:"required,max=64"`
	Currency             string `json:"currency" binding:"required,iso4217"`
	FiscalYearStartMonth int    `json:"fiscal_year_start_month" binding:"omitempty,min=1,max=12"`
	// OwnerUserID becomes the first OWNER member.
	OwnerUserID string `json:"owner_user_id"`
}

// AddMemberRequest grants an actor a role inside an organization.
type AddMemberRequest struct {
	UserID string            `json:"user_id" binding:"required"`
	Role   domain.MemberRole `json:"role" binding:"required,oneof=OWNER ADMIN MEMBER READONLY REMOVED"`
}
