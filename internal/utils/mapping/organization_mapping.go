package mapping

import (
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/models"
)

// ToModelOrganization converts a domain Organization to a model Organization
func ToModelOrganization(d domain.Organization) models.Organization {
	return models.Organization{
		OrganizationID:       d.OrganizationID,
		Name:                 d.Name,
		Code:                 d.Code,
		Status:               string(d.Status),
		Currency:             d.Currency,
		FiscalYearStartMonth: d.FiscalYearStartMonth,
		AuditFields:          ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainOrganization converts a model Organization to a domain Organization
func ToDomainOrganization(m models.Organization) domain.Organization {
	return domain.Organization{
		OrganizationID:       m.OrganizationID,
		Name:                 m.Name,
		Code:                 m.Code,
		Status:               domain.OrganizationStatus(m.Status),
		Currency:             m.Currency,
		FiscalYearStartMonth: m.FiscalYearStartMonth,
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainOrganizationMember converts a model OrganizationMember to a domain OrganizationMember
func ToDomainOrganizationMember(m models.OrganizationMember) domain.OrganizationMember {
	return domain.OrganizationMember{
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Role:           domain.MemberRole(m.Role),
		JoinedAt:       m.JoinedAt.UTC(),
	}
}
