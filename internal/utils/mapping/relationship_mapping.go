package mapping

import (
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/models"
)

// ToModelRelationship converts a domain Relationship to a model Relationship
func ToModelRelationship(d domain.Relationship) models.Relationship {
	return models.Relationship{
		RelationshipID:   d.RelationshipID,
		OrganizationID:   d.OrganizationID,
		FromEntityID:     d.FromEntityID,
		ToEntityID:       d.ToEntityID,
		RelationshipType: d.RelationshipType,
		RelationshipData: d.RelationshipData,
		SmartCode:        d.SmartCode,
		EffectiveDate:    d.EffectiveDate,
		ExpirationDate:   d.ExpirationDate,
		IsActive:         d.IsActive,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainRelationship converts a model Relationship to a domain Relationship
func ToDomainRelationship(m models.Relationship) domain.Relationship {
	d := domain.Relationship{
		RelationshipID:   m.RelationshipID,
		OrganizationID:   m.OrganizationID,
		FromEntityID:     m.FromEntityID,
		ToEntityID:       m.ToEntityID,
		RelationshipType: m.RelationshipType,
		RelationshipData: m.RelationshipData,
		SmartCode:        m.SmartCode,
		EffectiveDate:    m.EffectiveDate.UTC(),
		IsActive:         m.IsActive,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
	if m.ExpirationDate != nil {
		t := m.ExpirationDate.UTC()
		d.ExpirationDate = &t
	}
	return d
}
