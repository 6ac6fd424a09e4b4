package mapping

import (
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/models"
)

// ToModelEntity converts a domain Entity to a model Entity
func ToModelEntity(d domain.Entity) models.Entity {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Entity{
		EntityID:       d.EntityID,
		OrganizationID: d.OrganizationID,
		EntityType:     d.EntityType,
		EntityName:     d.EntityName,
		EntityCode:     nullable(d.EntityCode),
		SmartCode:      d.SmartCode,
		Status:         string(d.Status),
		ParentEntityID: d.ParentEntityID,
		Tags:           tags,
		Metadata:       d.Metadata,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEntity converts a model Entity to a domain Entity
func ToDomainEntity(m models.Entity) domain.Entity {
	var tags []string
	if len(m.Tags) > 0 {
		tags = m.Tags
	}
	return domain.Entity{
		EntityID:       m.EntityID,
		OrganizationID: m.OrganizationID,
		EntityType:     m.EntityType,
		EntityName:     m.EntityName,
		EntityCode:     value(m.EntityCode),
		SmartCode:      m.SmartCode,
		Status:         domain.EntityStatus(m.Status),
		ParentEntityID: m.ParentEntityID,
		Tags:           tags,
		Metadata:       m.Metadata,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}
