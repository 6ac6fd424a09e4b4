package mapping

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/models"
)

// ToModelDynamicData converts a domain DynamicField to a model DynamicData,
// populating only the value column matching the field type.
func ToModelDynamicData(d domain.DynamicField) models.DynamicData {
	m := models.DynamicData{
		OrganizationID: d.OrganizationID,
		EntityID:       d.EntityID,
		FieldName:      d.FieldName,
		FieldType:      string(d.FieldType()),
		SmartCode:      d.SmartCode,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
	switch v := d.Value.(type) {
	case domain.TextValue:
		m.FieldValueText = &v.V
	case domain.NumberValue:
		m.FieldValueNumber = decimal.NullDecimal{Decimal: v.V, Valid: true}
	case domain.BooleanValue:
		m.FieldValueBoolean = &v.V
	case domain.DateValue:
		m.FieldValueDate = &v.V
	case domain.DateTimeValue:
		m.FieldValueDateTime = &v.V
	case domain.JSONValue:
		m.FieldValueJSON = v.V
	}
	return m
}

// ToDomainDynamicField converts a model DynamicData to a domain DynamicField.
// A row whose populated column disagrees with field_type is an error.
func ToDomainDynamicField(m models.DynamicData) (domain.DynamicField, error) {
	d := domain.DynamicField{
		OrganizationID: m.OrganizationID,
		EntityID:       m.EntityID,
		FieldName:      m.FieldName,
		SmartCode:      m.SmartCode,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
	missing := func() error {
		return fmt.Errorf("dynamic field %s of %s: %s column is empty", m.FieldName, m.EntityID, m.FieldType)
	}
	switch domain.FieldType(m.FieldType) {
	case domain.FieldText:
		if m.FieldValueText == nil {
			return d, missing()
		}
		d.Value = domain.TextValue{V: *m.FieldValueText}
	case domain.FieldNumber:
		if !m.FieldValueNumber.Valid {
			return d, missing()
		}
		d.Value = domain.NumberValue{V: m.FieldValueNumber.Decimal}
	case domain.FieldBoolean:
		if m.FieldValueBoolean == nil {
			return d, missing()
		}
		d.Value = domain.BooleanValue{V: *m.FieldValueBoolean}
	case domain.FieldDate:
		if m.FieldValueDate == nil {
			return d, missing()
		}
		d.Value = domain.NewDateValue(*m.FieldValueDate)
	case domain.FieldDateTime:
		if m.FieldValueDateTime == nil {
			return d, missing()
		}
		d.Value = domain.DateTimeValue{V: m.FieldValueDateTime.UTC()}
	case domain.FieldJSON:
		if m.FieldValueJSON == nil {
			return d, missing()
		}
		v, err := domain.NewJSONValue(m.FieldValueJSON)
		if err != nil {
			return d, fmt.Errorf("dynamic field %s of %s: %w", m.FieldName, m.EntityID, err)
		}
		d.Value = v
	default:
		return d, fmt.Errorf("dynamic field %s of %s: unknown field_type %q", m.FieldName, m.EntityID, m.FieldType)
	}
	return d, nil
}
