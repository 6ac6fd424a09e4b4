package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DynamicData is a row of core_dynamic_data. Exactly one value column is set,
// the one named by FieldType.
type DynamicData struct {
	OrganizationID     string              `db:"organization_id"`
	EntityID           string              `db:"entity_id"`
	FieldName          string              `db:"field_name"`
	FieldType          string              `db:"field_type"`
	FieldValueText     *string             `db:"field_value_text"`
	FieldValueNumber   decimal.NullDecimal `db:"field_value_number"`
	FieldValueBoolean  *bool               `db:"field_value_boolean"`
	FieldValueDate     *time.Time          `db:"field_value_date"`
	FieldValueDateTime *time.Time          `db:"field_value_datetime"`
	FieldValueJSON     []byte              `db:"field_value_json"`
	SmartCode          string              `db:"smart_code"`
	AuditFields
}
