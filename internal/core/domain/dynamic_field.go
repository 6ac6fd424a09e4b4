package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/hera_engine/internal/apperrors"
)

// FieldType names which value column of a dynamic field is populated.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldDateTime FieldType = "datetime"
	FieldJSON     FieldType = "json"
)

// DateLayout is the wire format of date-typed values.
const DateLayout = "2006-01-02"

// ParseFieldType validates a field_type string.
func ParseFieldType(s string) (FieldType, error) {
	switch ft := FieldType(strings.ToLower(strings.TrimSpace(s))); ft {
	case FieldText, FieldNumber, FieldBoolean, FieldDate, FieldDateTime, FieldJSON:
		return ft, nil
	}
	return "", apperrors.NewValidationError("field_type", "INVALID_FIELD_TYPE",
		fmt.Sprintf("unknown field_type %q", s)).
		WithHint("use one of text, number, boolean, date, datetime, json")
}

// FieldValue is a closed union; only the six types in this file implement it.
type FieldValue interface {
	Type() FieldType
	// Raw returns the JSON encoding of the value without its type tag.
	Raw() json.RawMessage
	isFieldValue()
}

type TextValue struct{ V string }
type NumberValue struct{ V decimal.Decimal }
type BooleanValue struct{ V bool }
type DateValue struct{ V time.Time }
type DateTimeValue struct{ V time.Time }
type JSONValue struct{ V json.RawMessage }

func (TextValue) Type() FieldType     { return FieldText }
func (NumberValue) Type() FieldType   { return FieldNumber }
func (BooleanValue) Type() FieldType  { return FieldBoolean }
func (DateValue) Type() FieldType     { return FieldDate }
func (DateTimeValue) Type() FieldType { return FieldDateTime }
func (JSONValue) Type() FieldType     { return FieldJSON }

func (TextValue) isFieldValue()     {}
func (NumberValue) isFieldValue()   {}
func (BooleanValue) isFieldValue()  {}
func (DateValue) isFieldValue()     {}
func (DateTimeValue) isFieldValue() {}
func (JSONValue) isFieldValue()     {}

func (v TextValue) Raw() json.RawMessage    { return mustMarshal(v.V) }
func (v NumberValue) Raw() json.RawMessage  { return json.RawMessage(v.V.String()) }
func (v BooleanValue) Raw() json.RawMessage { return mustMarshal(v.V) }
func (v DateValue) Raw() json.RawMessage    { return mustMarshal(v.V.Format(DateLayout)) }
func (v DateTimeValue) Raw() json.RawMessage {
	return mustMarshal(v.V.UTC().Format(time.RFC3339Nano))
}
func (v JSONValue) Raw() json.RawMessage { return v.V }

// NewDateValue truncates t to a calendar date in UTC.
func NewDateValue(t time.Time) DateValue {
	y, m, d := t.Date()
	return DateValue{V: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// NewJSONValue rejects anything that is not well-formed JSON.
func NewJSONValue(raw json.RawMessage) (JSONValue, error) {
	if !json.Valid(raw) {
		return JSONValue{}, apperrors.NewValidationError("value", "INVALID_JSON", "value is not valid JSON")
	}
	compact := new(bytes.Buffer)
	if err := json.Compact(compact, raw); err != nil {
		return JSONValue{}, apperrors.NewValidationError("value", "INVALID_JSON", err.Error())
	}
	return JSONValue{V: compact.Bytes()}, nil
}

// ParseFieldValue decodes raw according to fieldType. A value whose JSON shape
// does not match the declared type is rejected, never coerced.
func ParseFieldValue(fieldType FieldType, raw json.RawMessage) (FieldValue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, apperrors.NewValidationError("value", "VALUE_REQUIRED",
			fmt.Sprintf("a %s value is required", fieldType))
	}
	mismatch := func(detail string) (FieldValue, error) {
		return nil, apperrors.NewValidationError("value", "FIELD_TYPE_MISMATCH",
			fmt.Sprintf("value %s does not match field_type %s: %s", string(raw), fieldType, detail))
	}

	switch fieldType {
	case FieldText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return mismatch("expected a JSON string")
		}
		return TextValue{V: s}, nil
	case FieldNumber:
		if raw[0] == '"' {
			return mismatch("expected a JSON number")
		}
		var d decimal.Decimal
		if err := d.UnmarshalJSON(raw); err != nil {
			return mismatch("expected a JSON number")
		}
		return NumberValue{V: d}, nil
	case FieldBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return mismatch("expected true or false")
		}
		return BooleanValue{V: b}, nil
	case FieldDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return mismatch("expected a YYYY-MM-DD string")
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return mismatch("expected a YYYY-MM-DD string")
		}
		return DateValue{V: t}, nil
	case FieldDateTime:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return mismatch("expected an RFC 3339 timestamp")
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return mismatch("expected an RFC 3339 timestamp")
		}
		return DateTimeValue{V: t.UTC()}, nil
	case FieldJSON:
		return NewJSONValue(raw)
	}
	_, err := ParseFieldType(string(fieldType))
	return nil, err
}

// DynamicField is one typed attribute attached to an owner record.
// Unique per (OrganizationID, EntityID, FieldName).
type DynamicField struct {
	OrganizationID string     `json:"organization_id"`
	EntityID       string     `json:"entity_id"`
	FieldName      string     `json:"field_name"`
	Value          FieldValue `json:"-"`
	SmartCode      string     `json:"smart_code"`
	AuditFields
}

// FieldType returns the type of the populated value.
func (f DynamicField) FieldType() FieldType {
	if f.Value == nil {
		return ""
	}
	return f.Value.Type()
}

type dynamicFieldJSON struct {
	OrganizationID string          `json:"organization_id"`
	EntityID       string          `json:"entity_id"`
	FieldName      string          `json:"field_name"`
	FieldType      FieldType       `json:"field_type"`
	Value          json.RawMessage `json:"value"`
	SmartCode      string          `json:"smart_code"`
	AuditFields
}

// MarshalJSON flattens the tagged value into field_type + value.
func (f DynamicField) MarshalJSON() ([]byte, error) {
	out := dynamicFieldJSON{
		OrganizationID: f.OrganizationID,
		EntityID:       f.EntityID,
		FieldName:      f.FieldName,
		SmartCode:      f.SmartCode,
		AuditFields:    f.AuditFields,
		Value:          json.RawMessage("null"),
	}
	if f.Value != nil {
		out.FieldType = f.Value.Type()
		out.Value = f.Value.Raw()
	}
	return json.Marshal(out)
}

// UnmarshalJSON validates the field_type/value pairing.
func (f *DynamicField) UnmarshalJSON(data []byte) error {
	var in dynamicFieldJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	ft, err := ParseFieldType(string(in.FieldType))
	if err != nil {
		return err
	}
	value, err := ParseFieldValue(ft, in.Value)
	if err != nil {
		return err
	}
	*f = DynamicField{
		OrganizationID: in.OrganizationID,
		EntityID:       in.EntityID,
		FieldName:      in.FieldName,
		Value:          value,
		SmartCode:      in.SmartCode,
		AuditFields:    in.AuditFields,
	}
	return nil
}

// TextOf returns the string value of a text field.
func TextOf(f DynamicField) (string, bool) {
	v, ok := f.Value.(TextValue)
	return v.V, ok
}

// DateOf returns the time of a date or datetime field.
func DateOf(f DynamicField) (time.Time, bool) {
	switch v := f.Value.(type) {
	case DateValue:
		return v.V, true
	case DateTimeValue:
		return v.V, true
	}
	return time.Time{}, false
}

// NumberOf returns the decimal value of a number field.
func NumberOf(f DynamicField) (decimal.Decimal, bool) {
	v, ok := f.Value.(NumberValue)
	return v.V, ok
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
