package domain_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
)

func TestParseFieldValue(t *testing.T) {
	tests := []struct {
		name      string
		fieldType domain.FieldType
		raw       string
		want      domain.FieldValue
		wantErr   bool
	}{
		{"text", domain.FieldText, `"hello"`, domain.TextValue{V: "hello"}, false},
		{"number", domain.FieldNumber, `12.5`, domain.NumberValue{V: decimal.RequireFromString("12.5")}, false},
		{"boolean", domain.FieldBoolean, `true`, domain.BooleanValue{V: true}, false},
		{"date", domain.FieldDate, `"2025-01-31"`, domain.DateValue{V: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)}, false},
		{"datetime", domain.FieldDateTime, `"2025-01-31T10:00:00Z"`, domain.DateTimeValue{V: time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)}, false},
		{"json", domain.FieldJSON, `{ "a": [1, 2] }`, domain.JSONValue{V: json.RawMessage(`{"a":[1,2]}`)}, false},
		{"number given as string", domain.FieldNumber, `"12.5"`, nil, true},
		{"text given as number", domain.FieldText, `12`, nil, true},
		{"boolean given as string", domain.FieldBoolean, `"true"`, nil, true},
		{"bad date", domain.FieldDate, `"2025-13-01"`, nil, true},
		{"date with time", domain.FieldDate, `"2025-01-31T10:00:00Z"`, nil, true},
		{"null value", domain.FieldText, `null`, nil, true},
		{"unknown type", domain.FieldType("money"), `1`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseFieldValue(tt.fieldType, json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrValidation), "mismatch must be a validation error")
				return
			}
			require.NoError(t, err)
			switch want := tt.want.(type) {
			case domain.NumberValue:
				assert.True(t, want.V.Equal(got.(domain.NumberValue).V))
			case domain.DateValue:
				assert.True(t, want.V.Equal(got.(domain.DateValue).V))
			case domain.DateTimeValue:
				assert.True(t, want.V.Equal(got.(domain.DateTimeValue).V))
			default:
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.fieldType, got.Type())
		})
	}
}

func TestDynamicField_JSON(t *testing.T) {
	in := []byte(`{"entity_id":"e-1","field_name":"credit_limit","field_type":"number","value":2500,"smart_code":"HERA.CRM.CUST.DYN.CREDIT.V1"}`)

	var f domain.DynamicField
	require.NoError(t, json.Unmarshal(in, &f))
	assert.Equal(t, domain.FieldNumber, f.FieldType())
	n, ok := domain.NumberOf(f)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(2500).Equal(n))

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"field_type":"number"`)
	assert.Contains(t, string(out), `"value":2500`)

	bad := []byte(`{"field_name":"credit_limit","field_type":"number","value":"lots"}`)
	var g domain.DynamicField
	assert.Error(t, json.Unmarshal(bad, &g))
}

func TestFiscalPeriodFromEntity(t *testing.T) {
	e := domain.Entity{EntityID: "p-1", EntityType: "fiscal_period", EntityCode: "FY25-01", Status: domain.EntityActive}
	fields := map[string]domain.DynamicField{
		domain.FieldPeriodStart:  {FieldName: domain.FieldPeriodStart, Value: domain.DateValue{V: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}},
		domain.FieldPeriodEnd:    {FieldName: domain.FieldPeriodEnd, Value: domain.DateValue{V: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)}},
		domain.FieldPeriodStatus: {FieldName: domain.FieldPeriodStatus, Value: domain.TextValue{V: "Closed"}},
	}

	p, ok := domain.FiscalPeriodFromEntity(e, fields)
	require.True(t, ok)
	assert.Equal(t, domain.PeriodClosed, p.Status)
	assert.Equal(t, "FY25-01", p.Code)
	assert.True(t, p.Contains(time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)), "end date is inclusive")
	assert.False(t, p.Contains(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.AcceptsPostings())

	delete(fields, domain.FieldPeriodEnd)
	_, ok = domain.FiscalPeriodFromEntity(e, fields)
	assert.False(t, ok)
}
