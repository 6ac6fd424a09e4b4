package mapping

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/models"
)

func TestDynamicDataPopulatesOneColumn(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	values := []domain.FieldValue{
		domain.TextValue{V: "gold"},
		domain.NumberValue{V: decimal.RequireFromString("12.50")},
		domain.BooleanValue{V: true},
		domain.NewDateValue(at),
		domain.DateTimeValue{V: at},
		domain.JSONValue{V: json.RawMessage(`{"a":1}`)},
	}
	for _, v := range values {
		t.Run(string(v.Type()), func(t *testing.T) {
			in := domain.DynamicField{OrganizationID: "org", EntityID: "e1", FieldName: "f", Value: v, SmartCode: "HERA.CRM.CUST.DYN.TIER.V1"}
			m := ToModelDynamicData(in)
			assert.Equal(t, string(v.Type()), m.FieldType)

			populated := 0
			for _, set := range []bool{
				m.FieldValueText != nil, m.FieldValueNumber.Valid, m.FieldValueBoolean != nil,
				m.FieldValueDate != nil, m.FieldValueDateTime != nil, m.FieldValueJSON != nil,
			} {
				if set {
					populated++
				}
			}
			assert.Equal(t, 1, populated)

			out, err := ToDomainDynamicField(m)
			require.NoError(t, err)
			assert.Equal(t, string(v.Raw()), string(out.Value.Raw()))
		})
	}
}

func TestToDomainDynamicField_RejectsInconsistentRow(t *testing.T) {
	text := "x"
	_, err := ToDomainDynamicField(models.DynamicData{FieldName: "f", FieldType: "number", FieldValueText: &text})
	assert.Error(t, err)

	_, err = ToDomainDynamicField(models.DynamicData{FieldName: "f", FieldType: "colour"})
	assert.Error(t, err)
}

func TestTransactionLineSide(t *testing.T) {
	line := domain.TransactionLine{LineID: "l1", LineAmount: decimal.NewFromInt(5), Side: domain.SideNone}
	m := ToModelTransactionLine(line)
	assert.Nil(t, m.Side)
	if diff := cmp.Diff(line.Side, ToDomainTransactionLine(m).Side); diff != "" {
		t.Errorf("side mismatch (-want +got):\n%s", diff)
	}

	line.Side = domain.SideCredit
	m = ToModelTransactionLine(line)
	require.NotNil(t, m.Side)
	assert.Equal(t, "CREDIT", *m.Side)
}

func TestEntityOptionalColumns(t *testing.T) {
	e := domain.Entity{EntityID: "e1", EntityName: "n", Status: domain.EntityActive}
	m := ToModelEntity(e)
	assert.Nil(t, m.EntityCode)
	assert.Equal(t, []string{}, m.Tags)

	back := ToDomainEntity(m)
	assert.Empty(t, back.EntityCode)
	assert.Nil(t, back.Tags)
}
