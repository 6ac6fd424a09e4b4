package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from domain.TransactionStatus
		to   domain.TransactionStatus
		want bool
	}{
		{domain.TxnDraft, domain.TxnPosted, true},
		{domain.TxnDraft, domain.TxnVoided, true},
		{domain.TxnDraft, domain.TxnReversed, false},
		{domain.TxnPending, domain.TxnPosted, true},
		{domain.TxnPending, domain.TxnError, true},
		{domain.TxnError, domain.TxnPending, true},
		{domain.TxnError, domain.TxnPosted, false},
		{domain.TxnPosted, domain.TxnReversed, true},
		{domain.TxnPosted, domain.TxnVoided, false},
		{domain.TxnPosted, domain.TxnDraft, false},
		{domain.TxnReversed, domain.TxnPosted, false},
		{domain.TxnVoided, domain.TxnDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, domain.TxnReversed.IsTerminal())
	assert.True(t, domain.TxnVoided.IsTerminal())
	assert.False(t, domain.TxnPosted.LinesEditable())
	assert.True(t, domain.TxnError.LinesEditable())
}

func TestTransactionLine_SignedAmount(t *testing.T) {
	tests := []struct {
		name string
		line domain.TransactionLine
		want decimal.Decimal
	}{
		{"debit", domain.TransactionLine{LineAmount: decimal.NewFromInt(100), Side: domain.SideDebit}, decimal.NewFromInt(100)},
		{"credit", domain.TransactionLine{LineAmount: decimal.NewFromInt(90), Side: domain.SideCredit}, decimal.NewFromInt(-90)},
		{"no side", domain.TransactionLine{LineAmount: decimal.RequireFromString("12.5")}, decimal.RequireFromString("12.5")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.line.SignedAmount()), "got %s", tt.line.SignedAmount())
		})
	}
}

func TestParseLineSide(t *testing.T) {
	side, err := domain.ParseLineSide("dr")
	assert.NoError(t, err)
	assert.Equal(t, domain.SideDebit, side)

	side, err = domain.ParseLineSide("Credit")
	assert.NoError(t, err)
	assert.Equal(t, domain.SideCredit, side)
	assert.Equal(t, domain.SideDebit, side.Opposite())

	_, err = domain.ParseLineSide("LEFT")
	assert.Error(t, err)
}

func TestTransactionLine_DataAccessors(t *testing.T) {
	line := domain.TransactionLine{LineData: json.RawMessage(`{"branch_id":"b-1","allocation_percent":"40.5","cost_center":null}`)}

	branch, ok := line.DataString("branch_id")
	assert.True(t, ok)
	assert.Equal(t, "b-1", branch)

	pct, ok := line.DataDecimal("allocation_percent")
	assert.True(t, ok)
	assert.True(t, decimal.RequireFromString("40.5").Equal(pct))

	_, ok = line.DataValue("cost_center")
	assert.False(t, ok, "explicit null counts as absent")

	_, ok = domain.TransactionLine{}.DataString("branch_id")
	assert.False(t, ok)
}
