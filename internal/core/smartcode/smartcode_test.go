package smartcode_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/hera_engine/internal/core/smartcode"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		code string
		want smartcode.Kind
	}{
		{"customer profile", "HERA.CRM.CUST.ENT.PROF.V1", smartcode.Valid},
		{"salon retail sale", "HERA.SALON.SALE.TXN.RETAIL.V12", smartcode.Valid},
		{"eight segments", "HERA.FIN.GL.ACC.ASSET.CASH.BANK.MAIN.OPS.X1.V3", smartcode.Valid},
		{"underscore segments", "HERA.INV_CORE.STOCK_MOVE.TXN.LINE.V1", smartcode.Valid},
		{"lowercase version", "HERA.SALON.SALE.TXN.RETAIL.v1", smartcode.InvalidLowercaseVersion},
		{"too few segments", "HERA.CRM.CUST.ENT.V1", smartcode.InvalidSegmentCount},
		{"too many segments", "HERA.FIN.A1.B1.C1.D1.E1.F1.G1.H1.I1.V1", smartcode.InvalidSegmentCount},
		{"empty", "", smartcode.InvalidSegmentCount},
		{"missing version", "HERA.CRM.CUST.ENT.PROF", smartcode.InvalidSegmentCount},
		{"wrong prefix", "ACME.CRM.CUST.ENT.PROF.V1", smartcode.InvalidCharacterClass},
		{"lowercase segment", "HERA.CRM.cust.ENT.PROF.V1", smartcode.InvalidCharacterClass},
		{"short module", "HERA.CR.CUST.ENT.PROF.V1", smartcode.InvalidCharacterClass},
		{"long module", "HERA.ABCDEFGHIJKLMNOP.CUST.ENT.PROF.V1", smartcode.InvalidCharacterClass},
		{"single char segment", "HERA.CRM.C.ENT.PROF.V1", smartcode.InvalidCharacterClass},
		{"hyphen", "HERA.CRM.CUST-X.ENT.PROF.V1", smartcode.InvalidCharacterClass},
		{"non numeric version", "HERA.CRM.CUST.ENT.PROF.VX", smartcode.InvalidCharacterClass},
		{"bare V", "HERA.CRM.CUST.ENT.PROF.V", smartcode.InvalidCharacterClass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, smartcode.Check(tt.code), "kind for %q", tt.code)
		})
	}
}

func TestParse_ReturnsStructure(t *testing.T) {
	code, err := smartcode.Parse("HERA.CRM.CUST.ENT.PROF.V2")
	require.NoError(t, err)

	want := smartcode.Code{Module: "CRM", Segments: []string{"CUST", "ENT", "PROF"}, Version: 2}
	if diff := cmp.Diff(want, code); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "HERA.CRM.CUST.ENT.PROF.V2", code.String())
	assert.True(t, code.HasSegment("ENT"))
	assert.False(t, code.HasSegment("TXN"))
}

func TestParse_LowercaseVersionSuggestsFix(t *testing.T) {
	_, err := smartcode.Parse("HERA.SALON.SALE.TXN.RETAIL.v1")
	require.Error(t, err)

	var scErr *smartcode.Error
	require.ErrorAs(t, err, &scErr)
	assert.Equal(t, smartcode.InvalidLowercaseVersion, scErr.Kind)
	assert.Equal(t, "HERA.SALON.SALE.TXN.RETAIL.V1", scErr.Suggestion)
	assert.Contains(t, err.Error(), "did you mean")
}

func TestNormalize_RoundTrip(t *testing.T) {
	valid := []string{
		"HERA.CRM.CUST.ENT.PROF.V1",
		"HERA.FIN.GL.JOURNAL.ENTRY.V10",
		"HERA.SALON.SVC.TXN.LINE.SERVICE.V2",
	}
	for _, code := range valid {
		assert.Equal(t, code, smartcode.Normalize(code), "normalize must not change a valid code")
		assert.Equal(t, smartcode.Valid, smartcode.Check(smartcode.Normalize(code)))
	}

	fixed := smartcode.Normalize("  HERA.SALON.SALE.TXN.RETAIL.v1 ")
	assert.Equal(t, "HERA.SALON.SALE.TXN.RETAIL.V1", fixed)
	assert.Equal(t, smartcode.Valid, smartcode.Check(fixed))

	assert.Equal(t, "HERA.CRM", smartcode.Normalize("HERA.CRM"))
	assert.Equal(t, "", smartcode.Normalize(""))
}

func TestValidator_Policy(t *testing.T) {
	strict := smartcode.Validator{}
	_, rewritten, err := strict.Validate("HERA.SALON.SALE.TXN.RETAIL.v1")
	require.Error(t, err)
	assert.False(t, rewritten)

	lenient := smartcode.Validator{AutoNormalize: true}
	code, rewritten, err := lenient.Validate("HERA.SALON.SALE.TXN.RETAIL.v1")
	require.NoError(t, err)
	assert.True(t, rewritten)
	assert.Equal(t, "HERA.SALON.SALE.TXN.RETAIL.V1", code.String())

	_, _, err = lenient.Validate("HERA.CRM.CUST.V1")
	require.Error(t, err, "normalization never rescues other failures")

	_, rewritten, err = lenient.Validate("HERA.CRM.CUST.ENT.PROF.V1")
	require.NoError(t, err)
	assert.False(t, rewritten)
}

func TestInspect(t *testing.T) {
	ok := smartcode.Inspect("HERA.FIN.GL.TXN.JOURNAL.V2")
	assert.True(t, ok.Valid)
	assert.Equal(t, "VALID", ok.Kind)
	assert.Equal(t, "FIN", ok.Module)
	assert.Equal(t, []string{"GL", "TXN", "JOURNAL"}, ok.Segments)
	assert.Equal(t, 2, ok.Version)

	bad := smartcode.Inspect("HERA.FIN.GL.TXN.JOURNAL.v2")
	assert.False(t, bad.Valid)
	assert.Equal(t, "INVALID_LOWERCASE_VERSION", bad.Kind)
	assert.Equal(t, "HERA.FIN.GL.TXN.JOURNAL.V2", bad.Suggestion)
	assert.NotEmpty(t, bad.Reason)
	assert.Empty(t, bad.Module)
}
