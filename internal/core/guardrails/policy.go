package guardrails

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/core/smartcode"
)

// Policy is the declarative half of the guardrail engine: which transaction
// types are financial or branch scoped, which relationship types must stay
// acyclic, which dimensions are required, and so on.
type Policy struct {
	FinancialTransactionTypes    []string                      `yaml:"financial_transaction_types"`
	FinancialSmartCodeModules    []string                      `yaml:"financial_smart_code_modules"`
	BranchScopedTransactionTypes []string                      `yaml:"branch_scoped_transaction_types"`
	BranchScopedSmartCodeModules []string                      `yaml:"branch_scoped_smart_code_modules"`
	BranchEntityType             string                        `yaml:"branch_entity_type"`
	BranchLineDataKey            string                        `yaml:"branch_line_data_key"`
	RequireFiscalPeriod          bool                          `yaml:"require_fiscal_period"`
	FiscalPeriodEntityType       string                        `yaml:"fiscal_period_entity_type"`
	MaxHierarchyDepth            int                           `yaml:"max_hierarchy_depth"`
	AcyclicRelationshipTypes     []string                      `yaml:"acyclic_relationship_types"`
	RelationshipCardinality      map[string]domain.Cardinality `yaml:"relationship_cardinality"`
	RequiredDimensions           map[string][]string           `yaml:"required_dimensions"`
	AllocationTransactionTypes   []string                      `yaml:"allocation_transaction_types"`
	AllocationLineDataKey        string                        `yaml:"allocation_line_data_key"`
	CurrencyAlignedEntityTypes   []string                      `yaml:"currency_aligned_entity_types"`
	CurrencyFieldName            string                        `yaml:"currency_field_name"`
	RequiredDynamicFields        map[string][]string           `yaml:"required_dynamic_fields"`
	CurrencyMinorUnits           map[string]int32              `yaml:"currency_minor_units"`
	DefaultMinorUnit             int32                         `yaml:"default_minor_unit"`
	AllowMultiCurrency           bool                          `yaml:"allow_multi_currency"`
}

// DefaultPolicy returns the policy used when no policy file is configured.
func DefaultPolicy() Policy {
	return Policy{
		FinancialTransactionTypes: []string{
			"JOURNAL_ENTRY", "GL_JOURNAL", "GL_POSTING", "PAYMENT", "RECEIPT",
			"COST_ALLOCATION", "ACCRUAL", "DEPRECIATION",
		},
		FinancialSmartCodeModules:    []string{"FIN", "GL", "ACCOUNTING"},
		BranchScopedTransactionTypes: []string{"SALE", "POS_SALE", "APPOINTMENT", "SERVICE", "RETAIL_SALE"},
		BranchScopedSmartCodeModules: []string{"SALON", "RETAIL"},
		BranchEntityType:             domain.EntityTypeBranch,
		BranchLineDataKey:            "branch_id",
		FiscalPeriodEntityType:       domain.EntityTypeFiscalPeriod,
		MaxHierarchyDepth:            10,
		AcyclicRelationshipTypes:     []string{"PARENT_OF", "REPORTS_TO", "BOM_COMPONENT", "ROLLS_UP_TO"},
		RelationshipCardinality: map[string]domain.Cardinality{
			"REPORTS_TO":  domain.CardinalityOne,
			"HAS_STATUS":  domain.CardinalityOne,
			"ROLLS_UP_TO": domain.CardinalityOne,
		},
		RequiredDimensions:         map[string][]string{},
		AllocationTransactionTypes: []string{"COST_ALLOCATION"},
		AllocationLineDataKey:      "allocation_percent",
		CurrencyAlignedEntityTypes: []string{"COST_CENTER", "PROFIT_CENTER"},
		CurrencyFieldName:          "currency",
		RequiredDynamicFields:      map[string][]string{},
		CurrencyMinorUnits: map[string]int32{
			"JPY": 0, "KRW": 0, "BHD": 3, "KWD": 3, "OMR": 3,
		},
		DefaultMinorUnit:   2,
		AllowMultiCurrency: true,
	}
}

// LoadPolicy reads a YAML policy file on top of DefaultPolicy. Lists in the
// file replace the defaults; map entries are merged.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read guardrail policy %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("failed to parse guardrail policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid guardrail policy %s: %w", path, err)
	}
	return p, nil
}

// Validate checks internal consistency of the policy.
func (p Policy) Validate() error {
	if p.MaxHierarchyDepth < 1 {
		return fmt.Errorf("max_hierarchy_depth must be at least 1, got %d", p.MaxHierarchyDepth)
	}
	if p.DefaultMinorUnit < 0 {
		return fmt.Errorf("default_minor_unit must not be negative")
	}
	for relType, c := range p.RelationshipCardinality {
		if c != domain.CardinalityOne && c != domain.CardinalityMany {
			return fmt.Errorf("relationship_cardinality[%s]: %q must be one or many", relType, c)
		}
	}
	for ccy, u := range p.CurrencyMinorUnits {
		if u < 0 {
			return fmt.Errorf("currency_minor_units[%s] must not be negative", ccy)
		}
	}
	return nil
}

// IsFinancial reports whether a transaction is subject to balance rules,
// either by type or by the module of its smart code.
func (p Policy) IsFinancial(txnType string, code smartcode.Code) bool {
	return contains(p.FinancialTransactionTypes, txnType) || contains(p.FinancialSmartCodeModules, code.Module)
}

// IsBranchScoped reports whether a transaction needs a branch reference.
func (p Policy) IsBranchScoped(txnType string, code smartcode.Code) bool {
	return contains(p.BranchScopedTransactionTypes, txnType) || contains(p.BranchScopedSmartCodeModules, code.Module)
}

// IsAllocation reports whether allocation weight rules apply.
func (p Policy) IsAllocation(txnType string) bool {
	return contains(p.AllocationTransactionTypes, txnType)
}

// IsAcyclic reports whether edges of relType must never form a cycle.
func (p Policy) IsAcyclic(relType string) bool {
	return contains(p.AcyclicRelationshipTypes, relType)
}

// IsCurrencyAligned reports whether entityType carries a currency that must match the organization's.
func (p Policy) IsCurrencyAligned(entityType string) bool {
	return contains(p.CurrencyAlignedEntityTypes, entityType)
}

// MinorUnit returns the number of decimal places balances are rounded to.
func (p Policy) MinorUnit(currency string) int32 {
	if u, ok := p.CurrencyMinorUnits[strings.ToUpper(currency)]; ok {
		return u
	}
	return p.DefaultMinorUnit
}

// Cardinality resolves the cardinality of relType; overrides win over the policy and
// unknown types default to many.
func (p Policy) Cardinality(relType string, overrides map[string]domain.Cardinality) domain.Cardinality {
	relType = domain.NormalizeRelationshipType(relType)
	for k, c := range overrides {
		if domain.NormalizeRelationshipType(k) == relType {
			return c
		}
	}
	for k, c := range p.RelationshipCardinality {
		if domain.NormalizeRelationshipType(k) == relType {
			return c
		}
	}
	return domain.CardinalityMany
}

func lookup(m map[string][]string, key string) []string {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
