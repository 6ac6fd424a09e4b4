package guardrails

import (
	"fmt"
	"strings"

	"github.com/SscSPs/hera_engine/internal/apperrors"
)

func dimensionalRules(p Policy) []Rule {
	return []Rule{
		{
			Name: "DIM_REQUIRED_DYNAMIC_FIELDS", Category: Dimensional, Stage: StageDimension, Kind: EntityKind,
			Applies: func(s Subject) bool {
				return len(lookup(p.RequiredDynamicFields, s.TypeKey())) > 0
			},
			Check: func(s Subject) Result {
				e := asEntity(s)
				var missing []string
				for _, name := range lookup(p.RequiredDynamicFields, s.TypeKey()) {
					if f, ok := e.Fields[name]; !ok || f.Value == nil {
						missing = append(missing, name)
					}
				}
				if len(missing) == 0 {
					return Ok()
				}
				return Fail("MISSING_DYNAMIC_FIELDS",
					fmt.Sprintf("%s requires dynamic fields: %s", s.TypeKey(), strings.Join(missing, ", ")))
			},
		},
		{
			Name: "DIM_REQUIRED_DIMENSIONS", Category: Dimensional, Stage: StagePolicy, Kind: TransactionKind,
			Applies: func(s Subject) bool {
				return asTxn(s).Posting() && len(lookup(p.RequiredDimensions, s.TypeKey())) > 0
			},
			Check: func(s Subject) Result {
				t := asTxn(s)
				var vs []apperrors.Violation
				for _, l := range t.Transaction.Lines {
					var missing []string
					for _, dim := range lookup(p.RequiredDimensions, s.TypeKey()) {
						if _, ok := l.DataValue(dim); !ok {
							missing = append(missing, dim)
						}
					}
					if len(missing) > 0 {
						vs = append(vs, apperrors.Violation{Code: "MISSING_DIMENSIONS",
							Message: fmt.Sprintf("line %d is missing dimensions: %s", l.LineNumber, strings.Join(missing, ", "))})
					}
				}
				return Err(vs...)
			},
		},
	}
}
