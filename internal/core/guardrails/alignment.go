package guardrails

import (
	"fmt"
	"strings"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
)

func alignmentRules(p Policy) []Rule {
	return []Rule{
		{
			Name: "ALIGN_ENTITY_CURRENCY", Category: Alignment, Stage: StageAlignment, Kind: EntityKind,
			Applies: func(s Subject) bool {
				return p.IsCurrencyAligned(s.TypeKey()) && asEntity(s).Organization.Currency != ""
			},
			Check: func(s Subject) Result {
				e := asEntity(s)
				ccy, ok := domain.TextOf(e.Fields[p.CurrencyFieldName])
				if !ok || ccy == "" {
					return Ok()
				}
				if !strings.EqualFold(ccy, e.Organization.Currency) {
					return Fail("CURRENCY_MISALIGNED", fmt.Sprintf("%s currency %s does not match organization currency %s",
						e.Entity.EntityType, strings.ToUpper(ccy), e.Organization.Currency))
				}
				return Ok()
			},
		},
		{
			Name: "ALIGN_LINE_CURRENCY", Category: Alignment, Stage: StagePolicy, Kind: TransactionKind,
			Applies: func(Subject) bool { return !p.AllowMultiCurrency },
			Check: func(s Subject) Result {
				t := asTxn(s)
				var vs []apperrors.Violation
				for _, l := range t.Transaction.Lines {
					if c := t.lineCurrency(l); c != t.Transaction.Currency {
						vs = append(vs, apperrors.Violation{Code: "LINE_CURRENCY_MISMATCH",
							Message: fmt.Sprintf("line %d currency %s differs from header currency %s", l.LineNumber, c, t.Transaction.Currency)})
					}
				}
				return Err(vs...)
			},
		},
	}
}
