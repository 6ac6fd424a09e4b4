package guardrails

import (
	"fmt"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
)

func periodRules(p Policy) []Rule {
	return []Rule{
		{
			Name: "TXN_PERIOD_OPEN", Category: Temporal, Stage: StagePeriod, Kind: TransactionKind,
			Check: func(s Subject) Result {
				t := asTxn(s)
				date := t.effectiveDate()
				period, ok := domain.PeriodFor(t.Periods, date)
				if !ok {
					if p.RequireFiscalPeriod {
						return Fail("PERIOD_MISSING", fmt.Sprintf("no fiscal period covers %s", date.Format(domain.DateLayout)))
					}
					return Ok()
				}
				if period.AcceptsPostings() {
					return Ok()
				}
				return Fail("PERIOD_CLOSED", fmt.Sprintf("fiscal period %s is %s", period.Code, period.Status)).
					WithCause(&apperrors.PeriodClosedError{
						PeriodCode: period.Code,
						Status:     string(period.Status),
						Date:       date.Format(domain.DateLayout),
					})
			},
		},
	}
}
