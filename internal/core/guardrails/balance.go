package guardrails

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
)

var hundred = decimal.NewFromInt(100)

func balanceRules(p Policy) []Rule {
	financial := func(s Subject) bool {
		t := asTxn(s)
		return p.IsFinancial(t.Transaction.TransactionType, t.Code)
	}
	return []Rule{
		{
			Name: "BAL_GL_BALANCED", Category: Balance, Stage: StageBalance, Kind: TransactionKind,
			Applies: financial,
			Check: func(s Subject) Result {
				t := asTxn(s)
				imbalances := Imbalances(t.Transaction, p)
				if len(imbalances) == 0 {
					return Ok()
				}
				currencies := make([]string, 0, len(imbalances))
				for c := range imbalances {
					currencies = append(currencies, c)
				}
				sort.Strings(currencies)
				vs := make([]apperrors.Violation, 0, len(currencies))
				for _, c := range currencies {
					vs = append(vs, apperrors.Violation{Code: "UNBALANCED",
						Message: fmt.Sprintf("%s lines are out of balance by %s", c, imbalances[c].String())})
				}
				return Err(vs...).WithCause(&apperrors.UnbalancedTransactionError{Imbalances: imbalances})
			},
		},
		{
			Name: "BAL_TOTAL_MATCHES_LINES", Category: Balance, Stage: StageBalance, Kind: TransactionKind,
			Applies: financial,
			Check: func(s Subject) Result {
				t := asTxn(s)
				debits := DebitTotal(t.Transaction.Lines)
				unit := p.MinorUnit(t.Transaction.Currency)
				if t.Transaction.TotalAmount.Round(unit).Equal(debits.Round(unit)) {
					return Ok()
				}
				return Fail("TOTAL_MISMATCH", fmt.Sprintf("total_amount %s does not equal the debit total %s",
					t.Transaction.TotalAmount.String(), debits.String()))
			},
		},
		{
			Name: "BAL_ALLOCATION_WEIGHTS", Category: Balance, Stage: StageBalance, Kind: TransactionKind,
			Applies: func(s Subject) bool { return p.IsAllocation(s.TypeKey()) },
			Check: func(s Subject) Result {
				sum := decimal.Zero
				weighted := 0
				for _, l := range asTxn(s).Transaction.Lines {
					if w, ok := l.DataDecimal(p.AllocationLineDataKey); ok {
						if w.IsNegative() {
							return Fail("ALLOCATION_NEGATIVE", fmt.Sprintf("line %d has a negative %s", l.LineNumber, p.AllocationLineDataKey))
						}
						sum = sum.Add(w)
						weighted++
					}
				}
				if weighted == 0 {
					return Fail("ALLOCATION_MISSING", fmt.Sprintf("no line carries %s", p.AllocationLineDataKey))
				}
				if !sum.Round(4).Equal(hundred) {
					return Fail("ALLOCATION_NOT_100", fmt.Sprintf("allocation weights sum to %s%%, expected 100%%", sum.String()))
				}
				return Ok()
			},
		},
	}
}

// Imbalances returns the signed sum per currency for every currency whose
// lines do not net to zero after rounding to its minor unit.
func Imbalances(t domain.Transaction, p Policy) map[string]decimal.Decimal {
	sums := map[string]decimal.Decimal{}
	for _, l := range t.Lines {
		c := l.Currency
		if c == "" {
			c = t.Currency
		}
		sums[c] = sums[c].Add(l.SignedAmount())
	}
	out := map[string]decimal.Decimal{}
	for c, sum := range sums {
		if rounded := sum.Round(p.MinorUnit(c)); !rounded.IsZero() {
			out[c] = rounded
		}
	}
	return out
}

// DebitTotal sums the debit side of lines, treating unsided positive amounts as debits.
func DebitTotal(lines []domain.TransactionLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Side == domain.SideDebit || (l.Side == domain.SideNone && l.LineAmount.IsPositive()) {
			total = total.Add(l.LineAmount)
		}
	}
	return total
}
