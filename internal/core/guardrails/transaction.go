package guardrails

import (
	"fmt"
	"strings"

	"github.com/SscSPs/hera_engine/internal/apperrors"
)

func transactionRules(p Policy) []Rule {
	return []Rule{
		{
			Name: "TXN_HEADER_COMPLETE", Category: Completeness, Stage: StageHeader, Kind: TransactionKind,
			Check: func(s Subject) Result {
				t := asTxn(s)
				h := t.Transaction
				var missing []string
				if h.TransactionType == "" {
					missing = append(missing, "transaction_type")
				}
				if h.TransactionDate.IsZero() {
					missing = append(missing, "transaction_date")
				}
				if h.Currency == "" {
					missing = append(missing, "currency")
				}
				if h.TransactionCode == "" {
					missing = append(missing, "transaction_code")
				}
				if len(missing) > 0 {
					return Fail("HEADER_INCOMPLETE", "missing required header fields: "+strings.Join(missing, ", "))
				}
				if t.CodeTaken {
					return Fail("DUPLICATE_CODE", fmt.Sprintf("transaction_code %s already exists", h.TransactionCode)).
						WithCause(&apperrors.DuplicateTransactionError{TransactionCode: h.TransactionCode})
				}
				return Ok()
			},
		},
		{
			Name: "TXN_LINES_PRESENT", Category: Completeness, Stage: StageLines, Kind: TransactionKind,
			Applies: func(s Subject) bool {
				t := asTxn(s)
				return p.IsFinancial(t.Transaction.TransactionType, t.Code)
			},
			Check: func(s Subject) Result {
				if len(asTxn(s).Transaction.Lines) == 0 {
					return Fail("LINES_REQUIRED", fmt.Sprintf("%s transactions need at least one line", s.TypeKey()))
				}
				return Ok()
			},
		},
		{
			Name: "TXN_LINE_NUMBERS_UNIQUE", Category: Completeness, Stage: StageLines, Kind: TransactionKind,
			Check: func(s Subject) Result {
				seen := map[int]bool{}
				var vs []apperrors.Violation
				for _, l := range asTxn(s).Transaction.Lines {
					switch {
					case l.LineNumber < 1:
						vs = append(vs, apperrors.Violation{Code: "LINE_NUMBER_INVALID",
							Message: fmt.Sprintf("line_number %d must be positive", l.LineNumber)})
					case seen[l.LineNumber]:
						vs = append(vs, apperrors.Violation{Code: "LINE_NUMBER_DUPLICATE",
							Message: fmt.Sprintf("line_number %d appears more than once", l.LineNumber)})
					}
					seen[l.LineNumber] = true
					if l.LineAmount.IsNegative() {
						vs = append(vs, apperrors.Violation{Code: "LINE_AMOUNT_NEGATIVE",
							Message: fmt.Sprintf("line %d amount must not be negative once sided", l.LineNumber)})
					}
				}
				return Err(vs...)
			},
		},
	}
}
