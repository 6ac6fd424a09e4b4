package guardrails

import (
	"fmt"
	"strings"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
)

func branchRules(p Policy) []Rule {
	return []Rule{
		{
			Name: "TXN_BRANCH_REQUIRED", Category: Dimensional, Stage: StageBranch, Kind: TransactionKind,
			Applies: func(s Subject) bool {
				t := asTxn(s)
				return p.IsBranchScoped(t.Transaction.TransactionType, t.Code)
			},
			Check: func(s Subject) Result {
				t := asTxn(s)
				refs := BranchReferences(t.Transaction, p.BranchLineDataKey)
				if len(refs) == 0 {
					return Fail("BRANCH_REQUIRED",
						fmt.Sprintf("%s transactions need branch_entity_id on the header or %s on a line", t.Transaction.TransactionType, p.BranchLineDataKey))
				}
				var vs []apperrors.Violation
				for _, id := range refs {
					b, ok := t.Branches[id]
					switch {
					case !ok:
						vs = append(vs, apperrors.Violation{Code: "BRANCH_NOT_FOUND",
							Message: fmt.Sprintf("branch %s does not exist in this organization", id)})
					case !strings.EqualFold(b.EntityType, p.BranchEntityType):
						vs = append(vs, apperrors.Violation{Code: "BRANCH_WRONG_TYPE",
							Message: fmt.Sprintf("entity %s is a %s, not a %s", id, b.EntityType, p.BranchEntityType)})
					case b.Status != domain.EntityActive:
						vs = append(vs, apperrors.Violation{Code: "BRANCH_INACTIVE",
							Message: fmt.Sprintf("branch %s is %s", id, b.Status)})
					}
				}
				return Err(vs...)
			},
		},
	}
}
