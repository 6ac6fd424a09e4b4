package domain

import (
	"strings"

	"github.com/SscSPs/hera_engine/internal/apperrors"
)

// ActorContext is the explicit tenant + identity pair every engine operation runs under.
type ActorContext struct {
	OrganizationID string
	ActorUserID    string
}

// Validate rejects a context with a missing organization or actor. Neither is ever defaulted.
func (c ActorContext) Validate() error {
	if strings.TrimSpace(c.OrganizationID) == "" {
		return apperrors.NewValidationError("organization_id", "ORG_REQUIRED", "organization_id is required").
			WithHint("every call must name the tenant organization")
	}
	if strings.TrimSpace(c.ActorUserID) == "" {
		return apperrors.NewValidationError("actor_user_id", "ACTOR_REQUIRED", "actor_user_id is required").
			WithHint("every call must name the acting user for audit stamping")
	}
	return nil
}
