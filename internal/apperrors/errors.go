package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request conflicts with the current state of the resource.
var ErrConflict = errors.New("conflict")

// ErrForbidden indicates the actor may not act inside the requested organization.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates the caller could not be authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInternal is returned when an unexpected failure must not leak details to the caller.
var ErrInternal = errors.New("internal error")

// ErrGuardrail indicates that a guardrail rule rejected the write.
var ErrGuardrail = errors.New("guardrail violation")

// ErrReferentialIntegrity indicates a hard delete was blocked by existing references.
var ErrReferentialIntegrity = errors.New("referential integrity violation")

// ErrCrossTenant indicates that a record belongs to a different organization than the caller's.
var ErrCrossTenant = errors.New("cross-tenant access rejected")

// AppError carries an HTTP-ish status code alongside a message and the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is maps the status code back onto the matching sentinel.
func (e *AppError) Is(target error) bool {
	switch e.Code {
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusBadRequest:
		return target == ErrValidation
	case http.StatusConflict:
		return target == ErrConflict
	case http.StatusForbidden:
		return target == ErrForbidden
	case http.StatusInternalServerError:
		return target == ErrInternal
	}
	return false
}

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns a 404 AppError.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message}
}

// NewConflictError returns a 409 AppError.
func NewConflictError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message}
}

// ValidationError is raised before any write is attempted.
type ValidationError struct {
	Field   string
	Code    string
	Message string
	Hint    string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

// WithHint attaches a self-correction hint.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// Violation is one failed guardrail rule.
type Violation struct {
	Rule    string `json:"rule"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GuardrailViolation aggregates every failing rule of one evaluation stage.
// Cause holds the typed error of the first failing rule that produced one.
type GuardrailViolation struct {
	Stage      string
	Violations []Violation
	Cause      error
}

func (e *GuardrailViolation) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("[%s] %s", v.Code, v.Message)
	}
	return "guardrail violation: " + strings.Join(parts, "; ")
}

func (e *GuardrailViolation) Is(target error) bool { return target == ErrGuardrail }

func (e *GuardrailViolation) Unwrap() error { return e.Cause }

// Rules returns the distinct rule names that failed.
func (e *GuardrailViolation) Rules() []string {
	seen := make(map[string]struct{}, len(e.Violations))
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := seen[v.Rule]; ok {
			continue
		}
		seen[v.Rule] = struct{}{}
		out = append(out, v.Rule)
	}
	return out
}

// UnbalancedTransactionError reports the signed imbalance per currency.
type UnbalancedTransactionError struct {
	Imbalances map[string]decimal.Decimal
}

func (e *UnbalancedTransactionError) Error() string {
	return "transaction lines do not balance: " + e.detail()
}

func (e *UnbalancedTransactionError) detail() string {
	currencies := make([]string, 0, len(e.Imbalances))
	for c := range e.Imbalances {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	parts := make([]string, len(currencies))
	for i, c := range currencies {
		parts[i] = fmt.Sprintf("%s imbalance %s", c, e.Imbalances[c].String())
	}
	return strings.Join(parts, ", ")
}

func (e *UnbalancedTransactionError) Is(target error) bool { return target == ErrGuardrail }

// PeriodClosedError rejects writes dated inside a closed or locked fiscal period.
type PeriodClosedError struct {
	PeriodCode string
	Status     string
	Date       string
}

func (e *PeriodClosedError) Error() string {
	return fmt.Sprintf("fiscal period %s is %s for date %s", e.PeriodCode, e.Status, e.Date)
}

func (e *PeriodClosedError) Is(target error) bool { return target == ErrGuardrail }

// ReferentialIntegrityError blocks a hard delete while references exist.
type ReferentialIntegrityError struct {
	EntityID       string
	ReferenceCount int
	Breakdown      map[string]int
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("entity %s is referenced %d time(s); hard delete blocked", e.EntityID, e.ReferenceCount)
}

func (e *ReferentialIntegrityError) Is(target error) bool { return target == ErrReferentialIntegrity }

// DuplicateTransactionError reports a transaction_code collision inside one organization.
type DuplicateTransactionError struct {
	TransactionCode string
}

func (e *DuplicateTransactionError) Error() string {
	return fmt.Sprintf("transaction code %s already exists in organization", e.TransactionCode)
}

func (e *DuplicateTransactionError) Is(target error) bool {
	return target == ErrConflict || target == ErrDuplicate
}

// CrossTenantError is raised whenever a referenced record lives in another organization.
type CrossTenantError struct {
	Resource string
	ID       string
}

func (e *CrossTenantError) Error() string {
	return fmt.Sprintf("%s %s does not belong to the caller's organization", e.Resource, e.ID)
}

func (e *CrossTenantError) Is(target error) bool { return target == ErrCrossTenant }

// Description is the transport-neutral rendering of an error.
type Description struct {
	Status int
	Code   string
	Detail string
	Hint   string
}

// Describe maps any error returned by the engine to a status and envelope fields.
func Describe(err error) Description {
	var (
		valErr   *ValidationError
		unbal    *UnbalancedTransactionError
		period   *PeriodClosedError
		guard    *GuardrailViolation
		refErr   *ReferentialIntegrityError
		dupErr   *DuplicateTransactionError
		crossErr *CrossTenantError
		appErr   *AppError
	)
	switch {
	case err == nil:
		return Description{Status: http.StatusOK}
	case errors.As(err, &valErr):
		code := valErr.Code
		if code == "" {
			code = "VALIDATION_ERROR"
		}
		return Description{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Detail: fmt.Sprintf("%s (%s)", valErr.Error(), code), Hint: valErr.Hint}
	case errors.As(err, &unbal):
		return Description{Status: http.StatusUnprocessableEntity, Code: "UNBALANCED_TRANSACTION", Detail: unbal.detail(), Hint: "debits and credits must net to zero per currency"}
	case errors.As(err, &period):
		return Description{Status: http.StatusUnprocessableEntity, Code: "PERIOD_CLOSED", Detail: period.Error(), Hint: "date the transaction inside an open fiscal period"}
	case errors.As(err, &dupErr):
		return Description{Status: http.StatusConflict, Code: "DUPLICATE_TRANSACTION", Detail: dupErr.Error(), Hint: "retry with a new transaction_code"}
	case errors.As(err, &guard):
		return Description{Status: http.StatusUnprocessableEntity, Code: "GUARDRAIL_VIOLATION", Detail: guard.Error(), Hint: "rules: " + strings.Join(guard.Rules(), ",")}
	case errors.As(err, &refErr):
		return Description{Status: http.StatusConflict, Code: "REFERENTIAL_INTEGRITY", Detail: refErr.Error(), Hint: "use a soft delete or remove the references first"}
	case errors.As(err, &crossErr):
		return Description{Status: http.StatusForbidden, Code: "CROSS_TENANT", Detail: crossErr.Error()}
	case errors.Is(err, ErrValidation):
		return Description{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Detail: err.Error()}
	case errors.Is(err, ErrNotFound):
		return Description{Status: http.StatusNotFound, Code: "NOT_FOUND", Detail: err.Error()}
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicate):
		return Description{Status: http.StatusConflict, Code: "CONFLICT", Detail: err.Error(), Hint: "change the conflicting key"}
	case errors.Is(err, ErrForbidden):
		return Description{Status: http.StatusForbidden, Code: "FORBIDDEN", Detail: err.Error()}
	case errors.Is(err, ErrUnauthorized):
		return Description{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Detail: err.Error()}
	case errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError:
		return Description{Status: appErr.Code, Code: http.StatusText(appErr.Code), Detail: appErr.Message}
	}
	return Description{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Detail: "internal error"}
}
