// Package guardrails holds the pure validation rules evaluated before any
// entity or transaction write commits. Rules never touch storage: the caller
// loads every fact a rule needs into the Subject beforehand.
package guardrails

import (
	"github.com/SscSPs/hera_engine/internal/apperrors"
)

// Category groups rules by the kind of invariant they protect.
type Category string

const (
	Structural  Category = "structural"
	Dimensional Category = "dimensional"
	Balance     Category = "balance"
	Alignment   Category = "alignment"
	Temporal    Category = "temporal"
	Completeness Category = "completeness"
)

// Stage is an evaluation step. Stages run in a fixed order per subject kind and
// evaluation stops after the first stage that produced a violation.
type Stage string

const (
	StageHeader     Stage = "header"
	StageLines      Stage = "lines"
	StageBalance    Stage = "balance"
	StageBranch     Stage = "branch"
	StagePeriod     Stage = "period"
	StagePolicy     Stage = "policy"
	StageStructural Stage = "structural"
	StageDimension  Stage = "dimensional"
	StageAlignment  Stage = "alignment"
)

// SubjectKind tells entity subjects from transaction subjects.
type SubjectKind string

const (
	EntityKind      SubjectKind = "entity"
	TransactionKind SubjectKind = "transaction"
)

var stageOrder = map[SubjectKind][]Stage{
	TransactionKind: {StageHeader, StageLines, StageBalance, StageBranch, StagePeriod, StagePolicy},
	EntityKind:      {StageStructural, StageDimension, StageAlignment},
}

// Subject is the fully loaded input a rule runs against.
type Subject interface {
	Kind() SubjectKind
	// TypeKey is the transaction_type or entity_type used for applicability.
	TypeKey() string
}

// Result is Ok when Violations is empty. Cause optionally carries a typed
// error (unbalanced, period closed, duplicate code) describing the failure.
type Result struct {
	Violations []apperrors.Violation
	Cause      error
}

// Ok is the passing result.
func Ok() Result { return Result{} }

// Err builds a failing result.
func Err(violations ...apperrors.Violation) Result {
	return Result{Violations: violations}
}

// Fail is shorthand for a single violation.
func Fail(code, message string) Result {
	return Err(apperrors.Violation{Code: code, Message: message})
}

// WithCause attaches a typed error to a failing result.
func (r Result) WithCause(err error) Result {
	r.Cause = err
	return r
}

// OK reports whether the rule passed.
func (r Result) OK() bool { return len(r.Violations) == 0 }

// Rule is a named pure validation function.
type Rule struct {
	Name     string
	Category Category
	Stage    Stage
	Kind     SubjectKind
	// Types restricts the rule to these transaction or entity types. Empty means all.
	Types   []string
	Applies func(Subject) bool
	Check   func(Subject) Result
}

func (r Rule) appliesTo(s Subject) bool {
	if r.Kind != s.Kind() {
		return false
	}
	if len(r.Types) > 0 && !contains(r.Types, s.TypeKey()) {
		return false
	}
	return r.Applies == nil || r.Applies(s)
}

// Observer is notified of every violation produced by an evaluation.
type Observer func(v apperrors.Violation)

// Registry holds rules and evaluates them stage by stage.
type Registry struct {
	policy    Policy
	rules     []Rule
	observers []Observer
}

// NewRegistry returns a registry with every built-in rule registered against policy.
func NewRegistry(policy Policy) *Registry {
	r := &Registry{policy: policy}
	for _, rule := range builtinRules(policy) {
		r.Register(rule)
	}
	return r
}

// Policy returns the policy the built-in rules were created with.
func (r *Registry) Policy() Policy { return r.policy }

// Register adds a rule. Rules of a stage run in registration order.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Observe adds a violation observer.
func (r *Registry) Observe(o Observer) {
	r.observers = append(r.observers, o)
}

// Rules lists the registered rules.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Evaluate runs every applicable rule. All failures of a stage are reported
// together as a *apperrors.GuardrailViolation; later stages do not run.
func (r *Registry) Evaluate(s Subject) error {
	for _, stage := range stageOrder[s.Kind()] {
		var (
			violations []apperrors.Violation
			cause      error
		)
		for _, rule := range r.rules {
			if rule.Stage != stage || !rule.appliesTo(s) {
				continue
			}
			res := rule.Check(s)
			if res.OK() {
				continue
			}
			for _, v := range res.Violations {
				if v.Rule == "" {
					v.Rule = rule.Name
				}
				if v.Code == "" {
					v.Code = rule.Name
				}
				violations = append(violations, v)
				for _, o := range r.observers {
					o(v)
				}
			}
			if cause == nil && res.Cause != nil {
				cause = res.Cause
			}
		}
		if len(violations) > 0 {
			return &apperrors.GuardrailViolation{Stage: string(stage), Violations: violations, Cause: cause}
		}
	}
	return nil
}
