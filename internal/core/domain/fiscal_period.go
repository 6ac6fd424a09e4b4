package domain

import (
	"strings"
	"time"
)

// PeriodStatus is the posting state of a fiscal period.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
	PeriodLocked PeriodStatus = "locked"
)

// Dynamic field names that make an entity readable as a fiscal period.
const (
	FieldPeriodStart  = "period_start"
	FieldPeriodEnd    = "period_end"
	FieldPeriodStatus = "period_status"
)

// FiscalPeriod is a typed view over a FISCAL_PERIOD entity and its dynamic fields.
type FiscalPeriod struct {
	EntityID string
	Code     string
	Start    time.Time
	End      time.Time
	Status   PeriodStatus
}

// Contains reports whether the calendar date of t falls in [Start, End] inclusive.
func (p FiscalPeriod) Contains(t time.Time) bool {
	d := NewDateValue(t).V
	return !d.Before(NewDateValue(p.Start).V) && !d.After(NewDateValue(p.End).V)
}

// AcceptsPostings reports whether writes may be dated inside the period.
func (p FiscalPeriod) AcceptsPostings() bool {
	return p.Status == PeriodOpen
}

// FiscalPeriodFromEntity builds the view; ok is false when the entity is
// deleted or lacks a usable start or end. Callers select which entity type
// holds periods.
func FiscalPeriodFromEntity(e Entity, fields map[string]DynamicField) (FiscalPeriod, bool) {
	if e.Status == EntityDeleted {
		return FiscalPeriod{}, false
	}
	start, ok := DateOf(fields[FieldPeriodStart])
	if !ok {
		return FiscalPeriod{}, false
	}
	end, ok := DateOf(fields[FieldPeriodEnd])
	if !ok || end.Before(start) {
		return FiscalPeriod{}, false
	}
	status, _ := TextOf(fields[FieldPeriodStatus])
	st := PeriodStatus(strings.ToLower(strings.TrimSpace(status)))
	switch st {
	case PeriodOpen, PeriodClosed, PeriodLocked:
	default:
		// Unknown or missing status is treated as closed.
		st = PeriodClosed
	}
	code := e.EntityCode
	if code == "" {
		code = e.EntityName
	}
	return FiscalPeriod{EntityID: e.EntityID, Code: code, Start: start, End: end, Status: st}, true
}

// PeriodFor returns the first period containing t.
func PeriodFor(periods []FiscalPeriod, t time.Time) (FiscalPeriod, bool) {
	for _, p := range periods {
		if p.Contains(t) {
			return p, true
		}
	}
	return FiscalPeriod{}, false
}
