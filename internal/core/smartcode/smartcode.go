// Package smartcode parses and validates the HERA taxonomy strings attached to
// every entity, dynamic field, relationship, transaction and transaction line.
//
// Grammar:
//
//	HERA.<MODULE 3-15>.(<SEGMENT 2-30>.){3,8}V<digits>
//
// MODULE and SEGMENT are upper-case alphanumerics or underscores. The version
// suffix is case-significant: "v1" is a common but invalid spelling of "V1".
package smartcode

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	Prefix = "HERA"

	minModuleLen  = 3
	maxModuleLen  = 15
	minSegmentLen = 2
	maxSegmentLen = 30
	minSegments   = 3
	maxSegments   = 8

	// prefix + module + segments + version
	minParts = 1 + 1 + minSegments + 1
	maxParts = 1 + 1 + maxSegments + 1
)

// Kind classifies a validation outcome.
type Kind int

const (
	Valid Kind = iota
	InvalidLowercaseVersion
	InvalidSegmentCount
	InvalidCharacterClass
)

func (k Kind) String() string {
	switch k {
	case Valid:
		return "VALID"
	case InvalidLowercaseVersion:
		return "INVALID_LOWERCASE_VERSION"
	case InvalidSegmentCount:
		return "INVALID_SEGMENT_COUNT"
	case InvalidCharacterClass:
		return "INVALID_CHARACTER_CLASS"
	}
	return "UNKNOWN"
}

// Code is a parsed, normalized smart code.
type Code struct {
	Module   string
	Segments []string
	Version  int
}

// String renders the canonical form.
func (c Code) String() string {
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteByte('.')
	b.WriteString(c.Module)
	for _, s := range c.Segments {
		b.WriteByte('.')
		b.WriteString(s)
	}
	b.WriteString(".V")
	b.WriteString(strconv.Itoa(c.Version))
	return b.String()
}

// HasSegment reports whether seg appears among the code's segments.
func (c Code) HasSegment(seg string) bool {
	for _, s := range c.Segments {
		if s == seg {
			return true
		}
	}
	return false
}

// Error describes why a code failed to validate.
type Error struct {
	Kind       Kind
	Input      string
	Reason     string
	Suggestion string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("invalid smart code %q (%s): %s", e.Input, e.Kind, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

// Parse validates code against the grammar and returns its parsed form.
func Parse(code string) (Code, error) {
	fail := func(kind Kind, reason string) (Code, error) {
		return Code{}, &Error{Kind: kind, Input: code, Reason: reason}
	}

	parts := strings.Split(code, ".")
	if code == "" || len(parts) < minParts || len(parts) > maxParts {
		return fail(InvalidSegmentCount, fmt.Sprintf("expected %d-%d segments between module and version, got %d",
			minSegments, maxSegments, max(len(parts)-3, 0)))
	}

	if parts[0] != Prefix {
		return fail(InvalidCharacterClass, "code must start with "+Prefix)
	}

	module := parts[1]
	if !isUpperToken(module) {
		return fail(InvalidCharacterClass, fmt.Sprintf("module %q must contain only A-Z, 0-9 or _", module))
	}
	if len(module) < minModuleLen || len(module) > maxModuleLen {
		return fail(InvalidCharacterClass, fmt.Sprintf("module %q must be %d-%d characters", module, minModuleLen, maxModuleLen))
	}

	segments := parts[2 : len(parts)-1]
	for _, seg := range segments {
		if !isUpperToken(seg) {
			return fail(InvalidCharacterClass, fmt.Sprintf("segment %q must contain only A-Z, 0-9 or _", seg))
		}
		if len(seg) < minSegmentLen || len(seg) > maxSegmentLen {
			return fail(InvalidCharacterClass, fmt.Sprintf("segment %q must be %d-%d characters", seg, minSegmentLen, maxSegmentLen))
		}
	}

	version := parts[len(parts)-1]
	if len(version) < 2 || !isDigits(version[1:]) {
		return fail(InvalidCharacterClass, fmt.Sprintf("version suffix %q must be V followed by digits", version))
	}
	if version[0] == 'v' {
		return Code{}, &Error{
			Kind:       InvalidLowercaseVersion,
			Input:      code,
			Reason:     "version suffix must use an upper-case V",
			Suggestion: strings.Join(parts[:len(parts)-1], ".") + ".V" + version[1:],
		}
	}
	if version[0] != 'V' {
		return fail(InvalidCharacterClass, fmt.Sprintf("version suffix %q must be V followed by digits", version))
	}

	n, err := strconv.Atoi(version[1:])
	if err != nil {
		return fail(InvalidCharacterClass, fmt.Sprintf("version %q is out of range", version))
	}

	return Code{
		Module:   module,
		Segments: append([]string(nil), segments...),
		Version:  n,
	}, nil
}

// Check returns only the Kind of a validation.
func Check(code string) Kind {
	_, err := Parse(code)
	if err == nil {
		return Valid
	}
	return err.(*Error).Kind
}

// Normalize trims surrounding space and upper-cases a trailing ".v<digits>".
// It is the identity on every valid code.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	idx := strings.LastIndexByte(code, '.')
	if idx < 0 || idx+2 > len(code) {
		return code
	}
	suffix := code[idx+1:]
	if suffix[0] == 'v' && isDigits(suffix[1:]) {
		return code[:idx+1] + "V" + suffix[1:]
	}
	return code
}

// Validator applies the normalization policy on top of Parse.
type Validator struct {
	// AutoNormalize accepts a lowercase version suffix and returns the upper-case form.
	AutoNormalize bool
}

// Validate parses code; when AutoNormalize is set a lowercase-version code is
// accepted in its normalized form. The second return reports whether the
// input was rewritten.
func (v Validator) Validate(code string) (Code, bool, error) {
	parsed, err := Parse(code)
	if err == nil {
		return parsed, false, nil
	}
	scErr := err.(*Error)
	if scErr.Kind != InvalidLowercaseVersion || !v.AutoNormalize {
		return Code{}, false, err
	}
	parsed, err = Parse(Normalize(code))
	if err != nil {
		return Code{}, false, err
	}
	return parsed, true, nil
}

func isUpperToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Report is a caller-facing summary of one code.
type Report struct {
	SmartCode  string   `json:"smart_code"`
	Valid      bool     `json:"valid"`
	Kind       string   `json:"kind" example:"VALID"`
	Reason     string   `json:"reason,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	Module     string   `json:"module,omitempty"`
	Segments   []string `json:"segments,omitempty"`
	Version    int      `json:"version,omitempty"`
}

// Inspect parses code and explains the outcome.
func Inspect(code string) Report {
	out := Report{SmartCode: code}
	parsed, err := Parse(code)
	if err != nil {
		scErr := err.(*Error)
		out.Kind = scErr.Kind.String()
		out.Reason = scErr.Reason
		out.Suggestion = scErr.Suggestion
		return out
	}
	out.Valid = true
	out.Kind = Valid.String()
	out.Module = parsed.Module
	out.Segments = parsed.Segments
	out.Version = parsed.Version
	return out
}
