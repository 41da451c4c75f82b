package schema

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/bjaus/compose"
)

// StringSchema describes a JSON string with optional length, format, and
// pattern refinements. The zero constraints accept any string.
type StringSchema struct {
	minLen  int
	maxLen  int
	hasMin  bool
	hasMax  bool
	format  string
	pattern *regexp.Regexp
}

// String creates a string schema.
func String() StringSchema { return StringSchema{} }

// MinLen requires at least n bytes.
func (s StringSchema) MinLen(n int) StringSchema {
	s.minLen, s.hasMin = n, true
	return s
}

// MaxLen allows at most n bytes.
func (s StringSchema) MaxLen(n int) StringSchema {
	s.maxLen, s.hasMax = n, true
	return s
}

// Format requires a named format. Known formats: "email", "uuid". Unknown
// names are rejected when the schema is translated, not at invocation time.
func (s StringSchema) Format(name string) StringSchema {
	s.format = name
	return s
}

// Pattern requires the string to match re.
func (s StringSchema) Pattern(re *regexp.Regexp) StringSchema {
	s.pattern = re
	return s
}

var formats = map[string]*regexp.Regexp{
	"email": regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
	"uuid":  regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`),
}

// ValidatorSpec implements compose.SpecProvider. Refinement configuration
// is verified here so that a bad schema fails when the builder is
// assembled.
func (s StringSchema) ValidatorSpec() (compose.Spec, error) {
	if s.format != "" {
		if _, ok := formats[s.format]; !ok {
			return nil, fmt.Errorf("unknown string format %q", s.format)
		}
	}
	if s.hasMin && s.hasMax && s.minLen > s.maxLen {
		return nil, fmt.Errorf("string min length %d exceeds max length %d", s.minLen, s.maxLen)
	}
	return compose.String(), nil
}

// Refine implements compose.Refiner.
func (s StringSchema) Refine(raw json.RawMessage) error { return refineTopLevel(s, raw) }

func (s StringSchema) refine(v gjson.Result, path string) error {
	str := v.Str
	if s.hasMin && len(str) < s.minLen {
		return fmt.Errorf("%s: string shorter than %d", displayPath(path), s.minLen)
	}
	if s.hasMax && len(str) > s.maxLen {
		return fmt.Errorf("%s: string longer than %d", displayPath(path), s.maxLen)
	}
	if s.format != "" {
		if re, ok := formats[s.format]; ok && !re.MatchString(str) {
			return fmt.Errorf("%s: not a valid %s", displayPath(path), s.format)
		}
	}
	if s.pattern != nil && !s.pattern.MatchString(str) {
		return fmt.Errorf("%s: does not match %s", displayPath(path), s.pattern)
	}
	return nil
}

// NumberSchema describes a JSON number with optional inclusive bounds.
type NumberSchema struct {
	min, max       float64
	hasMin, hasMax bool
}

// Number creates a number schema.
func Number() NumberSchema { return NumberSchema{} }

// Min sets the inclusive lower bound.
func (s NumberSchema) Min(v float64) NumberSchema {
	s.min, s.hasMin = v, true
	return s
}

// Max sets the inclusive upper bound.
func (s NumberSchema) Max(v float64) NumberSchema {
	s.max, s.hasMax = v, true
	return s
}

// ValidatorSpec implements compose.SpecProvider.
func (s NumberSchema) ValidatorSpec() (compose.Spec, error) {
	if s.hasMin && s.hasMax && s.min > s.max {
		return nil, fmt.Errorf("number min %v exceeds max %v", s.min, s.max)
	}
	return compose.Number(), nil
}

// Refine implements compose.Refiner.
func (s NumberSchema) Refine(raw json.RawMessage) error { return refineTopLevel(s, raw) }

func (s NumberSchema) refine(v gjson.Result, path string) error {
	if s.hasMin && v.Num < s.min {
		return fmt.Errorf("%s: %v below minimum %v", displayPath(path), v.Num, s.min)
	}
	if s.hasMax && v.Num > s.max {
		return fmt.Errorf("%s: %v above maximum %v", displayPath(path), v.Num, s.max)
	}
	return nil
}

// IntSchema describes a JSON integer with optional inclusive bounds.
type IntSchema struct {
	min, max       int64
	hasMin, hasMax bool
}

// Int creates an integer schema.
func Int() IntSchema { return IntSchema{} }

// Min sets the inclusive lower bound.
func (s IntSchema) Min(v int64) IntSchema {
	s.min, s.hasMin = v, true
	return s
}

// Max sets the inclusive upper bound.
func (s IntSchema) Max(v int64) IntSchema {
	s.max, s.hasMax = v, true
	return s
}

// ValidatorSpec implements compose.SpecProvider.
func (s IntSchema) ValidatorSpec() (compose.Spec, error) {
	if s.hasMin && s.hasMax && s.min > s.max {
		return nil, fmt.Errorf("integer min %d exceeds max %d", s.min, s.max)
	}
	return compose.Int(), nil
}

// Refine implements compose.Refiner.
func (s IntSchema) Refine(raw json.RawMessage) error { return refineTopLevel(s, raw) }

func (s IntSchema) refine(v gjson.Result, path string) error {
	n := v.Int()
	if s.hasMin && n < s.min {
		return fmt.Errorf("%s: %d below minimum %d", displayPath(path), n, s.min)
	}
	if s.hasMax && n > s.max {
		return fmt.Errorf("%s: %d above maximum %d", displayPath(path), n, s.max)
	}
	return nil
}

// BoolSchema describes a JSON boolean. It has no refinements; it exists so
// whole validator trees can be written in one dialect.
type BoolSchema struct{}

// Bool creates a boolean schema.
func Bool() BoolSchema { return BoolSchema{} }

// ValidatorSpec implements compose.SpecProvider.
func (BoolSchema) ValidatorSpec() (compose.Spec, error) { return compose.Bool(), nil }

// Refine implements compose.Refiner.
func (s BoolSchema) Refine(raw json.RawMessage) error { return refineTopLevel(s, raw) }

func (BoolSchema) refine(gjson.Result, string) error { return nil }

// AnySchema accepts any JSON value.
type AnySchema struct{}

// Any creates a schema accepting anything.
func Any() AnySchema { return AnySchema{} }

// ValidatorSpec implements compose.SpecProvider.
func (AnySchema) ValidatorSpec() (compose.Spec, error) { return compose.Any(), nil }

// Refine implements compose.Refiner.
func (s AnySchema) Refine(raw json.RawMessage) error { return refineTopLevel(s, raw) }

func (AnySchema) refine(gjson.Result, string) error { return nil }
