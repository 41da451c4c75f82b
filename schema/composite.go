package schema

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/bjaus/compose"
)

// ObjectField is one member of an object schema.
type ObjectField struct {
	Name     string
	Schema   Schema
	Optional bool
}

// F declares a required object field.
func F(name string, s Schema) ObjectField {
	return ObjectField{Name: name, Schema: s}
}

// Opt declares an optional object field.
func Opt(name string, s Schema) ObjectField {
	return ObjectField{Name: name, Schema: s, Optional: true}
}

// ObjectSchema describes a JSON object. Beyond per-field refinements it can
// carry cross-field checks that see the whole object.
type ObjectSchema struct {
	fields []ObjectField
	checks []func(v gjson.Result) error
}

// Object creates an object schema.
func Object(fields ...ObjectField) ObjectSchema {
	return ObjectSchema{fields: fields}
}

// Check appends a cross-field predicate. Checks run after every field's own
// refinements, in the order they were added.
func (s ObjectSchema) Check(fn func(v gjson.Result) error) ObjectSchema {
	next := s
	next.checks = append(append([]func(v gjson.Result) error(nil), s.checks...), fn)
	return next
}

// ValidatorSpec implements compose.SpecProvider. Field schemas are
// translated recursively; the first untranslatable field fails the whole
// object.
func (s ObjectSchema) ValidatorSpec() (compose.Spec, error) {
	fields := make([]compose.Field, len(s.fields))
	for i, f := range s.fields {
		spec, err := f.Schema.ValidatorSpec()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		fields[i] = compose.Field{Name: f.Name, Spec: spec, Optional: f.Optional}
	}
	return compose.Object(fields...), nil
}

// Refine implements compose.Refiner.
func (s ObjectSchema) Refine(raw json.RawMessage) error { return refineTopLevel(s, raw) }

func (s ObjectSchema) refine(v gjson.Result, path string) error {
	members := v.Map()
	for _, f := range s.fields {
		fv, ok := members[f.Name]
		if !ok {
			continue // absence is the structural layer's business
		}
		if err := f.Schema.refine(fv, childPath(path, f.Name)); err != nil {
			return err
		}
	}
	for _, check := range s.checks {
		if err := check(v); err != nil {
			return fmt.Errorf("%s: %w", displayPath(path), err)
		}
	}
	return nil
}

// ArraySchema describes a JSON array with optional size bounds.
type ArraySchema struct {
	elem               Schema
	minItems, maxItems int
	hasMin, hasMax     bool
}

// Array creates an array schema whose elements match elem.
func Array(elem Schema) ArraySchema {
	return ArraySchema{elem: elem}
}

// MinItems requires at least n elements.
func (s ArraySchema) MinItems(n int) ArraySchema {
	s.minItems, s.hasMin = n, true
	return s
}

// MaxItems allows at most n elements.
func (s ArraySchema) MaxItems(n int) ArraySchema {
	s.maxItems, s.hasMax = n, true
	return s
}

// ValidatorSpec implements compose.SpecProvider.
func (s ArraySchema) ValidatorSpec() (compose.Spec, error) {
	elem, err := s.elem.ValidatorSpec()
	if err != nil {
		return nil, fmt.Errorf("array element: %w", err)
	}
	if s.hasMin && s.hasMax && s.minItems > s.maxItems {
		return nil, fmt.Errorf("array min items %d exceeds max items %d", s.minItems, s.maxItems)
	}
	return compose.Array(elem), nil
}

// Refine implements compose.Refiner.
func (s ArraySchema) Refine(raw json.RawMessage) error { return refineTopLevel(s, raw) }

func (s ArraySchema) refine(v gjson.Result, path string) error {
	items := v.Array()
	if s.hasMin && len(items) < s.minItems {
		return fmt.Errorf("%s: fewer than %d items", displayPath(path), s.minItems)
	}
	if s.hasMax && len(items) > s.maxItems {
		return fmt.Errorf("%s: more than %d items", displayPath(path), s.maxItems)
	}
	for i, item := range items {
		if err := s.elem.refine(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// UnionSchema describes a value matching one of several alternatives.
type UnionSchema struct {
	alts []Schema
}

// Union creates a union schema.
func Union(alts ...Schema) UnionSchema {
	return UnionSchema{alts: alts}
}

// ValidatorSpec implements compose.SpecProvider.
func (s UnionSchema) ValidatorSpec() (compose.Spec, error) {
	if len(s.alts) == 0 {
		return nil, fmt.Errorf("union needs at least one alternative")
	}
	specs := make([]compose.Spec, len(s.alts))
	for i, alt := range s.alts {
		spec, err := alt.ValidatorSpec()
		if err != nil {
			return nil, fmt.Errorf("union alternative %d: %w", i, err)
		}
		specs[i] = spec
	}
	return compose.Union(specs...), nil
}

// Refine implements compose.Refiner.
func (s UnionSchema) Refine(raw json.RawMessage) error { return refineTopLevel(s, raw) }

// refine finds the first alternative whose structural shape matches the
// value and runs that alternative's refinements.
func (s UnionSchema) refine(v gjson.Result, path string) error {
	for _, alt := range s.alts {
		spec, err := alt.ValidatorSpec()
		if err != nil {
			return err
		}
		if spec.Check(json.RawMessage(v.Raw)) == nil {
			return alt.refine(v, path)
		}
	}
	return fmt.Errorf("%s: no union alternative matched", displayPath(path))
}

// CustomSchema is a purely value-level check with no structural shape. It
// cannot be translated to the host vocabulary, so using one in a validator
// handed to the builder is a configuration error; it exists for dialect
// implementations that validate outside the structural pipeline.
type CustomSchema struct {
	check func(v gjson.Result) error
}

// Custom creates a schema that only runs fn.
func Custom(fn func(v gjson.Result) error) CustomSchema {
	return CustomSchema{check: fn}
}

// ValidatorSpec implements compose.SpecProvider by failing: a custom check
// has no structural form.
func (CustomSchema) ValidatorSpec() (compose.Spec, error) {
	return nil, fmt.Errorf("custom schema has no structural form")
}

// Refine implements compose.Refiner.
func (s CustomSchema) Refine(raw json.RawMessage) error { return refineTopLevel(s, raw) }

func (s CustomSchema) refine(v gjson.Result, path string) error {
	if err := s.check(v); err != nil {
		return fmt.Errorf("%s: %w", displayPath(path), err)
	}
	return nil
}
