package compose

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Spec is the structural validator vocabulary the host understands: shapes
// and optionality only, no value-level constraints. Specs are immutable
// values; build them with the constructors in this package or hand in a
// richer dialect (see Input) and let the overlay translate.
//
// The set of implementations is closed. Specs marshal to a stable JSON
// description so hosts can forward them to their own validation layer or to
// generated clients.
type Spec interface {
	json.Marshaler

	// Check validates raw JSON against this spec. It returns nil when the
	// value matches the described shape.
	Check(raw json.RawMessage) error

	check(v gjson.Result, path string) error
}

// Field is one member of an object spec.
type Field struct {
	Name     string
	Spec     Spec
	Optional bool
}

// F declares a required object field.
func F(name string, s Spec) Field {
	return Field{Name: name, Spec: s}
}

// Opt declares an optional object field. Absent is fine; present values
// must still match.
func Opt(name string, s Spec) Field {
	return Field{Name: name, Spec: s, Optional: true}
}

// Object describes a JSON object with a fixed field set. Fields not
// declared are rejected.
func Object(fields ...Field) Spec {
	return objectSpec{fields: fields}
}

// String describes a JSON string.
func String() Spec { return stringSpec{} }

// Number describes a JSON number.
func Number() Spec { return numberSpec{} }

// Int describes a JSON number with no fractional part.
func Int() Spec { return intSpec{} }

// Bool describes a JSON boolean.
func Bool() Spec { return boolSpec{} }

// Null describes JSON null. Mostly useful inside Union.
func Null() Spec { return nullSpec{} }

// Any accepts any JSON value.
func Any() Spec { return anySpec{} }

// Array describes a JSON array whose elements all match elem.
func Array(elem Spec) Spec { return arraySpec{elem: elem} }

// Union describes a value matching at least one of the alternatives.
func Union(alts ...Spec) Spec {
	if len(alts) == 0 {
		panic(usageErrorf("union needs at least one alternative"))
	}
	return unionSpec{alts: alts}
}

type objectSpec struct {
	fields []Field
}

func (s objectSpec) MarshalJSON() ([]byte, error) {
	type fieldJSON struct {
		Name     string `json:"name"`
		Optional bool   `json:"optional,omitempty"`
		Spec     Spec   `json:"spec"`
	}
	fields := make([]fieldJSON, len(s.fields))
	for i, f := range s.fields {
		fields[i] = fieldJSON{Name: f.Name, Optional: f.Optional, Spec: f.Spec}
	}
	return json.Marshal(map[string]any{"type": "object", "fields": fields})
}

type stringSpec struct{}

func (stringSpec) MarshalJSON() ([]byte, error) { return []byte(`{"type":"string"}`), nil }

type numberSpec struct{}

func (numberSpec) MarshalJSON() ([]byte, error) { return []byte(`{"type":"number"}`), nil }

type intSpec struct{}

func (intSpec) MarshalJSON() ([]byte, error) { return []byte(`{"type":"integer"}`), nil }

type boolSpec struct{}

func (boolSpec) MarshalJSON() ([]byte, error) { return []byte(`{"type":"boolean"}`), nil }

type nullSpec struct{}

func (nullSpec) MarshalJSON() ([]byte, error) { return []byte(`{"type":"null"}`), nil }

type anySpec struct{}

func (anySpec) MarshalJSON() ([]byte, error) { return []byte(`{"type":"any"}`), nil }

type arraySpec struct {
	elem Spec
}

func (s arraySpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"type": "array", "of": s.elem})
}

type unionSpec struct {
	alts []Spec
}

func (s unionSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"type": "union", "of": s.alts})
}

// SpecJSON renders a spec's JSON description. Convenience for hosts that
// ship specs over the wire.
func SpecJSON(s Spec) (json.RawMessage, error) {
	if s == nil {
		return nil, fmt.Errorf("nil spec")
	}
	return json.Marshal(s)
}
