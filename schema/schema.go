// Package schema is a refinement-capable validator dialect for compose.
//
// Schemas describe the same shapes as the compose.Spec vocabulary and add
// value-level refinements the structural vocabulary cannot express: string
// lengths and formats, numeric ranges, array bounds, and cross-field
// predicates. A schema handed to Builder.Input or Builder.Returns is
// translated to its structural shape for the host, while the refinements
// run as a hook against the raw value on every invocation.
//
//	q := compose.Query().Input(schema.Object(
//	    schema.F("count", schema.Int().Min(1)),
//	    schema.Opt("note", schema.String().MaxLen(280)),
//	))
//
// The dialect is consumed through duck typing: schemas implement
// compose.SpecProvider and compose.Refiner, so the builder never depends on
// this package.
package schema

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/bjaus/compose"
)

// Schema is a validator carrying both a structural shape and optional
// refinements. The implementation set is closed; build schemas with the
// constructors in this package.
type Schema interface {
	compose.SpecProvider
	compose.Refiner

	refine(v gjson.Result, path string) error
}

// refineTopLevel backs every Refine implementation. Refinement runs after
// structural validation, so the value is assumed to be well-formed JSON of
// the right shape; the guard is for direct misuse only.
func refineTopLevel(s Schema, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if !gjson.ValidBytes(raw) {
		return compose.ErrInvalidJSON
	}
	return s.refine(gjson.ParseBytes(raw), "")
}

func displayPath(path string) string {
	if path == "" {
		return "value"
	}
	return path
}

func childPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
