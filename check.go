package compose

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when an input is not valid JSON at all.
var ErrInvalidJSON = errors.New("invalid JSON")

// checkTopLevel is the shared entry point behind every Spec.Check. Empty
// input is treated as JSON null so handlers taking no arguments can be
// invoked with nil.
func checkTopLevel(s Spec, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if !gjson.ValidBytes(raw) {
		return ErrInvalidJSON
	}
	return s.check(gjson.ParseBytes(raw), "")
}

func (s objectSpec) Check(raw json.RawMessage) error { return checkTopLevel(s, raw) }
func (s stringSpec) Check(raw json.RawMessage) error { return checkTopLevel(s, raw) }
func (s numberSpec) Check(raw json.RawMessage) error { return checkTopLevel(s, raw) }
func (s intSpec) Check(raw json.RawMessage) error    { return checkTopLevel(s, raw) }
func (s boolSpec) Check(raw json.RawMessage) error   { return checkTopLevel(s, raw) }
func (s nullSpec) Check(raw json.RawMessage) error   { return checkTopLevel(s, raw) }
func (s anySpec) Check(raw json.RawMessage) error    { return checkTopLevel(s, raw) }
func (s arraySpec) Check(raw json.RawMessage) error  { return checkTopLevel(s, raw) }
func (s unionSpec) Check(raw json.RawMessage) error  { return checkTopLevel(s, raw) }

func (s objectSpec) check(v gjson.Result, path string) error {
	if !v.IsObject() {
		return mismatch(path, "object", v)
	}
	members := v.Map()
	declared := make(map[string]bool, len(s.fields))
	for _, f := range s.fields {
		declared[f.Name] = true
		fv, ok := members[f.Name]
		if !ok {
			if f.Optional {
				continue
			}
			return fmt.Errorf("%s: missing required field %q", displayPath(path), f.Name)
		}
		if err := f.Spec.check(fv, childPath(path, f.Name)); err != nil {
			return err
		}
	}
	for name := range members {
		if !declared[name] {
			return fmt.Errorf("%s: unknown field %q", displayPath(path), name)
		}
	}
	return nil
}

func (stringSpec) check(v gjson.Result, path string) error {
	if v.Type != gjson.String {
		return mismatch(path, "string", v)
	}
	return nil
}

func (numberSpec) check(v gjson.Result, path string) error {
	if v.Type != gjson.Number {
		return mismatch(path, "number", v)
	}
	return nil
}

func (intSpec) check(v gjson.Result, path string) error {
	if v.Type != gjson.Number {
		return mismatch(path, "integer", v)
	}
	if math.Trunc(v.Num) != v.Num {
		return fmt.Errorf("%s: expected integer, got %v", displayPath(path), v.Num)
	}
	return nil
}

func (boolSpec) check(v gjson.Result, path string) error {
	if v.Type != gjson.True && v.Type != gjson.False {
		return mismatch(path, "boolean", v)
	}
	return nil
}

func (nullSpec) check(v gjson.Result, path string) error {
	if v.Type != gjson.Null {
		return mismatch(path, "null", v)
	}
	return nil
}

func (anySpec) check(v gjson.Result, path string) error {
	return nil
}

func (s arraySpec) check(v gjson.Result, path string) error {
	if !v.IsArray() {
		return mismatch(path, "array", v)
	}
	var err error
	i := 0
	v.ForEach(func(_, item gjson.Result) bool {
		err = s.elem.check(item, fmt.Sprintf("%s[%d]", path, i))
		i++
		return err == nil
	})
	return err
}

func (s unionSpec) check(v gjson.Result, path string) error {
	for _, alt := range s.alts {
		if alt.check(v, path) == nil {
			return nil
		}
	}
	return fmt.Errorf("%s: no union alternative matched %s", displayPath(path), typeName(v))
}

func mismatch(path, want string, v gjson.Result) error {
	return fmt.Errorf("%s: expected %s, got %s", displayPath(path), want, typeName(v))
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

// typeName describes a gjson value for error messages.
func typeName(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	case gjson.JSON:
		if v.IsArray() {
			return "array"
		}
		return "object"
	default:
		return "unknown"
	}
}
