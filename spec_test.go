package compose

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
)

type SpecCheckSuite struct {
	suite.Suite
}

func TestSpecCheckSuite(t *testing.T) {
	suite.Run(t, new(SpecCheckSuite))
}

func (s *SpecCheckSuite) TestScalars() {
	tests := map[string]struct {
		spec Spec
		raw  string
		ok   bool
	}{
		"string accepts string":   {String(), `"hi"`, true},
		"string rejects number":   {String(), `3`, false},
		"number accepts float":    {Number(), `3.5`, true},
		"number rejects string":   {Number(), `"3.5"`, false},
		"int accepts integer":     {Int(), `3`, true},
		"int rejects fraction":    {Int(), `3.5`, false},
		"bool accepts true":       {Bool(), `true`, true},
		"bool accepts false":      {Bool(), `false`, true},
		"bool rejects null":       {Bool(), `null`, false},
		"null accepts null":       {Null(), `null`, true},
		"null rejects zero":       {Null(), `0`, false},
		"any accepts object":      {Any(), `{"x": 1}`, true},
		"any accepts empty input": {Any(), ``, true},
	}

	for name, tt := range tests {
		s.Run(name, func() {
			err := tt.spec.Check([]byte(tt.raw))
			if tt.ok {
				s.NoError(err)
			} else {
				s.Error(err)
			}
		})
	}
}

func (s *SpecCheckSuite) TestObject() {
	spec := Object(
		F("name", String()),
		Opt("age", Int()),
	)

	tests := map[string]struct {
		raw string
		ok  bool
	}{
		"all fields":             {`{"name": "alice", "age": 30}`, true},
		"optional absent":        {`{"name": "alice"}`, true},
		"required absent":        {`{"age": 30}`, false},
		"wrong field type":       {`{"name": 5}`, false},
		"wrong optional type":    {`{"name": "alice", "age": "old"}`, false},
		"unknown field rejected": {`{"name": "alice", "extra": 1}`, false},
		"not an object":          {`[1, 2]`, false},
		"invalid JSON":           {`{name}`, false},
	}

	for name, tt := range tests {
		s.Run(name, func() {
			err := spec.Check([]byte(tt.raw))
			if tt.ok {
				s.NoError(err)
			} else {
				s.Error(err)
			}
		})
	}
}

func (s *SpecCheckSuite) TestNestedPathInError() {
	spec := Object(F("user", Object(F("name", String()))))

	err := spec.Check([]byte(`{"user": {"name": 7}}`))
	s.Require().Error(err)
	s.Contains(err.Error(), "user.name")
}

func (s *SpecCheckSuite) TestArray() {
	spec := Array(Int())

	s.NoError(spec.Check([]byte(`[1, 2, 3]`)))
	s.NoError(spec.Check([]byte(`[]`)))
	s.Error(spec.Check([]byte(`[1, "two"]`)))
	s.Error(spec.Check([]byte(`{"0": 1}`)))

	err := spec.Check([]byte(`[1, 2, "three"]`))
	s.Require().Error(err)
	s.Contains(err.Error(), "[2]")
}

func (s *SpecCheckSuite) TestUnion() {
	spec := Union(String(), Null())

	s.NoError(spec.Check([]byte(`"hi"`)))
	s.NoError(spec.Check([]byte(`null`)))
	s.Error(spec.Check([]byte(`5`)))
}

func (s *SpecCheckSuite) TestEmptyInputIsNull() {
	s.NoError(Null().Check(nil))
	s.Error(String().Check(nil))
}

func (s *SpecCheckSuite) TestInvalidJSONSentinel() {
	err := String().Check([]byte(`{oops`))
	s.ErrorIs(err, ErrInvalidJSON)
}

func TestSpecJSON(t *testing.T) {
	spec := Object(
		F("count", Int()),
		Opt("tags", Array(String())),
	)

	raw, err := SpecJSON(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("spec JSON unparseable: %v", err)
	}

	want := map[string]any{
		"type": "object",
		"fields": []any{
			map[string]any{
				"name": "count",
				"spec": map[string]any{"type": "integer"},
			},
			map[string]any{
				"name":     "tags",
				"optional": true,
				"spec": map[string]any{
					"type": "array",
					"of":   map[string]any{"type": "string"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spec JSON mismatch (-want +got):\n%s", diff)
	}
}
