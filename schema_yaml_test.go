package prunejson_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/prunejson"
)

func TestParseSchemaYAML_KeepsOrder(t *testing.T) {
	n, err := prunejson.ParseSchemaYAML([]byte(`
zeta: string
alpha:
  mid: [string]
  first: string
items:
  - id: STRING
`))
	require.NoError(t, err)
	require.Equal(t,
		`{"zeta":string,"alpha":{"mid":[string],"first":string},"items":[{"id":string}]}`,
		prunejson.Format(n))
}

func TestParseSchemaYAML_AcceptsJSON(t *testing.T) {
	n, err := prunejson.ParseSchemaYAML([]byte(`{"b": "string", "a": ["utf8"]}`))
	require.NoError(t, err)
	require.Equal(t, `{"b":string,"a":[string]}`, prunejson.Format(n))
}

func TestParseSchemaYAML_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		path string
		msg  string
	}{
		{"empty", ``, "", "empty schema document"},
		{"bad yaml", "a: [string", "", "yaml:"},
		{"two element list", "a: [string, string]", "a", "got 2"},
		{"empty list", "a: []", "a", "got 0"},
		{"unknown leaf", "a:\n  b: int64", "a.b", `unsupported leaf type "int64"`},
		{"line info", "a: string\nb: float", "b", "line 2"},
		{"duplicate key", "a: string\na: string", "", "duplicate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := prunejson.ParseSchemaYAML([]byte(tc.doc))
			require.ErrorIs(t, err, prunejson.ErrSchemaDefinition)
			require.ErrorContains(t, err, tc.msg)
			if tc.path != "" {
				var sde *prunejson.SchemaDefinitionError
				require.True(t, errors.As(err, &sde))
				require.Equal(t, tc.path, sde.Path)
			}
		})
	}
}
