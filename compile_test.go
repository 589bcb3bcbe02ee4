package prunejson_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/require"

	"github.com/reoring/prunejson"
	"github.com/reoring/prunejson/internal/wm"
)

func TestCompile_Columns(t *testing.T) {
	cs, err := prunejson.Compile(sampleTree())
	require.NoError(t, err)
	require.Equal(t, 3, cs.NumColumns())

	cols := cs.Columns()
	require.Equal(t, "a", cols[0].Name)
	require.Equal(t, prunejson.StringType{}, cols[0].Type)
	require.Equal(t, `struct<"c": string, "d": list<struct<"e": string, "f": string>>>`, cols[1].Type.String())
	require.Equal(t, "list<string>", cols[2].Type.String())

	st, ok := cols[1].Type.(prunejson.StructType)
	require.True(t, ok)
	require.Equal(t, "b.d", st.Fields[1].Path)

	require.Equal(t, []string{"a", "b.c", "b.d[].e", "b.d[].f", "g[]"}, cs.LeafPaths())
}

func TestCompile_ArrowSchema(t *testing.T) {
	cs := prunejson.MustCompile(sampleTree())
	s := cs.Arrow()
	require.Equal(t, 3, s.NumFields())

	a := s.Field(0)
	require.Equal(t, "a", a.Name)
	require.True(t, a.Nullable)
	require.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, a.Type))

	want := arrow.StructOf(
		arrow.Field{Name: "c", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "d", Type: arrow.ListOf(arrow.StructOf(
			arrow.Field{Name: "e", Type: arrow.BinaryTypes.String, Nullable: true},
			arrow.Field{Name: "f", Type: arrow.BinaryTypes.String, Nullable: true},
		)), Nullable: true},
	)
	require.True(t, arrow.TypeEqual(want, s.Field(1).Type), "got %s", s.Field(1).Type)
	require.True(t, arrow.TypeEqual(arrow.ListOf(arrow.BinaryTypes.String), s.Field(2).Type))
}

func TestCompile_Deterministic(t *testing.T) {
	for _, b := range []prunejson.Budget{1, 7, 20, prunejson.Unlimited} {
		a := prunejson.MustCompile(prunejson.Prune(wm.Schema(), b))
		c := prunejson.MustCompile(prunejson.Prune(wm.Schema(), b))
		require.Equal(t, a.String(), c.String())
		require.Equal(t, a.Fingerprint(), c.Fingerprint())
		require.True(t, a.Arrow().Equal(c.Arrow()))
	}
}

func TestCompile_FingerprintTracksShape(t *testing.T) {
	a := prunejson.MustCompile(prunejson.Prune(wm.Schema(), 3))
	b := prunejson.MustCompile(prunejson.Prune(wm.Schema(), 4))
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	require.NotEqual(t, a.String(), b.String())
}

func TestCompile_NonObjectRoot(t *testing.T) {
	cs, err := prunejson.Compile(prunejson.MustList(prunejson.String()))
	require.NoError(t, err)
	require.Equal(t, 1, cs.NumColumns())
	require.Equal(t, prunejson.RootColumn, cs.Columns()[0].Name)
	require.Equal(t, "list<string>", cs.Columns()[0].Type.String())
}

func TestCompile_Errors(t *testing.T) {
	_, err := prunejson.Compile(nil)
	require.ErrorIs(t, err, prunejson.ErrSchemaDefinition)

	// a zero List has no element type
	_, err = prunejson.Compile(prunejson.MustObject(prunejson.F("l", &prunejson.List{})))
	require.ErrorIs(t, err, prunejson.ErrSchemaDefinition)

	require.Panics(t, func() { prunejson.MustCompile(nil) })
}

func TestCompile_EmptyObject(t *testing.T) {
	cs, err := prunejson.Compile(prunejson.MustObject())
	require.NoError(t, err)
	require.Equal(t, 0, cs.NumColumns())
	require.Empty(t, cs.LeafPaths())
}
