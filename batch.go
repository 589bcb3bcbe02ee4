package prunejson

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/reoring/prunejson/internal/columnar"
)

// ColumnBatch is the decoded, columnar form of an NDJSON buffer: one Arrow
// column per top-level schema field, all with the same number of rows. Row i
// holds the i-th line that decoded successfully.
//
// The batch owns Arrow memory; call Release when done with it.
type ColumnBatch struct {
	rec    arrow.Record
	schema *CompiledSchema
	index  map[string]int
}

func newColumnBatch(rec arrow.Record, schema *CompiledSchema) *ColumnBatch {
	idx := make(map[string]int, len(schema.columns))
	for i, c := range schema.columns {
		idx[c.Name] = i
	}
	return &ColumnBatch{rec: rec, schema: schema, index: idx}
}

// NumRows returns the number of decoded rows.
func (b *ColumnBatch) NumRows() int { return int(b.rec.NumRows()) }

// NumColumns returns the number of top-level columns.
func (b *ColumnBatch) NumColumns() int { return int(b.rec.NumCols()) }

// Schema returns the compiled schema the batch was decoded with.
func (b *ColumnBatch) Schema() *CompiledSchema { return b.schema }

// Record exposes the underlying Arrow record. It stays owned by the batch.
func (b *ColumnBatch) Record() arrow.Record { return b.rec }

// ColumnNames returns the top-level column names in order.
func (b *ColumnBatch) ColumnNames() []string {
	out := make([]string, len(b.schema.columns))
	for i, c := range b.schema.columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the Arrow array of a top-level column.
func (b *ColumnBatch) Column(name string) (arrow.Array, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.rec.Column(i), true
}

// Value returns one cell as plain Go values: nil for null, string for leaves,
// []any for lists and map[string]any for structs.
func (b *ColumnBatch) Value(name string, row int) (any, bool) {
	col, ok := b.Column(name)
	if !ok || row < 0 || row >= col.Len() {
		return nil, false
	}
	return columnar.ValueAt(col, row), true
}

// Row returns every top-level cell of one row keyed by column name.
func (b *ColumnBatch) Row(row int) map[string]any {
	out := make(map[string]any, len(b.schema.columns))
	for i, c := range b.schema.columns {
		out[c.Name] = columnar.ValueAt(b.rec.Column(i), row)
	}
	return out
}

// Release frees the Arrow memory held by the batch.
func (b *ColumnBatch) Release() {
	if b.rec != nil {
		b.rec.Release()
		b.rec = nil
	}
}
