package prunejson

import (
	"bytes"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/reoring/prunejson/internal/columnar"
	eng "github.com/reoring/prunejson/internal/engine"
)

// Result is the outcome of one Decode call.
type Result struct {
	Batch   *ColumnBatch
	Rows    int        // lines decoded into the batch.
	Skipped int        // malformed lines left out of the batch.
	Blank   int        // empty or whitespace-only lines, neither rows nor skips.
	Lines   int        // all lines seen.
	Bytes   int64      // size of the input buffer.
	Issues  LineIssues // the first skipped lines, in input order.
}

// Err returns the reported skipped lines as an error, or nil when every line
// decoded. It never affects the batch.
func (r *Result) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}
	return r.Issues
}

// Release frees the batch.
func (r *Result) Release() {
	if r.Batch != nil {
		r.Batch.Release()
	}
}

// Decode parses an NDJSON buffer against schema and returns the projected
// columns. Keys outside the schema are skipped; schema fields missing from a
// line, or null in it, become null cells. Scalar leaves keep the literal text
// of numbers and booleans.
//
// A line that is not valid JSON, is not an object, or does not match the
// schema's shape is skipped and counted in Result.Skipped; decoding carries
// on with the next line. Only setup problems (nil schema, unknown driver)
// return an error.
//
// data must not be modified until Decode returns. Lines are sliced out of it
// in place.
func Decode(data []byte, schema *CompiledSchema, opts ...DecodeOption) (*Result, error) {
	if schema == nil {
		return nil, &SchemaDefinitionError{Reason: "compiled schema is nil"}
	}
	cfg := newDecodeConfig(opts)
	factory, err := lookupDriver(cfg.driver)
	if err != nil {
		return nil, err
	}
	enf := enforceOptions(cfg)

	chunks := splitChunks(data, cfg.workers, cfg.minChunkBytes)
	parts := make([]chunkResult, len(chunks))
	if len(chunks) == 1 {
		parts[0] = decodeChunk(chunks[0], schema, factory, enf, cfg)
	} else {
		var wg sync.WaitGroup
		for i, c := range chunks {
			wg.Go(func() {
				parts[i] = decodeChunk(c, schema, factory, enf, cfg)
			})
		}
		wg.Wait()
	}

	res := &Result{Bytes: int64(len(data))}
	recs := make([]arrow.Record, len(parts))
	for i, p := range parts {
		for _, is := range p.issues {
			if len(res.Issues) < cfg.maxIssues {
				is.Line += res.Lines
				res.Issues = append(res.Issues, is)
			}
		}
		res.Rows += p.rows
		res.Skipped += p.skipped
		res.Blank += p.blank
		res.Lines += p.lines
		recs[i] = p.rec
	}
	rec, err := columnar.Concat(cfg.mem, schema.arrow, recs)
	for _, r := range recs {
		r.Release()
	}
	if err != nil {
		return nil, err
	}
	res.Batch = newColumnBatch(rec, schema)
	return res, nil
}

type chunk struct {
	data   []byte
	offset int64
}

type chunkResult struct {
	rec     arrow.Record
	rows    int
	skipped int
	blank   int
	lines   int
	issues  []LineIssue
}

// splitChunks cuts data into at most n line-aligned pieces of at least
// minBytes each (the last one may be shorter).
func splitChunks(data []byte, n, minBytes int) []chunk {
	n = max(1, min(n, len(data)/minBytes))
	chunks := make([]chunk, 0, n)
	start := 0
	for k := 1; k < n; k++ {
		cut := len(data) / n * k
		if cut < start {
			continue
		}
		j := bytes.IndexByte(data[cut:], '\n')
		if j < 0 {
			break
		}
		end := cut + j + 1
		chunks = append(chunks, chunk{data: data[start:end], offset: int64(start)})
		start = end
	}
	if start < len(data) || len(chunks) == 0 {
		chunks = append(chunks, chunk{data: data[start:], offset: int64(start)})
	}
	return chunks
}

func decodeChunk(c chunk, schema *CompiledSchema, factory driverFactory, enf eng.EnforceOptions, cfg decodeConfig) chunkResult {
	dec := factory(schema.plan, enf)
	app := columnar.NewAppender(cfg.mem, schema.arrow, schema.plan)
	defer app.Release()

	var res chunkResult
	buf, off := c.data, c.offset
	for len(buf) > 0 {
		line, next := buf, len(buf)
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			line, next = buf[:i], i+1
		}
		lineOff := off
		buf, off = buf[next:], off+int64(next)
		res.lines++

		line = bytes.TrimSuffix(line, []byte{'\r'})
		if isBlank(line) {
			res.blank++
			continue
		}
		row, err := dec.DecodeLine(line)
		if err != nil {
			res.skipped++
			if len(res.issues) < cfg.maxIssues {
				res.issues = append(res.issues, lineIssueFrom(err, res.lines, lineOff))
			}
			continue
		}
		app.Append(row)
	}
	res.rows = app.Rows()
	res.rec = app.NewRecord()
	return res
}

func isBlank(line []byte) bool {
	for _, c := range line {
		switch c {
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return true
}
