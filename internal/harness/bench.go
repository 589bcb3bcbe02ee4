package harness

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/reoring/prunejson"
)

// Config describes one timed decode.
type Config struct {
	Schema prunejson.Node
	// Budget <= 0 keeps every leaf; Workers <= 0 uses GOMAXPROCS.
	Budget    prunejson.Budget
	Workers   int
	Driver    string
	MaxIssues int
}

// Report is the outcome of Run.
type Report struct {
	Elapsed     time.Duration
	Bytes       int64
	Rows        int
	Skipped     int
	Blank       int
	Columns     int
	Leaves      int
	Fingerprint uint64
	Issues      prunejson.LineIssues
}

const gib = 1 << 30

// Throughput returns decoded input per second in GiB, the unit the
// benchmark has always reported as GB/s.
func (r Report) Throughput() float64 {
	s := r.Elapsed.Seconds()
	if s <= 0 {
		return 0
	}
	return float64(r.Bytes) / gib / s
}

// WriteTo prints the report in the benchmark's line format.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var n int64
	lines := []string{
		fmt.Sprintf("--- %.6f seconds ---", r.Elapsed.Seconds()),
		fmt.Sprintf("Throughput:  %.4f GB/s", r.Throughput()),
		fmt.Sprintf("Rows: %d  Skipped: %d  Blank: %d", r.Rows, r.Skipped, r.Blank),
		fmt.Sprintf("Columns: %d  Leaves: %d  Schema: %016x", r.Columns, r.Leaves, r.Fingerprint),
	}
	for _, is := range r.Issues {
		lines = append(lines, "  skipped "+is.String())
	}
	for _, l := range lines {
		m, err := fmt.Fprintln(w, l)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Run prunes and compiles the schema, then times a single Decode of data.
// Schema preparation is not part of the timed section.
func Run(data []byte, cfg Config) (*Report, error) {
	if cfg.Schema == nil {
		return nil, errors.New("harness: no schema")
	}
	cs, err := prunejson.Compile(prunejson.Prune(cfg.Schema, cfg.Budget))
	if err != nil {
		return nil, errors.Wrap(err, "compiling pruned schema")
	}
	var opts []prunejson.DecodeOption
	if cfg.Workers > 0 {
		opts = append(opts, prunejson.WithWorkers(cfg.Workers))
	}
	if cfg.Driver != "" {
		opts = append(opts, prunejson.WithDriver(cfg.Driver))
	}
	if cfg.MaxIssues > 0 {
		opts = append(opts, prunejson.WithMaxIssues(cfg.MaxIssues))
	}

	start := time.Now()
	res, err := prunejson.Decode(data, cs, opts...)
	elapsed := time.Since(start)
	if err != nil {
		return nil, errors.Wrap(err, "decoding")
	}
	defer res.Release()

	return &Report{
		Elapsed:     elapsed,
		Bytes:       res.Bytes,
		Rows:        res.Rows,
		Skipped:     res.Skipped,
		Blank:       res.Blank,
		Columns:     cs.NumColumns(),
		Leaves:      len(cs.LeafPaths()),
		Fingerprint: cs.Fingerprint(),
		Issues:      res.Issues,
	}, nil
}

// LoadSchemaFile reads a YAML or JSON schema declaration from disk.
func LoadSchemaFile(path string) (prunejson.Node, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	n, err := prunejson.ParseSchemaYAML(data)
	if err != nil {
		return nil, errors.Wrapf(err, "schema %s", path)
	}
	return n, nil
}
