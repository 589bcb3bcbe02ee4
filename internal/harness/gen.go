package harness

import (
	"bufio"
	"bytes"
	"io"
	"math/rand/v2"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/reoring/prunejson"
)

// GenConfig shapes a synthetic dataset.
type GenConfig struct {
	Schema prunejson.Node
	Rows   int
	// Bad is how many of the rows carry a malformed record.
	Bad int
	// Column wraps every record as a JSON string in a one-field object
	// under this name. Empty writes the records themselves.
	Column      string
	Compression string
	Seed        uint64
	// MaxListLen bounds generated list lengths; zero means 3.
	MaxListLen int
}

var badRecords = []string{
	"not-json",
	`{"truncated":`,
	`[1,2,3]`,
	`{"a":"b"} trailing`,
	`{"a":"b",}`,
}

// Generate writes cfg.Rows synthetic records shaped after cfg.Schema to w.
// Optional fields are sometimes missing or null, leaves hold a mix of string
// and number text, and cfg.Bad rows at random positions are malformed.
func Generate(w io.Writer, cfg GenConfig) error {
	if cfg.Schema == nil {
		return errors.New("harness: no schema")
	}
	if cfg.Rows < 0 || cfg.Bad < 0 {
		return errors.Errorf("rows (%d) and bad rows (%d) must not be negative", cfg.Rows, cfg.Bad)
	}
	if cfg.Bad > cfg.Rows {
		return errors.Errorf("bad rows (%d) exceed rows (%d)", cfg.Bad, cfg.Rows)
	}
	if cfg.MaxListLen <= 0 {
		cfg.MaxListLen = 3
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	bad := make(map[int]bool, cfg.Bad)
	for _, i := range rng.Perm(cfg.Rows)[:cfg.Bad] {
		bad[i] = true
	}

	cw, err := Compressor(w, cfg.Compression)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(cw)
	g := &generator{rng: rng, maxList: cfg.MaxListLen}
	var rec []byte
	for i := 0; i < cfg.Rows; i++ {
		rec = rec[:0]
		if bad[i] {
			rec = append(rec, badRecords[rng.IntN(len(badRecords))]...)
		} else {
			rec = g.value(rec, cfg.Schema)
		}
		if cfg.Column != "" {
			rec, err = wrap(rec, cfg.Column)
			if err != nil {
				return err
			}
		}
		if _, err := bw.Write(rec); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return cw.Close()
}

// GenerateFile writes a dataset to path. An empty cfg.Compression is taken
// from the file suffix.
func GenerateFile(path string, cfg GenConfig) (err error) {
	if cfg.Compression == "" {
		cfg.Compression = Compression(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "closing %s", path)
		}
	}()
	if err := Generate(f, cfg); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func wrap(rec []byte, column string) ([]byte, error) {
	name, err := json.Marshal(column)
	if err != nil {
		return nil, err
	}
	val, err := json.Marshal(string(rec))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(name)+len(val)+3)
	out = append(out, '{')
	out = append(out, name...)
	out = append(out, ':')
	out = append(out, val...)
	return append(out, '}'), nil
}

type generator struct {
	rng     *rand.Rand
	maxList int
	buf     bytes.Buffer
}

func (g *generator) value(dst []byte, n prunejson.Node) []byte {
	switch n := n.(type) {
	case *prunejson.Scalar:
		return g.leaf(dst)
	case *prunejson.List:
		dst = append(dst, '[')
		for i, k := 0, g.rng.IntN(g.maxList+1); i < k; i++ {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = g.value(dst, n.Elem())
		}
		return append(dst, ']')
	case *prunejson.Object:
		dst = append(dst, '{')
		first := true
		for _, f := range n.Fields() {
			p := g.rng.IntN(20)
			if p == 0 {
				continue // missing
			}
			if !first {
				dst = append(dst, ',')
			}
			first = false
			name, _ := json.Marshal(f.Name)
			dst = append(dst, name...)
			dst = append(dst, ':')
			if p == 1 {
				dst = append(dst, "null"...)
				continue
			}
			dst = g.value(dst, f.Node)
		}
		return append(dst, '}')
	}
	return append(dst, "null"...)
}

const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (g *generator) leaf(dst []byte) []byte {
	if g.rng.IntN(4) == 0 {
		return strconv.AppendInt(dst, g.rng.Int64N(1_000_000), 10)
	}
	g.buf.Reset()
	for i, k := 0, 4+g.rng.IntN(12); i < k; i++ {
		g.buf.WriteByte(alnum[g.rng.IntN(len(alnum))])
	}
	if g.rng.IntN(16) == 0 {
		g.buf.WriteString(" \"q\"\t\\")
	}
	s, _ := json.Marshal(g.buf.String())
	return append(dst, s...)
}
