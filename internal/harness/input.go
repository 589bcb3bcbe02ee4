// Package harness loads benchmark input, times decodes and reports
// throughput. None of it is needed to use the decoder itself.
package harness

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/reoring/prunejson"
)

// ErrNoInput is returned when a data directory holds no input files.
var ErrNoInput = errors.New("no input files found")

var dataExts = []string{".ndjson", ".jsonl", ".json"}

// Compression names accepted by Compression and the gen command.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionGzip = "gzip"
	CompressionLZ4  = "lz4"
	CompressionS2   = "s2"
)

var compressionExts = map[string]string{
	".zst": CompressionZstd,
	".gz":  CompressionGzip,
	".lz4": CompressionLZ4,
	".s2":  CompressionS2,
}

// Compression infers the compression of a file from its name.
func Compression(path string) string {
	if c, ok := compressionExts[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}
	return CompressionNone
}

// Ext returns the file suffix for a compression name.
func Ext(compression string) string {
	for ext, c := range compressionExts {
		if c == compression {
			return ext
		}
	}
	return ""
}

// Discover lists data files in dir, sorted by name, keeping at most limit
// of them (limit <= 0 keeps all).
func Discover(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading data directory %s", dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if Compression(name) == CompressionNone {
			base = name
		}
		for _, ext := range dataExts {
			if strings.HasSuffix(strings.ToLower(base), ext) {
				files = append(files, filepath.Join(dir, name))
				break
			}
		}
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrNoInput, "in %s", dir)
	}
	sort.Strings(files)
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// ReadFile reads a data file, decompressing it according to its suffix.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	r, closeFn, err := Decompressor(f, Compression(path))
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing %s", path)
	}
	defer closeFn()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return data, nil
}

// Decompressor wraps r for the given compression. The returned func releases
// decoder resources.
func Decompressor(r io.Reader, compression string) (io.Reader, func(), error) {
	switch compression {
	case CompressionNone, "":
		return r, func() {}, nil
	case CompressionZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	case CompressionGzip:
		g, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	case CompressionS2:
		return s2.NewReader(r), func() {}, nil
	}
	return nil, nil, errors.Errorf("unknown compression %q", compression)
}

// Compressor wraps w for the given compression. Close the returned writer to
// flush it; w itself is left open.
func Compressor(w io.Writer, compression string) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone, "":
		return nopCloser{w}, nil
	case CompressionZstd:
		return zstd.NewWriter(w)
	case CompressionGzip:
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionS2:
		return s2.NewWriter(w), nil
	}
	return nil, errors.Errorf("unknown compression %q", compression)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// ExtractColumn reads wrapper rows (one JSON object per line) and returns the
// string field column of each. A missing or null field yields a nil record;
// any other non-string value is an error.
func ExtractColumn(data []byte, column string) ([][]byte, error) {
	var (
		p   fastjson.Parser
		out [][]byte
	)
	line := 0
	for len(data) > 0 {
		var raw []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			raw, data = data[:i], data[i+1:]
		} else {
			raw, data = data, nil
		}
		line++
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		v, err := p.ParseBytes(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "wrapper row %d", line)
		}
		f := v.Get(column)
		if f == nil || f.Type() == fastjson.TypeNull {
			out = append(out, nil)
			continue
		}
		s, err := f.StringBytes()
		if err != nil {
			return nil, errors.Wrapf(err, "wrapper row %d: column %q", line, column)
		}
		out = append(out, append([]byte{}, s...))
	}
	return out, nil
}

// Input is the in-memory NDJSON buffer handed to the decoder.
type Input struct {
	Files   []string
	Records int
	Data    []byte
}

// LoadConfig selects and shapes benchmark input.
type LoadConfig struct {
	Dir      string
	MaxFiles int
	// Column names the string field holding one JSON record per wrapper row.
	// Empty means the files are already the NDJSON records.
	Column string
}

// Load discovers, reads and joins input files into one NDJSON buffer. In
// column mode the newline contract is checked before joining and violations
// fail with *prunejson.MalformedInputError.
func Load(cfg LoadConfig) (*Input, error) {
	files, err := Discover(cfg.Dir, cfg.MaxFiles)
	if err != nil {
		return nil, err
	}
	in := &Input{Files: files}
	var records [][]byte
	for _, f := range files {
		data, err := ReadFile(f)
		if err != nil {
			return nil, err
		}
		if cfg.Column == "" {
			data = bytes.TrimRight(data, "\n")
			if len(data) == 0 {
				continue
			}
			in.Records += bytes.Count(data, []byte{'\n'}) + 1
			records = append(records, data)
			continue
		}
		recs, err := ExtractColumn(data, cfg.Column)
		if err != nil {
			return nil, errors.Wrapf(err, "extracting %q from %s", cfg.Column, f)
		}
		if err := prunejson.CheckRecords(recs); err != nil {
			return nil, errors.Wrapf(err, "%s", f)
		}
		in.Records += len(recs)
		records = append(records, recs...)
	}
	if cfg.Column == "" {
		// whole files are joined; their own newlines are the separators
		in.Data = bytes.Join(records, []byte{'\n'})
		return in, nil
	}
	in.Data, err = prunejson.JoinRecords(records)
	if err != nil {
		return nil, err
	}
	return in, nil
}
