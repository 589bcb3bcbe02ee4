package harness

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reoring/prunejson"
	"github.com/reoring/prunejson/internal/wm"
)

func TestCompressionRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("{\"a\":\"hello\"}\n"), 500)
	for _, c := range []string{CompressionNone, CompressionZstd, CompressionGzip, CompressionLZ4, CompressionS2} {
		t.Run(c, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := Compressor(&buf, c)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, release, err := Decompressor(&buf, c)
			require.NoError(t, err)
			defer release()
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, payload, got)
		})
	}

	_, err := Compressor(io.Discard, "brotli")
	require.Error(t, err)
	_, _, err = Decompressor(strings.NewReader(""), "brotli")
	require.Error(t, err)
}

func TestCompressionFromName(t *testing.T) {
	require.Equal(t, CompressionZstd, Compression("part-0.ndjson.zst"))
	require.Equal(t, CompressionGzip, Compression("x.JSONL.GZ"))
	require.Equal(t, CompressionNone, Compression("x.ndjson"))
	require.Equal(t, ".lz4", Ext(CompressionLZ4))
	require.Equal(t, "", Ext(CompressionNone))
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.ndjson", "a.jsonl.zst", "c.json.gz", "notes.txt", "d.parquet"} {
		writeFile(t, filepath.Join(dir, name), nil)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.ndjson"), 0o755))

	files, err := Discover(dir, 0)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	require.Equal(t, []string{"a.jsonl.zst", "b.ndjson", "c.json.gz"}, names)

	files, err = Discover(dir, 2)
	require.NoError(t, err)
	require.Len(t, files, 2)

	_, err = Discover(t.TempDir(), 0)
	require.ErrorIs(t, err, ErrNoInput)
}

func TestExtractColumn(t *testing.T) {
	data := []byte("{\"columnC\":\"{\\\"a\\\":\\\"1\\\"}\",\"other\":5}\n\n{\"columnC\":null}\n{\"x\":1}\n")
	recs, err := ExtractColumn(data, "columnC")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, `{"a":"1"}`, string(recs[0]))
	require.Nil(t, recs[1])
	require.Nil(t, recs[2])

	_, err = ExtractColumn([]byte(`{"columnC":5}`), "columnC")
	require.ErrorContains(t, err, "wrapper row 1")
	_, err = ExtractColumn([]byte("{}\nnope"), "columnC")
	require.ErrorContains(t, err, "wrapper row 2")
}

func TestLoad_ColumnMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part-0.ndjson.zst")
	require.NoError(t, GenerateFile(path, GenConfig{
		Schema: wm.Schema(), Rows: 50, Bad: 5, Column: "columnC", Seed: 3,
	}))

	in, err := Load(LoadConfig{Dir: dir, Column: "columnC"})
	require.NoError(t, err)
	require.Equal(t, 50, in.Records)
	require.Equal(t, 49, bytes.Count(in.Data, []byte{'\n'}))

	cs := prunejson.MustCompile(prunejson.Prune(wm.Schema(), 10))
	res, err := prunejson.Decode(in.Data, cs)
	require.NoError(t, err)
	defer res.Release()
	require.Equal(t, 45, res.Rows)
	require.Equal(t, 5, res.Skipped)
}

func TestLoad_RawMode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.ndjson"), []byte("{\"a\":\"1\"}\n{\"a\":\"2\"}\n"))
	writeFile(t, filepath.Join(dir, "b.ndjson"), []byte("{\"a\":\"3\"}"))
	writeFile(t, filepath.Join(dir, "c.ndjson"), []byte("\n"))

	in, err := Load(LoadConfig{Dir: dir})
	require.NoError(t, err)
	require.Equal(t, 3, in.Records)
	require.Equal(t, "{\"a\":\"1\"}\n{\"a\":\"2\"}\n{\"a\":\"3\"}", string(in.Data))
}

func TestLoad_NewlineInRecord(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.ndjson"), []byte(`{"columnC":"{\"a\":\n\"1\"}"}`+"\n"))

	_, err := Load(LoadConfig{Dir: dir, Column: "columnC"})
	require.ErrorIs(t, err, prunejson.ErrMalformedInput)
}

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, GenConfig{Schema: wm.Schema(), Rows: 120, Bad: 4, Seed: 11}))

	rep, err := Run(buf.Bytes(), Config{Schema: wm.Schema(), Budget: 5, Workers: 2})
	require.NoError(t, err)
	require.Equal(t, 116, rep.Rows)
	require.Equal(t, 4, rep.Skipped)
	require.Equal(t, 5, rep.Leaves)
	require.Equal(t, int64(buf.Len()), rep.Bytes)
	require.Len(t, rep.Issues, 4)

	var out bytes.Buffer
	_, err = rep.WriteTo(&out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "seconds ---")
	require.Contains(t, out.String(), "GB/s")
	require.Contains(t, out.String(), "Skipped: 4")

	_, err = Run(buf.Bytes(), Config{})
	require.Error(t, err)
	_, err = Run(buf.Bytes(), Config{Schema: wm.Schema(), Driver: "nope"})
	require.Error(t, err)
}

func TestReportThroughput(t *testing.T) {
	r := Report{Elapsed: 2 * time.Second, Bytes: 4 << 30}
	require.InDelta(t, 2.0, r.Throughput(), 1e-9)
	require.Zero(t, Report{Bytes: 10}.Throughput())
}

func TestGenerate(t *testing.T) {
	var a, b bytes.Buffer
	cfg := GenConfig{Schema: wm.Schema(), Rows: 20, Bad: 2, Column: "columnC", Seed: 5}
	require.NoError(t, Generate(&a, cfg))
	require.NoError(t, Generate(&b, cfg))
	require.Equal(t, a.String(), b.String(), "same seed, same output")
	require.Equal(t, 20, bytes.Count(a.Bytes(), []byte{'\n'}))

	recs, err := ExtractColumn(a.Bytes(), "columnC")
	require.NoError(t, err)
	require.Len(t, recs, 20)
	require.NoError(t, prunejson.CheckRecords(recs))

	require.Error(t, Generate(io.Discard, GenConfig{Schema: wm.Schema(), Rows: 1, Bad: 2}))
	require.Error(t, Generate(io.Discard, GenConfig{Rows: 1}))
	require.ErrorContains(t, Generate(io.Discard, GenConfig{Schema: wm.Schema(), Rows: -1}), "negative")
	require.ErrorContains(t, Generate(io.Discard, GenConfig{Schema: wm.Schema(), Rows: 3, Bad: -1}), "negative")
}

func TestLoadSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	writeFile(t, path, wm.YAML())
	n, err := LoadSchemaFile(path)
	require.NoError(t, err)
	require.True(t, prunejson.Equal(wm.Schema(), n))

	writeFile(t, path, []byte("a: [string, string]"))
	_, err = LoadSchemaFile(path)
	require.ErrorIs(t, err, prunejson.ErrSchemaDefinition)
}
