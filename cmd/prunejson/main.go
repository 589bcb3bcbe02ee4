package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/reoring/prunejson"
	"github.com/reoring/prunejson/internal/harness"
	"github.com/reoring/prunejson/internal/wm"
)

var logger = log.New(os.Stderr, "prunejson: ", 0)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "bench":
		benchCmd(os.Args[2:])
	case "schema":
		schemaCmd(os.Args[2:])
	case "gen":
		genCmd(os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `prunejson: schema-pruned NDJSON decoding benchmark

Usage:
  prunejson bench -p DIR -n NUM_COLUMNS [-column columnC] [-files 8] [-raw] [-workers N] [-driver NAME] [-schema FILE] [-v]
  prunejson schema -n NUM_COLUMNS [-schema FILE] [-arrow]
  prunejson gen -o FILE [-rows N] [-bad K] [-z zstd|gzip|lz4|s2|none] [-raw]

Drivers: %s
The WM schema (%d leaves) is used unless -schema is given.
`, strings.Join(prunejson.Drivers(), ", "), wm.Leaves)
}

func fatalf(format string, a ...any) {
	logger.Printf(format, a...)
	os.Exit(1)
}

func verboseLogf(verbose bool) func(string, ...any) {
	return func(format string, a ...any) {
		if verbose {
			logger.Printf(format, a...)
		}
	}
}

func loadSchema(path string) prunejson.Node {
	if path == "" {
		return wm.Schema()
	}
	n, err := harness.LoadSchemaFile(path)
	if err != nil {
		fatalf("%v", err)
	}
	return n
}

func benchCmd(args []string) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	var (
		dir        string
		numColumns int
		column     string
		files      int
		raw        bool
		workers    int
		driver     string
		schemaPath string
		verbose    bool
	)
	fs.StringVar(&dir, "p", "", "directory holding the input files")
	fs.IntVar(&numColumns, "n", -1, "number of leaf columns to keep (<= 0 keeps all)")
	fs.StringVar(&column, "column", "columnC", "wrapper field holding one JSON record per row")
	fs.IntVar(&files, "files", 8, "read at most this many files (<= 0 reads all)")
	fs.BoolVar(&raw, "raw", false, "input files are the NDJSON records themselves")
	fs.IntVar(&workers, "workers", 0, "decode workers (0 uses GOMAXPROCS)")
	fs.StringVar(&driver, "driver", prunejson.DriverFastJSON, "JSON backend")
	fs.StringVar(&schemaPath, "schema", "", "YAML or JSON schema declaration (default: WM schema)")
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	_ = fs.Parse(args)
	if dir == "" {
		fs.Usage()
		os.Exit(2)
	}
	logf := verboseLogf(verbose)

	schema := loadSchema(schemaPath)
	cfg := harness.LoadConfig{Dir: dir, MaxFiles: files, Column: column}
	if raw {
		cfg.Column = ""
	}
	fmt.Println("Reading files from ", dir)
	in, err := harness.Load(cfg)
	if err != nil {
		fatalf("%v", err)
	}
	logf("bench: files=%d records=%d bytes=%d", len(in.Files), in.Records, len(in.Data))
	for _, f := range in.Files {
		logf("bench: input %s", f)
	}
	if numColumns > 0 {
		fmt.Println("Limiting to", numColumns, "columns")
	}

	fmt.Println("Reading JSON data")
	rep, err := harness.Run(in.Data, harness.Config{
		Schema:  schema,
		Budget:  prunejson.Budget(numColumns),
		Workers: workers,
		Driver:  driver,
	})
	if err != nil {
		fatalf("%v", err)
	}
	if _, err := rep.WriteTo(os.Stdout); err != nil {
		fatalf("%v", err)
	}
}

func schemaCmd(args []string) {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	var (
		numColumns int
		schemaPath string
		showArrow  bool
	)
	fs.IntVar(&numColumns, "n", -1, "number of leaf columns to keep (<= 0 keeps all)")
	fs.StringVar(&schemaPath, "schema", "", "YAML or JSON schema declaration (default: WM schema)")
	fs.BoolVar(&showArrow, "arrow", false, "print the Arrow schema too")
	_ = fs.Parse(args)

	cs, err := prunejson.Compile(prunejson.Prune(loadSchema(schemaPath), prunejson.Budget(numColumns)))
	if err != nil {
		fatalf("%v", err)
	}
	writeSchema(os.Stdout, cs, showArrow)
}

func writeSchema(w io.Writer, cs *prunejson.CompiledSchema, showArrow bool) {
	fmt.Fprintf(w, "fingerprint %016x\n", cs.Fingerprint())
	fmt.Fprintf(w, "%s\n", cs)
	for i, p := range cs.LeafPaths() {
		fmt.Fprintf(w, "%3d  %s\n", i+1, p)
	}
	if showArrow {
		fmt.Fprintln(w, cs.Arrow())
	}
}

func genCmd(args []string) {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	var (
		out         string
		rows        int
		bad         int
		compression string
		column      string
		raw         bool
		seed        uint64
		schemaPath  string
	)
	fs.StringVar(&out, "o", "", "output file")
	fs.IntVar(&rows, "rows", 10000, "number of rows")
	fs.IntVar(&bad, "bad", 0, "number of malformed records")
	fs.StringVar(&compression, "z", "", "compression: zstd, gzip, lz4, s2 or none (default: from -o suffix)")
	fs.StringVar(&column, "column", "columnC", "wrapper field holding the record")
	fs.BoolVar(&raw, "raw", false, "write bare NDJSON records without the wrapper")
	fs.Uint64Var(&seed, "seed", 1, "random seed")
	fs.StringVar(&schemaPath, "schema", "", "YAML or JSON schema declaration (default: WM schema)")
	_ = fs.Parse(args)
	if out == "" {
		fs.Usage()
		os.Exit(2)
	}
	if raw {
		column = ""
	}
	err := harness.GenerateFile(out, harness.GenConfig{
		Schema:      loadSchema(schemaPath),
		Rows:        rows,
		Bad:         bad,
		Column:      column,
		Compression: compression,
		Seed:        seed,
	})
	if err != nil {
		fatalf("%v", err)
	}
}
