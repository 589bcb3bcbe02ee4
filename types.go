package prunejson

import (
	"runtime"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DuplicatePolicy controls how repeated keys inside one JSON object are
// handled.
type DuplicatePolicy int

const (
	DuplicateFirstWins DuplicatePolicy = iota // Keep the first occurrence, ignore the rest.
	DuplicateReject                           // Treat the line as malformed.
)

// DefaultMaxIssues is how many skipped lines are reported individually.
const DefaultMaxIssues = 16

// DefaultMaxDepth is the container nesting limit when WithMaxDepth is not
// given. MaxDepthLimit is the highest accepted limit; encoding/json and
// go-json both stop at that depth on their own.
const (
	DefaultMaxDepth = 1000
	MaxDepthLimit   = 10000
)

// DefaultMinChunkBytes is the smallest slice of input handed to one worker.
const DefaultMinChunkBytes = 1 << 20

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	workers       int
	driver        string
	maxIssues     int
	duplicates    DuplicatePolicy
	maxDepth      int
	minChunkBytes int
	mem           memory.Allocator
}

func newDecodeConfig(opts []DecodeOption) decodeConfig {
	cfg := decodeConfig{
		workers:       runtime.GOMAXPROCS(0),
		driver:        DriverFastJSON,
		maxIssues:     DefaultMaxIssues,
		maxDepth:      DefaultMaxDepth,
		minChunkBytes: DefaultMinChunkBytes,
		mem:           memory.DefaultAllocator,
	}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	cfg.workers = max(cfg.workers, 1)
	cfg.minChunkBytes = max(cfg.minChunkBytes, 1)
	if cfg.maxDepth <= 0 {
		cfg.maxDepth = DefaultMaxDepth
	}
	cfg.maxDepth = min(cfg.maxDepth, MaxDepthLimit)
	return cfg
}

// WithWorkers sets the number of goroutines decoding in parallel. Values
// below one mean one.
func WithWorkers(n int) DecodeOption { return func(c *decodeConfig) { c.workers = n } }

// WithDriver selects the JSON backend by name; see Drivers.
func WithDriver(name string) DecodeOption { return func(c *decodeConfig) { c.driver = name } }

// WithMaxIssues caps how many skipped lines are reported in Result.Issues.
// The Skipped count is always exact. Zero disables reporting.
func WithMaxIssues(n int) DecodeOption { return func(c *decodeConfig) { c.maxIssues = max(n, 0) } }

// WithDuplicateKeys sets the duplicate key policy.
func WithDuplicateKeys(p DuplicatePolicy) DecodeOption {
	return func(c *decodeConfig) { c.duplicates = p }
}

// WithMaxDepth treats lines nested deeper than n containers (objects and
// arrays) as malformed. The limit applies to every driver, including under
// keys the schema does not select. n <= 0 restores DefaultMaxDepth and values
// above MaxDepthLimit are lowered to it.
func WithMaxDepth(n int) DecodeOption { return func(c *decodeConfig) { c.maxDepth = n } }

// WithMinChunkBytes sets the smallest amount of input split off for one
// worker.
func WithMinChunkBytes(n int) DecodeOption { return func(c *decodeConfig) { c.minChunkBytes = n } }

// WithAllocator sets the Arrow allocator for the decoded batch.
func WithAllocator(mem memory.Allocator) DecodeOption {
	return func(c *decodeConfig) {
		if mem != nil {
			c.mem = mem
		}
	}
}
