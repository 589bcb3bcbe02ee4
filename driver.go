package prunejson

import (
	"errors"
	"fmt"
	"sort"

	eng "github.com/reoring/prunejson/internal/engine"
	"github.com/reoring/prunejson/internal/ir"
	"github.com/reoring/prunejson/internal/stream"
	fastsrc "github.com/reoring/prunejson/source/fastjson"
	gojsonsrc "github.com/reoring/prunejson/source/gojson"
	jsonsrc "github.com/reoring/prunejson/source/json"
)

// Driver names accepted by WithDriver.
const (
	DriverFastJSON = "fastjson" // valyala/fastjson, the default
	DriverGoJSON   = "gojson"   // goccy/go-json token stream
	DriverStdlib   = "stdlib"   // encoding/json token stream
)

// lineDecoder turns one NDJSON line into a projected row. Implementations are
// owned by a single worker.
type lineDecoder interface {
	DecodeLine(line []byte) (eng.Value, error)
}

type driverFactory func(plan *ir.Object, opt eng.EnforceOptions) lineDecoder

var drivers = map[string]driverFactory{
	DriverFastJSON: func(plan *ir.Object, opt eng.EnforceOptions) lineDecoder {
		return &fastLineDecoder{
			fast:   fastsrc.New(plan, opt),
			tokens: &tokenLineDecoder{newSource: jsonsrc.NewBytes, drv: stream.NewDriver(plan), opt: opt},
		}
	},
	DriverGoJSON: func(plan *ir.Object, opt eng.EnforceOptions) lineDecoder {
		return &tokenLineDecoder{newSource: gojsonsrc.NewBytes, valid: gojsonsrc.Valid, drv: stream.NewDriver(plan), opt: opt}
	},
	DriverStdlib: func(plan *ir.Object, opt eng.EnforceOptions) lineDecoder {
		return &tokenLineDecoder{newSource: jsonsrc.NewBytes, drv: stream.NewDriver(plan), opt: opt}
	},
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	out := make([]string, 0, len(drivers))
	for name := range drivers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func lookupDriver(name string) (driverFactory, error) {
	f, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("prunejson: unknown driver %q (have %v)", name, Drivers())
	}
	return f, nil
}

// tokenLineDecoder feeds a token source through the streaming projector.
type tokenLineDecoder struct {
	newSource func([]byte) eng.TokenSource
	valid     func([]byte) bool // optional syntax check for lax tokenizers
	drv       *stream.Driver
	opt       eng.EnforceOptions
}

func (d *tokenLineDecoder) DecodeLine(line []byte) (eng.Value, error) {
	if d.valid != nil && !d.valid(line) {
		return eng.Value{}, eng.ParseError("invalid JSON")
	}
	src := eng.WrapWithEnforcement(d.newSource(line), d.opt)
	return d.drv.Parse(src)
}

// fastLineDecoder decodes with fastjson and hands the lines it cannot
// represent faithfully to the encoding/json token path.
type fastLineDecoder struct {
	fast   *fastsrc.Decoder
	tokens *tokenLineDecoder
}

func (d *fastLineDecoder) DecodeLine(line []byte) (eng.Value, error) {
	v, err := d.fast.DecodeLine(line)
	if errors.Is(err, fastsrc.ErrNeedsTokens) {
		return d.tokens.DecodeLine(line)
	}
	return v, err
}

func enforceOptions(cfg decodeConfig) eng.EnforceOptions {
	opt := eng.EnforceOptions{MaxDepth: cfg.maxDepth}
	if cfg.duplicates == DuplicateReject {
		opt.OnDuplicate = eng.DupError
	}
	return opt
}
