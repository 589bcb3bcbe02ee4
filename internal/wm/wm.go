// Package wm carries the WM record schema used by the benchmark.
package wm

import (
	_ "embed"
	"sync"

	"github.com/reoring/prunejson"
)

//go:embed wm.yaml
var schemaYAML []byte

// Leaves is the number of scalar leaves in the WM schema.
const Leaves = 57

var schema = sync.OnceValue(func() prunejson.Node {
	n, err := prunejson.ParseSchemaYAML(schemaYAML)
	if err != nil {
		panic("wm: embedded schema: " + err.Error())
	}
	return n
})

// Schema returns the full WM schema tree. The tree is shared and immutable.
func Schema() prunejson.Node { return schema() }

// YAML returns the schema declaration text.
func YAML() []byte { return append([]byte(nil), schemaYAML...) }
