// Package prunejson decodes newline-delimited JSON into Arrow columns,
// keeping only the leaves a pruned schema asks for.
//
// The pipeline has four steps:
//
//   - Declare a schema tree of objects, single-type lists and string leaves
//     (NewObject, NewList, String, or ParseSchemaYAML).
//   - Prune it to its first N leaves in declaration order (Prune).
//   - Compile the pruned tree into columns and a decode plan (Compile).
//   - Decode an NDJSON buffer against it (Decode). Malformed lines are
//     skipped and counted instead of failing the whole buffer.
//
// Design policy:
//   - Keep only public APIs in the root package; put the projection engine
//     and Arrow assembly under internal/.
//   - JSON backends live under source/ and are selected by name.
//   - The benchmark harness lives under internal/harness and cmd/prunejson.
//
// Typical usage:
//
//	root, _ := prunejson.ParseSchemaYAML(decl)
//	cs, err := prunejson.Compile(prunejson.Prune(root, 10))
//	res, err := prunejson.Decode(data, cs, prunejson.WithWorkers(8))
//	defer res.Release()
//	fmt.Println(res.Rows, res.Skipped)
package prunejson
