package jetschema

// Package jetschema provides:
//
// - Schema-directed JSON parsing: one streaming pass both materializes the
//   value tree and enforces the schema, failing fast at the offending node
// - A compiler from loosely-typed JSON Schema descriptions (Draft 2020-12
//   subset) into an immutable, shareable Schema IR
// - A stable error model (category, code, JSON Pointer path, message)
// - Pluggable token sources via Source/JSONDriver with streaming
//   duplicate-key/depth/size enforcement
//
// Design policy:
// - Keep only public APIs in the root package; put token-level machinery
//   under internal/engine and drivers under source/.
// - The CLI lives under cmd/jetschema.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	p, err := jetschema.New(map[string]any{"type": "string", "minLength": 2})
//	v, err := p.Parse(`"hi"`)
//
//	s, err := jetschema.CompileFile("schema.yaml")
//	v, err := jetschema.ParseFrom(s, jetschema.JSONBytes(data), jetschema.ParseOpt{})
