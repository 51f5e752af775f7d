// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
//
// Every caller follows the same three steps: compile the schema, compile
// the user's document and unify it with a schema definition, then
// validate and decode.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	m, err := cueutil.DecodeMap(schema, data, "#Config",
//		cueutil.WithFilename(path),
//		cueutil.WithConcrete(false),
//	)
//
// Failures carry the offending field in JSON-path notation, for example
// "build.first[1]: conflicting values".
package cueutil
