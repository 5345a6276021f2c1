// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the CUE compile/unify/validate/decode flow shared by
// the configuration loader and the CUE module loader.
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate, then decode to a Go value (or keep the unified value for later
//     evaluation, as CUE actions do when their args are filled in)
//
// # Usage
//
//	//go:embed module_schema.cue
//	var schema []byte
//
//	unified, err := cueutil.Compile(schema, data, "#Module",
//	    cueutil.WithFilename(path),
//	)
//	if err != nil {
//	    return nil, err // error text carries the file and CUE path
//	}
package cueutil
