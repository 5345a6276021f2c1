// SPDX-License-Identifier: MPL-2.0

// Package loader provides actx.Loader implementations that turn discovered
// files into action exports and predicate modules.
//
//   - Shell runs POSIX shell scripts in-process with mvdan.cc/sh. Scripts can
//     call other actions of the calling context by key and run several at
//     once with the settle command.
//   - CUE evaluates CUE modules: a `result` field makes a data action, and
//     `include`/`exclude`/`pattern` fields make a filter predicate.
//   - Registry serves Go values registered under path suffixes.
//   - Mux dispatches by file extension. Default serves .sh and .cue.
package loader
