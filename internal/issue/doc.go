// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions. The catalog in issue.go holds Markdown guidance, rendered with
// glamour, for each failure class of the actx engine; ForError maps an engine
// error to its entry.
package issue
