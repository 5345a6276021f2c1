// SPDX-License-Identifier: MPL-2.0

package actx

// selector combines a location's inclusive filter with the provider-wide
// exclusive filter.
//
// The two have opposite polarity: the location filter returns true to keep a
// file, the global file filter returns true to drop it. Both see the same
// candidate, and the global filter only runs for files the location kept.
type selector struct {
	include filterFunc
	exclude filterFunc
}

// keep reports whether the candidate survives both filters.
func (s selector) keep(c candidate) bool {
	if s.include != nil && !s.include(c) {
		return false
	}
	if s.exclude != nil && s.exclude(c) {
		return false
	}
	return true
}
