// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"maps"
	"slices"
)

// MergedMap indexes the winning entry of every discovered action by domain and
// then by action name.
type MergedMap map[string]map[string]Entry

// merge folds per-location results in declared order. results[i] must hold the
// entries of location i, whatever order the scans finished in; a later location
// overwrites an earlier one for the same (domain, name).
func merge(results [][]Entry) MergedMap {
	merged := make(MergedMap)
	for _, entries := range results {
		for _, e := range entries {
			actions, ok := merged[e.Domain]
			if !ok {
				actions = make(map[string]Entry)
				merged[e.Domain] = actions
			}
			actions[e.Name] = e
		}
	}
	return merged
}

// Lookup returns the entry for domain/name.
func (m MergedMap) Lookup(domain, name string) (Entry, bool) {
	e, ok := m[domain][name]
	return e, ok
}

// Domains returns the domain names in sorted order.
func (m MergedMap) Domains() []string {
	return slices.Sorted(maps.Keys(m))
}

// Names returns the action names of a domain in sorted order.
func (m MergedMap) Names(domain string) []string {
	return slices.Sorted(maps.Keys(m[domain]))
}

// Len returns the number of actions across all domains.
func (m MergedMap) Len() int {
	n := 0
	for _, actions := range m {
		n += len(actions)
	}
	return n
}
