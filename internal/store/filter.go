/*
SPDX-License-Identifier: Apache-2.0

Copyright 2025 fluxview

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package store

import "strings"

// HealthFilter narrows a snapshot to ready, not-ready, or every entry.
type HealthFilter int

const (
	// HealthAll matches every entry regardless of readiness.
	HealthAll HealthFilter = iota
	// HealthHealthy matches entries whose Ready field is ReadyTrue.
	HealthHealthy
	// HealthUnhealthy matches entries whose Ready field is not ReadyTrue.
	HealthUnhealthy
)

// Filter describes which entries Store.Snapshot should return. It plays the
// same predicate role a compiled watch-rule set plays when deciding whether
// a resource matches: a kind set, a namespace, a name substring, and a
// health predicate, all ANDed together.
type Filter struct {
	// Kinds restricts results to this set of kind names. Empty means any kind.
	Kinds []string
	// Namespace restricts results to one namespace. Empty means any namespace
	// ("all namespaces" mode).
	Namespace string
	// NameContains is matched case-insensitively against entry.Key.Name.
	NameContains string
	// Health restricts by readiness.
	Health HealthFilter
}

// matches reports whether e satisfies f, generalizing the resource-pattern
// and label-exclusion matching a compiled watch rule applies to a
// candidate object into a predicate over a projected Entry.
func (f Filter) matches(e Entry) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if strings.EqualFold(k, e.Key.Kind) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Namespace != "" && !strings.EqualFold(f.Namespace, e.Key.Namespace) {
		return false
	}

	if f.NameContains != "" && !strings.Contains(strings.ToLower(e.Key.Name), strings.ToLower(f.NameContains)) {
		return false
	}

	switch f.Health {
	case HealthHealthy:
		if e.Ready != ReadyTrue {
			return false
		}
	case HealthUnhealthy:
		if e.Ready == ReadyTrue {
			return false
		}
	}

	return true
}
