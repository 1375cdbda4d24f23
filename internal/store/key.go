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

// Package store holds the thread-safe, in-memory projection of every
// watched resource: a map keyed by (kind, namespace, name), applied to
// idempotently by the watcher pool and read by the UI coordinator once per
// frame.
package store

import (
	"fmt"
	"strings"
	"time"
)

// Key is the identity tuple (kind, namespace, name). Namespace is empty for
// cluster-scoped kinds. Generalizes the group/version/resource/namespace/name
// identifier shape used elsewhere in the pack down to the three fields the
// store actually keys on.
type Key struct {
	Kind      string
	Namespace string
	Name      string
}

// String renders the key as "kind:namespace:name". Names must not contain
// colons; the registry and transport layers never produce one.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.Namespace, k.Name)
}

// ParseKeyString parses the "kind:namespace:name" form String produces,
// used to reload persisted favorites from the config file.
func ParseKeyString(s string) (Key, bool) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Key{}, false
	}
	return Key{Kind: parts[0], Namespace: parts[1], Name: parts[2]}, true
}

// Readiness is a tri-state derived from an object's conditions.
type Readiness int

const (
	// ReadyUnknown means no Ready condition was found and the kind is not
	// an inventory-bearing composite with a non-empty inventory.
	ReadyUnknown Readiness = iota
	// ReadyTrue means the Ready condition's status is "True".
	ReadyTrue
	// ReadyFalse means a Ready condition is present with any other status.
	ReadyFalse
)

func (r Readiness) String() string {
	switch r {
	case ReadyTrue:
		return "True"
	case ReadyFalse:
		return "False"
	default:
		return "Unknown"
	}
}

// Entry is the projected view of one live object, the unit the Store holds
// and the UI renders.
type Entry struct {
	Key               Key
	ResourceVersion   string
	Ready             Readiness
	Suspended         bool
	StatusMessage     string
	LastReconciled    time.Time
	HasLastReconciled bool

	// Raw is the full object backing this entry, used by the YAML view,
	// the trace engine, and operation dispatch. It is never mutated after
	// being placed in an Entry; callers treat it as a read-only snapshot.
	Raw map[string]interface{}

	// generation is the watcher-pool resync epoch this entry was last
	// touched in. It is compared against the subscription's current
	// epoch to synthesize an implicit Deleted for objects that existed
	// before a Resynced marker but were absent from the fresh snapshot.
	generation uint64
}
