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

import (
	"sort"
	"sync"
)

// EventKind is the canonical watch delta the watcher pool hands the store.
type EventKind int

const (
	// Added reports a new object, or an object the store has not yet seen.
	Added EventKind = iota
	// Modified reports a changed object.
	Modified
	// Deleted reports an object that no longer exists.
	Deleted
	// Resynced marks the end of a subscription's initial (or post-reconnect)
	// snapshot. It carries no object.
	Resynced
)

// Event is one canonical delta applied to the store.
type Event struct {
	Kind EventKind
	// SubscriptionEpoch identifies which watch subscription generation
	// produced this event; bumped every time a subscription restarts after
	// a disconnect so stale, in-flight events from a prior connection never
	// resurrect an entry the fresh snapshot no longer contains.
	SubscriptionEpoch uint64
	Key               Key
	KindMeta          KindInfo
	Object            map[string]interface{}
	// AllNamespaces marks a Resynced event produced by a cluster-wide (all
	// namespaces) subscription, whose entries are keyed by each object's own
	// namespace rather than Key.Namespace. Resync then matches entries by
	// kind alone instead of by (kind, namespace).
	AllNamespaces bool
}

// Store is the thread-safe, keyed projection of live resources. It is
// guarded by a single RWMutex with short critical sections: one event
// application, or one snapshot copy, generalizing the single-writer
// multi-reader discipline used throughout the pack for in-memory caches.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]Entry

	favorites map[Key]struct{}

	observers []chan Event
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		entries:   make(map[Key]Entry),
		favorites: make(map[Key]struct{}),
	}
}

// Observe registers a channel that receives every applied event; cmd/fluxview
// uses it as the Coordinator's store-change notification, and tests may use
// it to watch applied events. Sends are non-blocking, so events are dropped
// for an observer whose 64-slot buffer is full. With no observers registered,
// Apply's broadcast is a no-op.
func (s *Store) Observe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, 64)
	s.observers = append(s.observers, ch)
	return ch
}

func (s *Store) broadcast(ev Event) {
	for _, ch := range s.observers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Apply applies one watch event to the store. Added and Modified upsert by
// Key (an Added for an existing Key is treated identically to Modified, per
// invariant ii); Deleted removes the entry idempotently. Resynced does not
// clear anything itself — instead, any entry in the event's scope whose
// generation is older than the event's epoch is treated as an implicit
// delete, because it means the entry survived from before the current
// subscription's fresh snapshot without being re-Added. For a cluster-wide
// subscription (AllNamespaces), entries are keyed by their own namespace, so
// the scope match is by kind alone rather than (kind, namespace).
func (s *Store) Apply(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case Added, Modified:
		entry := ProjectEntry(ev.Key.Kind, ev.Object, ev.KindMeta)
		entry.Key = ev.Key
		entry.generation = ev.SubscriptionEpoch
		s.entries[ev.Key] = entry
	case Deleted:
		delete(s.entries, ev.Key)
	case Resynced:
		for k, e := range s.entries {
			if k.Kind != ev.Key.Kind {
				continue
			}
			if !ev.AllNamespaces && k.Namespace != ev.Key.Namespace {
				continue
			}
			if e.generation < ev.SubscriptionEpoch {
				delete(s.entries, k)
			}
		}
	}

	s.broadcast(ev)
}

// Get returns the entry for key, if present.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// ToggleFavorite flips whether key is pinned to the top of snapshots.
func (s *Store) ToggleFavorite(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.favorites[key]; ok {
		delete(s.favorites, key)
		return false
	}
	s.favorites[key] = struct{}{}
	return true
}

// SetFavorites replaces the favorite set wholesale, used when loading
// persisted favorites at startup. The order of keys is not kept: pinned
// entries appear in Snapshot's (namespace, name) order.
func (s *Store) SetFavorites(keys []Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		s.favorites[k] = struct{}{}
	}
}

// Favorites returns the current favorite key set, order unspecified.
func (s *Store) Favorites() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Key, 0, len(s.favorites))
	for k := range s.favorites {
		out = append(out, k)
	}
	return out
}

// Snapshot returns a freshly allocated, ordered copy of every entry
// matching filter: sorted by (namespace, name), with favorited entries
// pinned to the top while preserving their relative order among
// themselves and among the rest. The caller never observes a live
// reference into the store, matching the copy-out-then-release idiom used
// elsewhere in the pack for handing state across a concurrency boundary.
func (s *Store) Snapshot(filter Filter) []Entry {
	s.mu.RLock()
	matched := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.matches(e) {
			matched = append(matched, e)
		}
	}
	favorites := s.favorites
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Key.Namespace != matched[j].Key.Namespace {
			return matched[i].Key.Namespace < matched[j].Key.Namespace
		}
		return matched[i].Key.Name < matched[j].Key.Name
	})

	if len(favorites) == 0 {
		return matched
	}

	pinned := make([]Entry, 0, len(favorites))
	rest := make([]Entry, 0, len(matched))
	for _, e := range matched {
		if _, ok := favorites[e.Key]; ok {
			pinned = append(pinned, e)
		} else {
			rest = append(rest, e)
		}
	}
	return append(pinned, rest...)
}

// ClearScope removes every entry for the given kind+namespace scope. Used by
// the UI coordinator when a namespace or context switch changes a kind's
// effective scope, per the spec's "store is cleared for kinds whose scope
// changed" rule.
func (s *Store) ClearScope(kind, namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if k.Kind == kind && k.Namespace == namespace {
			delete(s.entries, k)
		}
	}
}

// ClearKind removes every entry for kind regardless of namespace. Used when
// leaving an "all namespaces" subscription, whose entries are keyed by each
// object's own namespace rather than a single scope namespace, so ClearScope
// would never match them.
func (s *Store) ClearKind(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if k.Kind == kind {
			delete(s.entries, k)
		}
	}
}

// Clear removes every entry, used on a full context switch.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Key]Entry)
}

// Len returns the number of entries currently held, for tests and metrics-free
// diagnostics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
