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

// Package throttle suppresses repeated log lines for the same recurring
// failure, generalizing the teacher's unavailableGVRsLastTry cooldown map
// and correlation.Store's timestamp-keyed entries into a single
// (category, kind) cooldown window.
package throttle

import (
	"sync"
	"time"
)

const cooldown = 60 * time.Second

// key identifies one (category, kind) cooldown bucket.
type key struct {
	category string
	kind     string
}

// Throttle records the last time each (category, kind) pair logged, and
// answers whether a fresh log line is due. Debug mode disables the cooldown
// entirely so every event is reported, per the spec's debug-flag rule.
type Throttle struct {
	mu         sync.Mutex
	lastLogged map[key]time.Time
	debug      bool
	now        func() time.Time
}

// New creates a Throttle. When debug is true, ShouldLog always returns true.
func New(debug bool) *Throttle {
	return &Throttle{
		lastLogged: make(map[key]time.Time),
		debug:      debug,
		now:        time.Now,
	}
}

// ShouldLog reports whether category/kind is due for another log line,
// updating the recorded timestamp as a side effect when it returns true.
func (t *Throttle) ShouldLog(category, kind string) bool {
	if t.debug {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{category: category, kind: kind}
	now := t.now()
	last, ok := t.lastLogged[k]
	if ok && now.Sub(last) < cooldown {
		return false
	}
	t.lastLogged[k] = now
	return true
}

// Reset clears every recorded timestamp, used by tests.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastLogged = make(map[key]time.Time)
}
