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

package ui

import (
	"context"
	"fmt"

	"github.com/fluxview/fluxview/internal/operation"
	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/transport"
)

// operationKeys maps a keypress to an operation name. The supplemental
// favorites toggle reserves "y"/"n"/Escape for the Confirmation Gate, per
// the Design Notes, so favorites get their own dedicated key ("f").
var operationKeys = map[string]string{
	"s": "suspend",
	"u": "resume",
	"r": "reconcile",
	"R": "reconcile-with-source",
	"d": "delete",
}

// handleInput processes one InputEvent: a ":"-command line, a confirmation
// response while the gate is Pending, a selection move, or an operation
// keypress, per spec §4.5 step 1-5 and §4.9.
func (c *Coordinator) handleInput(ctx context.Context, ev InputEvent) {
	if ev.Command != "" {
		if c.dispatchCommand(parseCommand(ev.Command)) {
			c.requestQuit = true
		}
		return
	}

	if c.gate.State() == Pending {
		c.handleConfirmationKey(ctx, ev.Key)
		return
	}

	switch ev.Key {
	case "up":
		c.moveSelection(-1)
		return
	case "down":
		c.moveSelection(1)
		return
	case "f":
		if c.hasSelection {
			c.st.ToggleFavorite(c.selected)
		}
		return
	}

	opName, ok := operationKeys[ev.Key]
	if !ok {
		return
	}
	c.invokeOperation(ctx, opName)
}

// handleConfirmationKey implements spec §4.9: while Pending, every
// non-confirmation keypress except Escape is swallowed; "y" dispatches,
// "n"/Escape aborts without dispatch.
func (c *Coordinator) handleConfirmationKey(ctx context.Context, key string) {
	switch key {
	case "y":
		op, kind, reqKey, dispatch, ok := c.gate.Resolve(true)
		if ok && dispatch {
			c.doDispatch(ctx, op, kind, reqKey)
		}
	case "n", "escape":
		c.gate.Resolve(false)
	default:
		// swallowed
	}
}

// invokeOperation implements spec §4.5's dispatch rule steps 1-4: lookup,
// applicability, read-only refusal, and confirmation gating. Step 5
// (allocate request, spawn, register result channel) happens in doDispatch.
func (c *Coordinator) invokeOperation(ctx context.Context, opName string) {
	if !c.hasSelection {
		return
	}
	entry, ok := c.st.Get(c.selected)
	if !ok {
		return
	}
	kind, ok := registry.ByAlias(c.selected.Kind)
	if !ok {
		return
	}

	op, ok := c.dispatch.Lookup(opName)
	if !ok {
		return
	}
	if !op.ApplicableTo(kind, entry) {
		c.statusLine = fmt.Sprintf("cannot %s %s/%s", opName, kind.Name, c.selected.Name)
		if opName == "reconcile" && entry.Suspended {
			c.statusLine = "cannot reconcile suspended resource"
		}
		return
	}
	if c.readOnly {
		c.statusLine = "read-only mode: mutating operations are disabled"
		return
	}
	if op.RequiresConfirmation() {
		c.gate.Request(op, kind, c.selected)
		c.view = ViewConfirmation
		return
	}
	c.doDispatch(ctx, op, kind, c.selected)
}

// doDispatch allocates an OperationRequest, spawns the operation, and
// registers the pending context so a late result can be checked for
// staleness, per spec §4.5 step 5.
func (c *Coordinator) doDispatch(ctx context.Context, op operation.Operation, kind registry.ResourceKind, key store.Key) {
	scope := transport.Scope{Namespace: key.Namespace}
	if kind.Scope == registry.ScopeCluster {
		scope = transport.Scope{Cluster: true}
	}

	id, resultCh := c.dispatch.Dispatch(ctx, op, kind, scope, key, operation.Options{})
	c.pending[id] = pendingOp{key: key, namespace: c.namespace, allNS: c.allNamespaces}
	if c.view == ViewConfirmation {
		c.view = ViewResourceList
	}

	go func() {
		res := <-resultCh
		select {
		case c.results <- res:
		case <-ctx.Done():
		}
	}()
}

// moveSelection shifts the selection by delta rows within the current
// filtered, ordered snapshot.
func (c *Coordinator) moveSelection(delta int) {
	entries := c.currentEntries()
	if len(entries) == 0 {
		c.hasSelection = false
		return
	}
	idx := 0
	if c.hasSelection {
		for i, e := range entries {
			if e.Key == c.selected {
				idx = i
				break
			}
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(entries) {
		idx = len(entries) - 1
	}
	c.selected = entries[idx].Key
	c.hasSelection = true
}

func (c *Coordinator) currentEntries() []store.Entry {
	return c.st.Snapshot(store.Filter{
		Kinds:     c.kindFilter,
		Namespace: namespaceFilterValue(c.allNamespaces, c.namespace),
		Health:    c.health,
	})
}

// reconcileSelection re-validates the selection against a fresh snapshot
// whenever the store changes underneath it, per spec §4.7: if the selected
// key is gone, selection moves to the row that took its place (the next
// lower row), falling back to the first row, and clears entirely once the
// snapshot is empty.
func (c *Coordinator) reconcileSelection() {
	entries := c.currentEntries()
	if len(entries) == 0 {
		c.hasSelection = false
		c.selected = store.Key{}
		return
	}
	if !c.hasSelection {
		return
	}
	for _, e := range entries {
		if e.Key == c.selected {
			return
		}
	}

	idx := 0
	for i, e := range entries {
		if keyLess(e.Key, c.selected) {
			idx = i + 1
			continue
		}
		break
	}
	if idx >= len(entries) {
		idx = 0
	}
	c.selected = entries[idx].Key
}

// keyLess orders keys the same way store.Snapshot sorts entries: by
// namespace, then name.
func keyLess(a, b store.Key) bool {
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	return a.Name < b.Name
}
