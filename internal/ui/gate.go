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
	"github.com/fluxview/fluxview/internal/operation"
	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
)

// GateState is the Confirmation Gate's two states, per spec §4.9.
type GateState int

const (
	Idle GateState = iota
	Pending
)

// ConfirmationGate is a single-field state machine, not a distinct dialog
// task, per the Design Notes: Idle -> Pending(op) -> Idle. While Pending,
// every non-confirmation keypress except Escape is swallowed by the caller.
type ConfirmationGate struct {
	state GateState
	op    operation.Operation
	kind  registry.ResourceKind
	key   store.Key
}

// State returns the gate's current state.
func (g *ConfirmationGate) State() GateState { return g.state }

// PendingOpName returns the name of the operation awaiting confirmation, or
// "" when Idle.
func (g *ConfirmationGate) PendingOpName() string {
	if g.state != Pending || g.op == nil {
		return ""
	}
	return g.op.Name()
}

// Request moves the gate from Idle to Pending for op/kind/key. Calling it
// while already Pending is a no-op; the caller must not invoke it in that
// state per spec's single-pending-confirmation design.
func (g *ConfirmationGate) Request(op operation.Operation, kind registry.ResourceKind, key store.Key) {
	if g.state == Pending {
		return
	}
	g.state = Pending
	g.op = op
	g.kind = kind
	g.key = key
}

// Resolve answers the pending confirmation: yes dispatches, no or escape
// aborts without dispatch. Both transitions return to Idle. It reports the
// operation/kind/key that were pending, valid only when ok is true.
func (g *ConfirmationGate) Resolve(yes bool) (op operation.Operation, kind registry.ResourceKind, key store.Key, dispatch bool, ok bool) {
	if g.state != Pending {
		return nil, registry.ResourceKind{}, store.Key{}, false, false
	}
	op, kind, key = g.op, g.kind, g.key
	g.state = Idle
	g.op, g.kind, g.key = nil, registry.ResourceKind{}, store.Key{}
	return op, kind, key, yes, true
}
