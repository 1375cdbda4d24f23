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

// Package ui owns the per-frame application state: the active namespace,
// kind and health filters, the current selection, the pending-operations
// map, the view stack, and the embedded Confirmation Gate. The event-driven
// per-frame loop generalizes the teacher's Manager.Start select-loop shape
// (periodicTicker plus ctx.Done()) into a four-way select over input,
// operation results, store-change notifications, and a 250ms tick.
package ui

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/fluxview/fluxview/internal/operation"
	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/transport"
	"github.com/fluxview/fluxview/internal/watcher"
)

// View identifies one entry in the visible-view stack named by spec §4.7.
type View int

const (
	ViewResourceList View = iota
	ViewDetail
	ViewYAML
	ViewTrace
	ViewHelp
	ViewConfirmation
	ViewSubmenu
)

// tickInterval is the periodic snapshot cadence between input events,
// per spec §4.7.
const tickInterval = 250 * time.Millisecond

// Renderer receives one Snapshot per frame. Real terminal rendering is out
// of scope per spec §1; New installs NoopRenderer when given a nil
// Renderer, which is what cmd/fluxview does.
type Renderer interface {
	Render(Snapshot)
}

// NoopRenderer discards every frame; used when no renderer is wired.
type NoopRenderer struct{}

func (NoopRenderer) Render(Snapshot) {}

// Snapshot is the read-only per-frame projection the Coordinator hands the
// Renderer: never a live reference into the store or the Coordinator.
type Snapshot struct {
	Entries       []store.Entry
	Namespace     string
	AllNamespaces bool
	KindFilter    []string
	Health        store.HealthFilter
	Selected      store.Key
	HasSelection  bool
	View          View
	StatusLine    string
	Confirming    bool
	ConfirmOp     string
}

// InputEvent is one key-level event the embedding terminal layer decodes
// and feeds to the Coordinator; key decoding itself is out of scope.
type InputEvent struct {
	Key     string
	Command string // non-empty when Key parsed as a ":"-command line
}

// Coordinator is the UI State Coordinator plus the embedded Confirmation
// Gate (spec §4.7 and §4.9 share one package per the Design Notes: a
// single-field state machine, not a distinct dialog task).
type Coordinator struct {
	st       *store.Store
	pool     *watcher.Pool
	dispatch *operation.Dispatcher
	client   *transport.Client
	renderer Renderer
	log      logr.Logger
	readOnly bool

	namespace     string
	allNamespaces bool
	kindFilter    []string
	health        store.HealthFilter
	selected      store.Key
	hasSelection  bool
	view          View
	statusLine    string

	gate ConfirmationGate

	pending     map[uint64]pendingOp
	results     chan operation.Result
	requestQuit bool
}

type pendingOp struct {
	key       store.Key
	namespace string
	allNS     bool
}

// New constructs a Coordinator watching every registered kind in the given
// starting namespace (empty + allNamespaces=true means "all namespaces").
func New(st *store.Store, pool *watcher.Pool, dispatch *operation.Dispatcher, client *transport.Client, renderer Renderer, log logr.Logger, readOnly bool) *Coordinator {
	if renderer == nil {
		renderer = NoopRenderer{}
	}
	return &Coordinator{
		st:            st,
		pool:          pool,
		dispatch:      dispatch,
		client:        client,
		renderer:      renderer,
		log:           log,
		readOnly:      readOnly,
		allNamespaces: true,
		view:          ViewResourceList,
		pending:       make(map[uint64]pendingOp),
		results:       make(chan operation.Result, 16),
	}
}

// SetNamespace sets the Coordinator's starting namespace before the first
// SubscribeAll call. Unlike switchNamespace, it never unsubscribes or clears
// the store, since nothing has been subscribed yet at startup. An empty
// namespace leaves the default "all namespaces" mode in place.
func (c *Coordinator) SetNamespace(namespace string) {
	if namespace == "" {
		return
	}
	c.allNamespaces = false
	c.namespace = namespace
}

// scope returns the watcher.ScopeSelector matching the Coordinator's
// current namespace filter.
func (c *Coordinator) scope() watcher.ScopeSelector {
	if c.allNamespaces {
		return watcher.ScopeSelector{AllNamespaces: true}
	}
	return watcher.ScopeSelector{Namespace: c.namespace}
}

// SubscribeAll opens a watch subscription for every registered kind under
// the Coordinator's current scope, used at startup.
func (c *Coordinator) SubscribeAll() {
	for _, kind := range registry.All() {
		c.pool.Subscribe(kind, c.scope())
	}
}

// Run drives the per-frame loop until ctx is cancelled: drain input events,
// then drain result channels, then emit a snapshot, sleeping between
// iterations on whichever of input/results/store-change/tick fires first.
func (c *Coordinator) Run(ctx context.Context, input <-chan InputEvent, storeChanged <-chan store.Event) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-input:
			c.handleInput(ctx, ev)
		case res := <-c.results:
			c.handleResult(res)
		case <-storeChanged:
			c.reconcileSelection()
		case <-ticker.C:
		}
		c.renderer.Render(c.snapshot())
		if c.requestQuit {
			return
		}
	}
}

func (c *Coordinator) snapshot() Snapshot {
	entries := c.st.Snapshot(store.Filter{
		Kinds:     c.kindFilter,
		Namespace: namespaceFilterValue(c.allNamespaces, c.namespace),
		Health:    c.health,
	})
	return Snapshot{
		Entries:       entries,
		Namespace:     c.namespace,
		AllNamespaces: c.allNamespaces,
		KindFilter:    c.kindFilter,
		Health:        c.health,
		Selected:      c.selected,
		HasSelection:  c.hasSelection,
		View:          c.view,
		StatusLine:    c.statusLine,
		Confirming:    c.gate.State() == Pending,
		ConfirmOp:     c.gate.PendingOpName(),
	}
}

func namespaceFilterValue(allNamespaces bool, namespace string) string {
	if allNamespaces {
		return ""
	}
	return namespace
}

// handleResult delivers a Dispatcher Result: logged rather than surfaced if
// the selection context has changed since dispatch, per spec §4.5's
// cancellation rule that in-flight operations complete but may be stale by
// the time they do.
func (c *Coordinator) handleResult(res operation.Result) {
	pending, ok := c.pending[res.RequestID]
	delete(c.pending, res.RequestID)
	if !ok {
		return
	}

	stillRelevant := pending.allNS == c.allNamespaces && pending.namespace == c.namespace
	if !stillRelevant {
		c.log.Info("operation result arrived after selection context changed, logging only",
			"key", pending.key.String(), "success", res.Outcome.Success, "message", res.Outcome.Message)
		return
	}
	c.statusLine = res.Outcome.Message
}
