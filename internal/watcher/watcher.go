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

// Package watcher maintains one long-lived watch goroutine per
// (ResourceKind, ScopeSelector) pair, translating the remote event stream
// into the canonical Added/Modified/Deleted/Resynced sequence the store
// consumes. It generalizes the teacher's Manager.activeInformers
// map[GVR]map[string]context.CancelFunc bookkeeping: one map entry per
// subscription key instead of one informer per namespace.
package watcher

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-logr/logr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	k8swatch "k8s.io/apimachinery/pkg/watch"

	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/throttle"
	"github.com/fluxview/fluxview/internal/transport"
)

// ScopeSelector is either a single namespace or the "all namespaces" sentinel.
type ScopeSelector struct {
	Namespace     string
	AllNamespaces bool
}

// subKey identifies one active subscription.
type subKey struct {
	kind  string
	scope ScopeSelector
}

const (
	baseBackoff = 1 * time.Second
	maxBackoff  = 30 * time.Second
)

// Pool owns every active watch subscription. One goroutine per (kind,
// scope) runs Pool.run until cancelled or permanently terminated by a
// NotFound classification.
type Pool struct {
	mu            sync.Mutex
	subscriptions map[subKey]*subscription

	client   *transport.Client
	st       *store.Store
	thr      *throttle.Throttle
	log      logr.Logger
	epochSeq uint64
}

type subscription struct {
	cancel context.CancelFunc
	epoch  uint64
}

// New creates an empty Pool bound to a transport Client, a Store to publish
// events into, and an Error Throttle for backoff logging.
func New(client *transport.Client, st *store.Store, thr *throttle.Throttle, log logr.Logger) *Pool {
	return &Pool{
		subscriptions: make(map[subKey]*subscription),
		client:        client,
		st:            st,
		thr:           thr,
		log:           log,
	}
}

// Subscribe ensures exactly one active watch exists for (kind, scope).
// Calling it twice with equal arguments is a no-op: the existing goroutine
// keeps running untouched, matching the spec's idempotent subscribe rule.
func (p *Pool) Subscribe(kind registry.ResourceKind, scope ScopeSelector) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := subKey{kind: kind.Name, scope: scope}
	if _, exists := p.subscriptions[k]; exists {
		return
	}

	p.epochSeq++
	epoch := p.epochSeq
	ctx, cancel := context.WithCancel(context.Background())
	p.subscriptions[k] = &subscription{cancel: cancel, epoch: epoch}

	go p.run(ctx, kind, scope, epoch)
}

// UnsubscribeAllExcept cancels every active subscription for kinds not in
// the keep set scoped to scope, used on namespace/context switch.
func (p *Pool) UnsubscribeAllExcept(keep []registry.ResourceKind, scope ScopeSelector) {
	keepNames := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		keepNames[k.Name] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for k, sub := range p.subscriptions {
		if k.scope != scope {
			continue
		}
		if _, ok := keepNames[k.kind]; ok {
			continue
		}
		sub.cancel()
		delete(p.subscriptions, k)
	}
}

// UnsubscribeAll cancels every active subscription, used on full shutdown
// or a context switch that invalidates every handle.
func (p *Pool) UnsubscribeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, sub := range p.subscriptions {
		sub.cancel()
		delete(p.subscriptions, k)
	}
}

// Active reports whether a subscription currently exists for (kind, scope).
func (p *Pool) Active(kindName string, scope ScopeSelector) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.subscriptions[subKey{kind: kindName, scope: scope}]
	return ok
}

func toTransportScope(scope ScopeSelector) transport.Scope {
	if scope.AllNamespaces {
		return transport.Scope{Cluster: true}
	}
	return transport.Scope{Namespace: scope.Namespace}
}

// run drives one subscription's lifecycle: connect, stream, and on a
// non-terminal error, back off and reconnect, discarding in-memory state for
// this kind via a fresh subscription epoch so the store's generation-stamp
// rule synthesizes implicit deletes for anything absent from the new
// snapshot.
func (p *Pool) run(ctx context.Context, kind registry.ResourceKind, scope ScopeSelector, epoch uint64) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		terminal, reconnectEpoch := p.connectAndStream(ctx, kind, scope, epoch)
		if terminal {
			return
		}
		if ctx.Err() != nil {
			return
		}

		epoch = reconnectEpoch
		delay := backoffDelay(attempt)
		attempt++
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// backoffDelay computes min(2^n*1s, 30s) plus up to 20% jitter.
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff * time.Duration(1<<uint(min(attempt, 5)))
	if d > maxBackoff {
		d = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(d) / 5))
	return d + jitter
}

// connectAndStream acquires a handle, lists the current snapshot and
// projects each item as an Added event followed by a Resynced marker (so the
// store's generation-stamp rule discards anything this snapshot no longer
// contains), then watches from the list's resource version and streams
// incremental events until the handle's watch channel closes or ctx is
// cancelled. Because every reconnect re-enters this function from the top,
// Resynced fires again on each reconnect, per spec §4.3 step 3. It returns
// terminal=true when the subscription must never retry (NotFound), along
// with the epoch the next reconnect attempt, if any, should use.
func (p *Pool) connectAndStream(ctx context.Context, kind registry.ResourceKind, scope ScopeSelector, epoch uint64) (terminal bool, nextEpoch uint64) {
	if p.client == nil {
		// Without a transport client there is nothing to watch; the
		// subscription ends as a terminal one.
		return true, epoch
	}
	handle, err := p.client.DynamicAPI(ctx, kind, toTransportScope(scope))
	if err != nil {
		return p.handleError(kind, err, epoch)
	}

	list, err := handle.List(ctx, metav1.ListOptions{})
	if err != nil {
		return p.handleError(kind, err, epoch)
	}

	resyncKey := store.Key{Kind: kind.Name, Namespace: scope.Namespace}
	if scope.AllNamespaces {
		resyncKey.Namespace = ""
	}

	for i := range list.Items {
		p.translate(kind, scope, epoch, k8swatch.Event{Type: k8swatch.Added, Object: &list.Items[i]})
	}
	p.st.Apply(store.Event{
		Kind:              store.Resynced,
		SubscriptionEpoch: epoch,
		Key:               resyncKey,
		AllNamespaces:     scope.AllNamespaces,
	})

	w, err := handle.Watch(ctx, metav1.ListOptions{ResourceVersion: list.GetResourceVersion()})
	if err != nil {
		return p.handleError(kind, err, epoch)
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return true, epoch
		case ev, ok := <-w.ResultChan():
			if !ok {
				// Channel closed by the server or transport; not an error
				// per se, just a disconnect. Reconnect with a bumped epoch.
				return false, p.nextEpoch()
			}
			p.translate(kind, scope, epoch, ev)
		}
	}
}

// nextEpoch allocates a fresh subscription epoch for a reconnect, bumping
// the pool-wide sequence under lock.
func (p *Pool) nextEpoch() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epochSeq++
	return p.epochSeq
}

// translate converts one raw watch.Event into a store.Event and applies it.
// Bookmark and Error event types are not forwarded as resource mutations;
// Error is handled by the caller via the watch channel closing.
func (p *Pool) translate(kind registry.ResourceKind, scope ScopeSelector, epoch uint64, ev k8swatch.Event) {
	obj, ok := ev.Object.(*unstructured.Unstructured)
	if !ok {
		return
	}

	meta := store.KindInfo{SupportsSuspend: kind.SupportsSuspend, InventoryBearing: kind.InventoryBearing}
	key := store.Key{Kind: kind.Name, Namespace: obj.GetNamespace(), Name: obj.GetName()}

	var evKind store.EventKind
	switch ev.Type {
	case k8swatch.Added:
		evKind = store.Added
	case k8swatch.Modified:
		evKind = store.Modified
	case k8swatch.Deleted:
		evKind = store.Deleted
	default:
		return
	}

	p.st.Apply(store.Event{
		Kind:              evKind,
		SubscriptionEpoch: epoch,
		Key:               key,
		KindMeta:          meta,
		Object:            obj.Object,
	})
}

// handleError classifies a transport error and decides the subscription's
// fate: NotFound terminates the subscription permanently after a throttled
// log line, per spec §4.3 step 3; every other kind enters the caller's
// backoff-and-reconnect path.
func (p *Pool) handleError(kind registry.ResourceKind, err error, epoch uint64) (terminal bool, nextEpoch uint64) {
	cls := transport.Classify(err)
	if cls == nil {
		return false, p.nextEpoch()
	}

	if cls.ErrKind == transport.ErrNotFound {
		if p.thr.ShouldLog("watch", kind.Name) {
			p.log.Info("watched kind not found on cluster, stopping subscription permanently", "kind", kind.Name, "error", err)
		}
		return true, epoch
	}

	if p.thr.ShouldLog("watch", kind.Name) {
		p.log.Error(err, "watch error, reconnecting with backoff", "kind", kind.Name, "errorKind", cls.ErrKind)
	}
	return false, p.nextEpoch()
}
