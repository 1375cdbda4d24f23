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

package operation

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/transport"
)

// Dispatcher holds the fixed registry of builtin Operations and spawns each
// invocation as an independent goroutine whose Outcome arrives over a
// one-shot buffered channel, generalizing the teacher's per-repo
// "chan eventqueue.Event" dispatch in its git worker.
type Dispatcher struct {
	ops      map[string]Operation
	client   *transport.Client
	requests uint64
}

// NewDispatcher builds the fixed registry of the five builtin operations.
// resolver may be nil; reconcile-with-source then behaves like plain
// reconcile on the target object only.
func NewDispatcher(client *transport.Client, resolver SourceResolver) *Dispatcher {
	d := &Dispatcher{
		ops:    make(map[string]Operation),
		client: client,
	}
	reconcile := reconcileOp{}
	d.register(suspendOp{})
	d.register(resumeOp{})
	d.register(reconcile)
	d.register(reconcileWithSourceOp{inner: reconcile, resolver: resolver, client: client})
	d.register(deleteOp{})
	return d
}

func (d *Dispatcher) register(op Operation) {
	d.ops[op.Name()] = op
}

// Lookup returns the Operation registered under name, per spec §4.5 step 1.
func (d *Dispatcher) Lookup(name string) (Operation, bool) {
	op, ok := d.ops[name]
	return op, ok
}

// Dispatch allocates a Request ID, resolves the kind's ApiHandle, and spawns
// Execute on a fresh goroutine, writing exactly one Result onto the
// returned channel within opts.Timeout (defaulting to DefaultTimeout).
// Dispatch never blocks: the result channel is buffered with capacity 1, so
// a caller that stops reading (e.g. because the selection context changed)
// never leaks the sending goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, kind registry.ResourceKind, scope transport.Scope, key store.Key, opts Options) (uint64, <-chan Result) {
	id := atomic.AddUint64(&d.requests, 1)
	resultCh := make(chan Result, 1)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	go func() {
		execCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		handle, err := d.client.DynamicAPI(execCtx, kind, scope)
		if err != nil {
			kind, msg := classifyFailure(err)
			resultCh <- Result{RequestID: id, Outcome: Outcome{Success: false, FailKind: kind, Message: fmt.Sprintf("resolving handle: %s", msg)}}
			return
		}

		done := make(chan Outcome, 1)
		go func() {
			done <- op.Execute(execCtx, handle, key, opts)
		}()

		select {
		case out := <-done:
			resultCh <- Result{RequestID: id, Outcome: out}
		case <-execCtx.Done():
			// Fire-and-forget per spec §5: the underlying request is
			// abandoned, not cancelled out from under the server, since
			// patches are idempotent.
			resultCh <- Result{RequestID: id, Outcome: Outcome{
				Success:  false,
				FailKind: FailureTimeout,
				Message:  fmt.Sprintf("Timeout %s/%s", key.Kind, key.Name),
			}}
		}
	}()

	return id, resultCh
}
