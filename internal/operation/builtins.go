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
	"time"

	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/transport"
)

// reconcileAnnotation is the annotation reconcile patches to force an
// immediate reconciliation. Resolved per DESIGN.md's Open Question answer.
const reconcileAnnotation = "reconcile.fluxcd.io/requestedAt"

// suspendOp implements the "suspend" builtin.
type suspendOp struct{}

func (suspendOp) Name() string { return "suspend" }

func (suspendOp) ApplicableTo(kind registry.ResourceKind, _ store.Entry) bool {
	return kind.SupportsSuspend
}

func (suspendOp) RequiresConfirmation() bool { return false }

func (suspendOp) Execute(ctx context.Context, handle transport.ApiHandle, key store.Key, _ Options) Outcome {
	return patchOutcome(ctx, handle, key, []byte(`{"spec":{"suspend":true}}`), "Suspended")
}

// resumeOp implements the "resume" builtin.
type resumeOp struct{}

func (resumeOp) Name() string { return "resume" }

func (resumeOp) ApplicableTo(kind registry.ResourceKind, _ store.Entry) bool {
	return kind.SupportsSuspend
}

func (resumeOp) RequiresConfirmation() bool { return false }

func (resumeOp) Execute(ctx context.Context, handle transport.ApiHandle, key store.Key, _ Options) Outcome {
	return patchOutcome(ctx, handle, key, []byte(`{"spec":{"suspend":false}}`), "Resumed")
}

// reconcileOp implements the "reconcile" builtin. Applicability additionally
// requires the entry not be currently suspended, per spec §4.5's table.
type reconcileOp struct {
	nowFn func() time.Time
}

func (r reconcileOp) Name() string { return "reconcile" }

func (r reconcileOp) ApplicableTo(kind registry.ResourceKind, entry store.Entry) bool {
	return kind.SupportsReconcile && !entry.Suspended
}

func (r reconcileOp) RequiresConfirmation() bool { return false }

func (r reconcileOp) now() time.Time {
	if r.nowFn != nil {
		return r.nowFn()
	}
	return time.Now()
}

func (r reconcileOp) Execute(ctx context.Context, handle transport.ApiHandle, key store.Key, _ Options) Outcome {
	patch := fmt.Sprintf(`{"metadata":{"annotations":{%q:%q}}}`, reconcileAnnotation, r.now().UTC().Format(time.RFC3339))
	return patchOutcome(ctx, handle, key, []byte(patch), "Reconciling")
}

// reconcileWithSourceOp implements "reconcile-with-source": an equivalent
// reconcile on the resolved source object, followed by the same reconcile
// on the target, per spec §4.5.
type reconcileWithSourceOp struct {
	inner    reconcileOp
	resolver SourceResolver
	client   *transport.Client
}

func (r reconcileWithSourceOp) Name() string { return "reconcile-with-source" }

func (r reconcileWithSourceOp) ApplicableTo(kind registry.ResourceKind, entry store.Entry) bool {
	return kind.SupportsReconcileWithSource && !entry.Suspended
}

func (r reconcileWithSourceOp) RequiresConfirmation() bool { return false }

func (r reconcileWithSourceOp) Execute(ctx context.Context, handle transport.ApiHandle, key store.Key, opts Options) Outcome {
	if r.resolver != nil && r.client != nil {
		srcKind, srcKey, ok, err := r.resolver.ResolveSource(ctx, key)
		if err != nil {
			kind, msg := classifyFailure(err)
			return Outcome{Success: false, FailKind: kind, Message: fmt.Sprintf("resolving source for %s/%s: %s", key.Kind, key.Name, msg)}
		}
		if ok {
			srcHandle, err := r.client.DynamicAPI(ctx, srcKind, transport.Scope{Namespace: srcKey.Namespace})
			if err != nil {
				kind, msg := classifyFailure(err)
				return Outcome{Success: false, FailKind: kind, Message: fmt.Sprintf("resolving source handle for %s/%s: %s", srcKey.Kind, srcKey.Name, msg)}
			}
			if out := r.inner.Execute(ctx, srcHandle, srcKey, opts); !out.Success {
				return out
			}
		}
	}
	return r.inner.Execute(ctx, handle, key, opts)
}

// deleteOp implements "delete": applicable to every kind, always requires
// confirmation, and deletes with Background propagation per spec §4.5.
type deleteOp struct{}

func (deleteOp) Name() string { return "delete" }

func (deleteOp) ApplicableTo(_ registry.ResourceKind, _ store.Entry) bool { return true }

func (deleteOp) RequiresConfirmation() bool { return true }

func (deleteOp) Execute(ctx context.Context, handle transport.ApiHandle, key store.Key, _ Options) Outcome {
	if err := handle.Delete(ctx, key.Namespace, key.Name); err != nil {
		kind, msg := classifyFailure(err)
		return Outcome{Success: false, FailKind: kind, Message: fmt.Sprintf("%s %s/%s: %s", kind, key.Kind, key.Name, msg)}
	}
	return Outcome{Success: true, Message: fmt.Sprintf("Deleted %s/%s", key.Kind, key.Name)}
}
