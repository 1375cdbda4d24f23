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

// Package operation implements the mutating lifecycle operations
// (suspend, resume, reconcile, reconcile-with-source, delete) as a
// fixed registry of Operation implementations, generalizing the teacher's
// WorkerManager.workers map[BranchKey]*BranchWorker fixed-registry shape
// from "one worker per branch" to "one Operation per verb".
package operation

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/transport"
)

// DefaultTimeout is the hard per-operation timeout from spec §5; the
// underlying request is abandoned (fire-and-forget) once it elapses.
const DefaultTimeout = 30 * time.Second

// Options carries the enumerated per-request knobs from spec §3's
// OperationRequest.options.
type Options struct {
	Timeout    time.Duration
	WithSource bool
	Cascade    bool
}

// FailureKind is the stable taxonomy an Outcome's Failure case reports.
type FailureKind string

const (
	FailureNotFound  FailureKind = "NotFound"
	FailureConflict  FailureKind = "Conflict"
	FailureForbidden FailureKind = "Forbidden"
	FailureNetwork   FailureKind = "Network"
	FailureTimeout   FailureKind = "Timeout"
	FailureUnknown   FailureKind = "Unknown"
)

// Outcome is the result of executing one operation.
type Outcome struct {
	Success  bool
	Message  string
	FailKind FailureKind
}

// Request is one dispatched OperationRequest, created on keypress and
// retired once its Result is delivered or dropped.
type Request struct {
	ID      uint64
	OpName  string
	Key     store.Key
	Kind    registry.ResourceKind
	Options Options
}

// Result pairs a Request's ID with its eventual Outcome.
type Result struct {
	RequestID uint64
	Outcome   Outcome
}

// SourceResolver resolves the sourceRef of a managed object, used by
// reconcile-with-source to locate the upstream object to reconcile first.
// The Trace Engine supplies the concrete implementation; operation stays
// decoupled from internal/trace to avoid an import cycle.
type SourceResolver interface {
	ResolveSource(ctx context.Context, key store.Key) (registry.ResourceKind, store.Key, bool, error)
}

// Operation is the small polymorphic interface every builtin mutating verb
// implements, named directly by spec §4.5.
type Operation interface {
	Name() string
	ApplicableTo(kind registry.ResourceKind, entry store.Entry) bool
	RequiresConfirmation() bool
	Execute(ctx context.Context, handle transport.ApiHandle, key store.Key, opts Options) Outcome
}

func classifyFailure(err error) (FailureKind, string) {
	cls, ok := err.(*transport.Error)
	if !ok {
		cls = transport.Classify(err)
	}
	if cls == nil {
		return FailureUnknown, err.Error()
	}
	switch cls.ErrKind {
	case transport.ErrNotFound:
		return FailureNotFound, err.Error()
	case transport.ErrConflict:
		return FailureConflict, err.Error()
	case transport.ErrForbidden, transport.ErrUnauthorized:
		return FailureForbidden, err.Error()
	case transport.ErrNetwork:
		return FailureNetwork, err.Error()
	case transport.ErrTimeout:
		return FailureTimeout, err.Error()
	default:
		return FailureUnknown, err.Error()
	}
}

func patchOutcome(ctx context.Context, handle transport.ApiHandle, key store.Key, patch []byte, successMsg string) Outcome {
	_, err := handle.Patch(ctx, key.Namespace, key.Name, patch)
	if err != nil {
		kind, msg := classifyFailure(err)
		return Outcome{Success: false, FailKind: kind, Message: fmt.Sprintf("%s %s/%s: %s", kind, key.Kind, key.Name, msg)}
	}
	return Outcome{Success: true, Message: fmt.Sprintf("%s %s/%s", successMsg, key.Kind, key.Name)}
}
