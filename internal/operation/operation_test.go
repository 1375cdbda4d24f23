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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/transport"
)

// fakeHandle is a minimal transport.ApiHandle double recording the last
// patch applied and letting tests script Get/Delete/Patch errors.
type fakeHandle struct {
	lastPatch  []byte
	patchErr   error
	deleteErr  error
	deleted    bool
	delayPatch time.Duration
}

func (f *fakeHandle) List(context.Context, metav1.ListOptions) (*unstructured.UnstructuredList, error) {
	return &unstructured.UnstructuredList{}, nil
}

func (f *fakeHandle) Watch(context.Context, metav1.ListOptions) (watch.Interface, error) {
	return nil, nil
}

func (f *fakeHandle) Get(context.Context, string, string) (*unstructured.Unstructured, error) {
	return nil, nil
}

func (f *fakeHandle) Patch(ctx context.Context, _, _ string, patchJSON []byte) (*unstructured.Unstructured, error) {
	if f.delayPatch > 0 {
		select {
		case <-time.After(f.delayPatch):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	f.lastPatch = patchJSON
	return &unstructured.Unstructured{}, nil
}

func (f *fakeHandle) Delete(context.Context, string, string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = true
	return nil
}

func (f *fakeHandle) ResolvedVersion() string { return "v1" }

func TestSuspendOp_IssuesMergePatch(t *testing.T) {
	h := &fakeHandle{}
	op := suspendOp{}
	out := op.Execute(context.Background(), h, store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "apps"}, Options{})

	require.True(t, out.Success)
	assert.Contains(t, out.Message, "Suspended Kustomization/apps")

	var patch map[string]map[string]bool
	require.NoError(t, json.Unmarshal(h.lastPatch, &patch))
	assert.Equal(t, true, patch["spec"]["suspend"])
}

func TestResumeOp_IssuesMergePatch(t *testing.T) {
	h := &fakeHandle{}
	op := resumeOp{}
	out := op.Execute(context.Background(), h, store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "apps"}, Options{})
	require.True(t, out.Success)

	var patch map[string]map[string]bool
	require.NoError(t, json.Unmarshal(h.lastPatch, &patch))
	assert.Equal(t, false, patch["spec"]["suspend"])
}

func TestReconcileOp_ApplicableOnlyWhenNotSuspended(t *testing.T) {
	kind := registry.ResourceKind{SupportsReconcile: true}
	op := reconcileOp{}

	assert.True(t, op.ApplicableTo(kind, store.Entry{Suspended: false}))
	assert.False(t, op.ApplicableTo(kind, store.Entry{Suspended: true}))
}

func TestReconcileOp_PatchesAnnotationWithRFC3339Now(t *testing.T) {
	fixed := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	op := reconcileOp{nowFn: func() time.Time { return fixed }}
	h := &fakeHandle{}

	out := op.Execute(context.Background(), h, store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "apps"}, Options{})
	require.True(t, out.Success)

	var patch map[string]map[string]map[string]string
	require.NoError(t, json.Unmarshal(h.lastPatch, &patch))
	assert.Equal(t, "2026-07-29T12:00:00Z", patch["metadata"]["annotations"]["reconcile.fluxcd.io/requestedAt"])
}

func TestDeleteOp_RequiresConfirmationAndDeletes(t *testing.T) {
	op := deleteOp{}
	assert.True(t, op.RequiresConfirmation())

	h := &fakeHandle{}
	out := op.Execute(context.Background(), h, store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "apps"}, Options{})
	require.True(t, out.Success)
	assert.True(t, h.deleted)
}

func TestDeleteOp_ApplicableToEveryKind(t *testing.T) {
	op := deleteOp{}
	assert.True(t, op.ApplicableTo(registry.ResourceKind{}, store.Entry{}))
}

func TestPatchOutcome_ClassifiesNotFoundFailure(t *testing.T) {
	h := &fakeHandle{patchErr: &transport.Error{ErrKind: transport.ErrNotFound, Err: assertError{"gone"}}}
	op := suspendOp{}
	out := op.Execute(context.Background(), h, store.Key{Kind: "Kustomization", Namespace: "ns", Name: "x"}, Options{})

	assert.False(t, out.Success)
	assert.Equal(t, FailureNotFound, out.FailKind)
}

type assertError struct{ msg string }

func (a assertError) Error() string { return a.msg }
