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

package e2e

import (
	"context"
	"encoding/json"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/fluxview/fluxview/internal/operation"
	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/trace"
	"github.com/fluxview/fluxview/internal/transport"
)

func kustomizationMeta() store.KindInfo {
	return store.KindInfo{SupportsSuspend: true, InventoryBearing: true}
}

func withReady(ready bool) map[string]interface{} {
	status := "True"
	if !ready {
		status = "False"
	}
	return map[string]interface{}{
		"status": map[string]interface{}{
			"conditions": []interface{}{
				map[string]interface{}{"type": "Ready", "status": status},
			},
		},
	}
}

var _ = Describe("watch-and-render baseline", func() {
	It("projects a single Added plus Resynced into a ready snapshot entry", func() {
		st := store.New()
		key := store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "apps"}

		st.Apply(store.Event{Kind: store.Added, Key: key, KindMeta: kustomizationMeta(), Object: withReady(true)})
		st.Apply(store.Event{Kind: store.Resynced, Key: key, SubscriptionEpoch: 0})

		snap := st.Snapshot(store.Filter{})
		Expect(snap).To(HaveLen(1))
		Expect(snap[0].Key).To(Equal(key))
		Expect(snap[0].Ready).To(Equal(store.ReadyTrue))
	})
})

var _ = Describe("modify race", func() {
	It("keeps only the last write, with no duplicate entries", func() {
		st := store.New()
		key := store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "x"}

		st.Apply(store.Event{Kind: store.Added, Key: key, KindMeta: kustomizationMeta(), Object: withReady(false)})
		st.Apply(store.Event{Kind: store.Modified, Key: key, KindMeta: kustomizationMeta(), Object: withReady(true)})
		st.Apply(store.Event{Kind: store.Modified, Key: key, KindMeta: kustomizationMeta(), Object: withReady(false)})

		snap := st.Snapshot(store.Filter{})
		Expect(snap).To(HaveLen(1))
		Expect(snap[0].Ready).To(Equal(store.ReadyFalse))
	})
})

var _ = Describe("delete absence", func() {
	It("tolerates a replayed delete with no error and no lingering entry", func() {
		st := store.New()
		key := store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "y"}

		st.Apply(store.Event{Kind: store.Added, Key: key, KindMeta: kustomizationMeta(), Object: map[string]interface{}{}})
		st.Apply(store.Event{Kind: store.Deleted, Key: key})
		st.Apply(store.Event{Kind: store.Deleted, Key: key})

		_, ok := st.Get(key)
		Expect(ok).To(BeFalse())
		Expect(st.Snapshot(store.Filter{})).To(BeEmpty())
	})
})

// recordingHandle is a transport.ApiHandle double that records the last
// patch it was asked to apply, used to assert the exact PATCH body a
// suspend/resume/reconcile issues without a live cluster.
type recordingHandle struct {
	lastPatch []byte
}

func (h *recordingHandle) List(context.Context, metav1.ListOptions) (*unstructured.UnstructuredList, error) {
	return &unstructured.UnstructuredList{}, nil
}

func (h *recordingHandle) Watch(context.Context, metav1.ListOptions) (watch.Interface, error) {
	return nil, nil
}

func (h *recordingHandle) Get(context.Context, string, string) (*unstructured.Unstructured, error) {
	return &unstructured.Unstructured{Object: map[string]interface{}{}}, nil
}

func (h *recordingHandle) Patch(ctx context.Context, namespace, name string, patchJSON []byte) (*unstructured.Unstructured, error) {
	h.lastPatch = patchJSON
	return &unstructured.Unstructured{Object: map[string]interface{}{}}, nil
}

func (h *recordingHandle) Delete(context.Context, string, string) error { return nil }

func (h *recordingHandle) ResolvedVersion() string { return "v1" }

var _ = Describe("suspend operation success", func() {
	It("issues exactly one merge patch and reports the suspended status message", func() {
		dispatch := operation.NewDispatcher(nil, nil)
		op, ok := dispatch.Lookup("suspend")
		Expect(ok).To(BeTrue())

		kind, ok := registry.ByAlias("Kustomization")
		Expect(ok).To(BeTrue())

		key := store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "apps"}
		handle := &recordingHandle{}
		outcome := op.Execute(context.Background(), handle, key, operation.Options{})

		Expect(outcome.Success).To(BeTrue())
		Expect(outcome.Message).To(Equal("Suspended Kustomization/apps"))

		var patch map[string]interface{}
		Expect(json.Unmarshal(handle.lastPatch, &patch)).To(Succeed())
		Expect(patch).To(Equal(map[string]interface{}{
			"spec": map[string]interface{}{"suspend": true},
		}))

		// Applying the server's resulting object, as a watcher would once the
		// patch round-trips, shows suspend=true reflected in the store.
		st := store.New()
		st.Apply(store.Event{
			Kind:     store.Modified,
			Key:      key,
			KindMeta: kustomizationMeta(),
			Object:   map[string]interface{}{"spec": map[string]interface{}{"suspend": true}},
		})
		entry, ok := st.Get(key)
		Expect(ok).To(BeTrue())
		Expect(entry.Suspended).To(BeTrue())
		_ = kind
	})
})

var _ = Describe("reconcile of suspended resource", func() {
	It("refuses without issuing any request", func() {
		dispatch := operation.NewDispatcher(nil, nil)
		op, ok := dispatch.Lookup("reconcile")
		Expect(ok).To(BeTrue())

		kind, ok := registry.ByAlias("Kustomization")
		Expect(ok).To(BeTrue())

		entry := store.Entry{Key: store.Key{Kind: "Kustomization", Name: "apps"}, Suspended: true}
		Expect(op.ApplicableTo(kind, entry)).To(BeFalse())
	})
})

var _ = Describe("trace", func() {
	It("resolves the sourceRef parent and enumerates inventory children in order", func() {
		st := store.New()
		rootKey := store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "apps"}
		st.Apply(store.Event{
			Kind:     store.Added,
			Key:      rootKey,
			KindMeta: kustomizationMeta(),
			Object: map[string]interface{}{
				"spec": map[string]interface{}{
					"sourceRef": map[string]interface{}{
						"kind": "GitRepository",
						"name": "repo",
					},
				},
				"status": map[string]interface{}{
					"inventory": map[string]interface{}{
						"entries": []interface{}{
							map[string]interface{}{"id": "flux-system_podinfo_helm.toolkit.fluxcd.io_HelmRelease"},
						},
					},
				},
			},
		})

		sourceKey := store.Key{Kind: "GitRepository", Namespace: "flux-system", Name: "repo"}
		st.Apply(store.Event{
			Kind:     store.Added,
			Key:      sourceKey,
			KindMeta: store.KindInfo{},
			Object:   map[string]interface{}{},
		})

		engine := trace.New(st, nil, logr.Discard())
		node := engine.Trace(context.Background(), rootKey)

		Expect(node.Status).To(Equal(trace.Resolved))
		Expect(node.Children).To(HaveLen(2))
		Expect(node.Children[0].Key).To(Equal(sourceKey))
		Expect(node.Children[0].Status).To(Equal(trace.Resolved))
		Expect(node.Children[1].Key.Kind).To(Equal("HelmRelease"))
	})
})
