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

// Package trace recursively resolves a managed object's ownership chain:
// parent edges via sourceRef, child edges via status.inventory.entries,
// building a bounded ownership DAG. The visited-ResourceKey-set cycle guard
// generalizes correlation.Store's bounded-map discipline, dropping its TTL
// since one trace is a single bounded call rather than a long-lived cache.
package trace

import (
	"context"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/go-logr/logr"

	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/transport"
)

// Node cap and depth cap from spec §4.6, exact values.
const (
	maxNodes = 500
	maxDepth = 16
)

// Status is a TraceNode's resolution outcome.
type Status int

const (
	// Resolved means the referenced object was found, cached or live.
	Resolved Status = iota
	// Missing means the kind isn't in the registry, or the object returned
	// NotFound — a normal, expected degradation, not a trace failure.
	Missing
	// CapExceeded means this branch was aborted because maxNodes or
	// maxDepth was reached.
	CapExceeded
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Missing:
		return "missing"
	default:
		return "error"
	}
}

// GVK identifies the (group, version, kind-name) of a resolved node, when known.
type GVK struct {
	Group   string
	Version string
	Kind    string
}

// InventoryEntry is a reference appearing inside a managing object's
// status.inventory.entries list, per spec §3.
type InventoryEntry struct {
	Kind      string
	Group     string
	Namespace string
	Name      string
}

// Node is one node in the ownership DAG, per spec §3's TraceNode.
type Node struct {
	Key      store.Key
	GVK      *GVK
	Children []*Node
	Status   Status
	Note     string
}

// Engine resolves ownership traces starting from a live ResourceKey.
type Engine struct {
	st     *store.Store
	client *transport.Client
	log    logr.Logger
}

// New builds a trace Engine reading cached entries from st and falling back
// to client for objects the store hasn't seen.
func New(st *store.Store, client *transport.Client, log logr.Logger) *Engine {
	return &Engine{st: st, client: client, log: log}
}

// ResolveSource extracts key's sourceRef, if any, satisfying
// operation.SourceResolver so the reconcile-with-source builtin can resolve
// the upstream object without this package importing internal/operation.
func (e *Engine) ResolveSource(ctx context.Context, key store.Key) (registry.ResourceKind, store.Key, bool, error) {
	_, obj, ok, err := e.fetch(ctx, key)
	if err != nil || !ok {
		return registry.ResourceKind{}, store.Key{}, false, err
	}
	srcKind, srcKey, hasSrc := extractSourceRef(obj, key.Namespace)
	if !hasSrc {
		return registry.ResourceKind{}, store.Key{}, false, nil
	}
	resolvedKind, ok := registry.ByAlias(srcKind)
	if !ok {
		return registry.ResourceKind{}, store.Key{}, false, nil
	}
	return resolvedKind, srcKey, true, nil
}

// Trace resolves the ownership DAG rooted at root, per spec §4.6's six
// numbered steps: fetch, extract sourceRef as the parent edge, extract
// inventory entries as child edges, recurse with a visited-set cycle guard,
// degrade to Missing rather than failing the whole trace, and return the
// rooted TraceNode.
func (e *Engine) Trace(ctx context.Context, root store.Key) *Node {
	count := 0
	visited := make(map[store.Key]bool)
	return e.resolve(ctx, root, visited, &count, 0)
}

func (e *Engine) resolve(ctx context.Context, key store.Key, visited map[store.Key]bool, count *int, depth int) *Node {
	if visited[key] {
		return &Node{Key: key, Status: Resolved, Note: "cycle guard: already visited"}
	}
	if depth > maxDepth {
		return &Node{Key: key, Status: CapExceeded, Note: fmt.Sprintf("depth cap of %d exceeded", maxDepth)}
	}
	*count++
	if *count > maxNodes {
		return &Node{Key: key, Status: CapExceeded, Note: fmt.Sprintf("node cap of %d exceeded", maxNodes)}
	}
	visited[key] = true

	kind, obj, ok, err := e.fetch(ctx, key)
	if err != nil || !ok {
		return &Node{Key: key, Status: Missing, Note: missingNote(key, err)}
	}

	node := &Node{Key: key, Status: Resolved}
	if kind.Group != "" || kind.Version != "" {
		node.GVK = &GVK{Group: kind.Group, Version: kind.Version, Kind: kind.Name}
	}

	if kind.SupportsReconcileWithSource {
		if srcKind, srcKey, hasSrc := extractSourceRef(obj, key.Namespace); hasSrc {
			_ = srcKind
			node.Children = append(node.Children, e.resolve(ctx, srcKey, visited, count, depth+1))
		}
	}

	if kind.InventoryBearing {
		for _, inv := range extractInventory(obj) {
			childKey := store.Key{Kind: inv.Kind, Namespace: inv.Namespace, Name: inv.Name}
			node.Children = append(node.Children, e.resolveInventoryChild(ctx, inv, childKey, visited, count, depth+1))
		}
	}

	return node
}

// resolveInventoryChild resolves an inventory entry. Inventory kinds are
// typically plain Kubernetes object kinds (Deployment, ConfigMap, ...) that
// fall outside the Flux-kind registry; per spec step 5, a kind the registry
// can't resolve degrades to Missing rather than aborting the trace.
func (e *Engine) resolveInventoryChild(ctx context.Context, inv InventoryEntry, key store.Key, visited map[store.Key]bool, count *int, depth int) *Node {
	if _, ok := registry.ByAlias(inv.Kind); !ok {
		return &Node{Key: key, Status: Missing, Note: "kind not present in resource registry"}
	}
	return e.resolve(ctx, key, visited, count, depth)
}

func missingNote(key store.Key, err error) string {
	if err == nil {
		return fmt.Sprintf("%s/%s not found", key.Kind, key.Name)
	}
	cls := transport.Classify(err)
	if cls != nil && cls.ErrKind == transport.ErrNotFound {
		return fmt.Sprintf("%s/%s not found", key.Kind, key.Name)
	}
	return fmt.Sprintf("%s/%s: %s", key.Kind, key.Name, err.Error())
}

// fetch returns the live object for key, preferring the store's cached
// projection and falling back to a direct Get through the transport.
func (e *Engine) fetch(ctx context.Context, key store.Key) (registry.ResourceKind, map[string]interface{}, bool, error) {
	kind, ok := registry.ByAlias(key.Kind)
	if !ok {
		return registry.ResourceKind{}, nil, false, nil
	}

	if entry, ok := e.st.Get(key); ok {
		return kind, entry.Raw, true, nil
	}
	if e.client == nil {
		return kind, nil, false, nil
	}

	scope := transport.Scope{Namespace: key.Namespace}
	if kind.Scope == registry.ScopeCluster {
		scope = transport.Scope{Cluster: true}
	}
	handle, err := e.client.DynamicAPI(ctx, kind, scope)
	if err != nil {
		return kind, nil, false, err
	}
	obj, err := handle.Get(ctx, key.Namespace, key.Name)
	if err != nil {
		return kind, nil, false, err
	}
	return kind, obj.Object, true, nil
}

// extractSourceRef reads spec.sourceRef.{kind,name,namespace}, defaulting
// namespace to the owning object's own namespace when absent, per spec §4.6
// step 2.
func extractSourceRef(obj map[string]interface{}, defaultNamespace string) (string, store.Key, bool) {
	ref, found, err := unstructured.NestedMap(obj, "spec", "sourceRef")
	if err != nil || !found {
		return "", store.Key{}, false
	}
	kind, _ := ref["kind"].(string)
	name, _ := ref["name"].(string)
	if kind == "" || name == "" {
		return "", store.Key{}, false
	}
	namespace, _ := ref["namespace"].(string)
	if namespace == "" {
		namespace = defaultNamespace
	}
	return kind, store.Key{Kind: kind, Namespace: namespace, Name: name}, true
}

// extractInventory parses status.inventory.entries, whose "id" field uses
// the "<namespace>_<name>_<group>_<kind>" layout, in input order.
func extractInventory(obj map[string]interface{}) []InventoryEntry {
	entries, found, err := unstructured.NestedSlice(obj, "status", "inventory", "entries")
	if err != nil || !found {
		return nil
	}

	out := make([]InventoryEntry, 0, len(entries))
	for _, e := range entries {
		em, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := em["id"].(string)
		entry, ok := parseInventoryID(id)
		if !ok {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func parseInventoryID(id string) (InventoryEntry, bool) {
	parts := strings.SplitN(id, "_", 4)
	if len(parts) != 4 {
		return InventoryEntry{}, false
	}
	return InventoryEntry{
		Namespace: parts[0],
		Name:      parts[1],
		Group:     parts[2],
		Kind:      parts[3],
	}, true
}
