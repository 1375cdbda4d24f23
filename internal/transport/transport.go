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

package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/fluxview/fluxview/internal/registry"
)

// mergePatchType is the only patch flavor this package issues, per the
// spec's "patches are JSON-merge" rule.
const mergePatchType = types.MergePatchType

// deletePropagationBackground is the default propagation policy for Delete,
// per the spec's "delete propagation defaults to Background" rule.
var deletePropagationBackground = metav1.DeletePropagationBackground

// Scope selects a namespaced or cluster-wide handle for a kind.
type Scope struct {
	Namespace string // empty means cluster-wide or "all namespaces"
	Cluster   bool
}

// ApiHandle is a bound, version-resolved client for one ResourceKind.
type ApiHandle interface {
	// List returns the current snapshot for this kind's scope, used to seed
	// a fresh subscription (or reconnect) with Added events before Watch
	// takes over from the list's resource version.
	List(ctx context.Context, opts metav1.ListOptions) (*unstructured.UnstructuredList, error)
	Watch(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error)
	Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error)
	Patch(ctx context.Context, namespace, name string, patchJSON []byte) (*unstructured.Unstructured, error)
	Delete(ctx context.Context, namespace, name string) error
	// ResolvedVersion is the API version this handle ended up bound to,
	// after the version-fallback probe in Client.DynamicAPI.
	ResolvedVersion() string
}

// Client produces authenticated ApiHandles and owns context switching.
//
// Switching invalidates all previously issued handles: each handle is
// stamped with the generation it was created under, and every method
// returns ErrStale once the client's generation has moved past it, so
// callers (the watcher pool) know to re-subscribe rather than silently
// talk to the old cluster.
type Client struct {
	mu          sync.RWMutex
	loader      clientcmd.ClientConfig
	currentCtx  string
	dynamicIf   dynamic.Interface
	discoveryIf discovery.DiscoveryInterface
	generation  uint64

	// resolvedVersions caches, per (group, plural), the API version that
	// answered non-NotFound on first use, so repeat calls skip the probe.
	resolvedVersions map[string]string

	log logr.Logger
}

// ErrStale is returned by a handle whose client generation has advanced
// past the generation it was issued under.
var ErrStale = fmt.Errorf("transport: stale handle, context was switched")

// NewClient loads the kubeconfig at path (empty string means the default
// loading rules: $KUBECONFIG then ~/.kube/config), and binds to the
// requested context (empty string means the config's current-context).
func NewClient(kubeconfigPath, contextName string, log logr.Logger) (*Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}
	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}
	loader := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)

	c := &Client{
		loader:           loader,
		resolvedVersions: make(map[string]string),
		log:              log,
	}
	if err := c.rebuild(contextName); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) rebuild(contextName string) error {
	restCfg, err := c.loader.ClientConfig()
	if err != nil {
		return &Error{ErrKind: ErrAuth, Err: fmt.Errorf("loading kubeconfig: %w", err)}
	}

	dyn, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return &Error{ErrKind: ErrAuth, Err: fmt.Errorf("building dynamic client: %w", err)}
	}
	disco, err := discovery.NewDiscoveryClientForConfig(restCfg)
	if err != nil {
		return &Error{ErrKind: ErrAuth, Err: fmt.Errorf("building discovery client: %w", err)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dynamicIf = dyn
	c.discoveryIf = disco
	c.generation++
	c.resolvedVersions = make(map[string]string)
	if contextName != "" {
		c.currentCtx = contextName
	}
	return nil
}

// ListContexts returns every context name defined in the loaded kubeconfig.
func (c *Client) ListContexts() ([]string, error) {
	raw, err := c.loader.RawConfig()
	if err != nil {
		return nil, &Error{ErrKind: ErrAuth, Err: err}
	}
	out := make([]string, 0, len(raw.Contexts))
	for name := range raw.Contexts {
		out = append(out, name)
	}
	return out, nil
}

// CurrentContext returns the context the client is presently bound to.
func (c *Client) CurrentContext() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentCtx
}

// SwitchContext rebuilds the client against a different kubeconfig context.
// All handles issued before this call become stale; callers must re-fetch
// via DynamicAPI and re-subscribe.
func (c *Client) SwitchContext(name string) error {
	return c.rebuild(name)
}

// Generation returns the client's current generation counter, bumped on
// every successful context switch.
func (c *Client) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// DynamicAPI resolves a version for kind (trying Version then each
// FallbackVersion, in order, caching the first that doesn't answer
// NotFound on a list probe) and returns an ApiHandle bound to that version
// and the requested scope.
func (c *Client) DynamicAPI(ctx context.Context, kind registry.ResourceKind, scope Scope) (ApiHandle, error) {
	c.mu.RLock()
	dyn := c.dynamicIf
	gen := c.generation
	cacheKey := kind.Group + "/" + kind.Plural
	cached, hasCached := c.resolvedVersions[cacheKey]
	c.mu.RUnlock()

	version := cached
	if !hasCached {
		versions := kind.Versions()
		resolved := ""
		var lastErr error
		for _, v := range versions {
			gvr := schema.GroupVersionResource{Group: kind.Group, Version: v, Resource: kind.Plural}
			ri := scopedResourceInterface(dyn, gvr, scope)
			_, err := ri.List(ctx, metav1.ListOptions{Limit: 1})
			if err == nil {
				resolved = v
				break
			}
			lastErr = err
			if !isNotFoundVersion(err) {
				// A non-NotFound error (auth, network) stops the probe
				// rather than falling through to the next version: this
				// version is taken as resolved and cached, and the error
				// shows up again on the handle's own calls.
				resolved = v
				break
			}
		}
		if resolved == "" {
			if lastErr != nil {
				return nil, Classify(lastErr)
			}
			return nil, &Error{ErrKind: ErrNotFound, Resource: kind.Name, Err: fmt.Errorf("no served version found for %s", kind.Name)}
		}
		version = resolved
		c.mu.Lock()
		if gen == c.generation {
			c.resolvedVersions[cacheKey] = version
		}
		c.mu.Unlock()
	}

	gvr := schema.GroupVersionResource{Group: kind.Group, Version: version, Resource: kind.Plural}
	return &dynamicHandle{
		client:     c,
		generation: gen,
		gvr:        gvr,
		ri:         scopedResourceInterface(dyn, gvr, scope),
		version:    version,
	}, nil
}

func scopedResourceInterface(dyn dynamic.Interface, gvr schema.GroupVersionResource, scope Scope) dynamic.ResourceInterface {
	if scope.Cluster || scope.Namespace == "" {
		return dyn.Resource(gvr)
	}
	return dyn.Resource(gvr).Namespace(scope.Namespace)
}

func isNotFoundVersion(err error) bool {
	cls := Classify(err)
	return cls != nil && cls.ErrKind == ErrNotFound
}

// DiscoveryClient exposes the raw discovery interface for components that
// need server-wide resource listing rather than a single kind's version
// probe. No component in this module calls it at present.
func (c *Client) DiscoveryClient() discovery.DiscoveryInterface {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.discoveryIf
}

type dynamicHandle struct {
	client     *Client
	generation uint64
	gvr        schema.GroupVersionResource
	ri         dynamic.ResourceInterface
	version    string
}

func (h *dynamicHandle) checkStale() error {
	if h.client.Generation() != h.generation {
		return ErrStale
	}
	return nil
}

func (h *dynamicHandle) List(ctx context.Context, opts metav1.ListOptions) (*unstructured.UnstructuredList, error) {
	if err := h.checkStale(); err != nil {
		return nil, err
	}
	list, err := h.ri.List(ctx, opts)
	if err != nil {
		return nil, Classify(err)
	}
	return list, nil
}

func (h *dynamicHandle) Watch(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error) {
	if err := h.checkStale(); err != nil {
		return nil, err
	}
	w, err := h.ri.Watch(ctx, opts)
	if err != nil {
		return nil, Classify(err)
	}
	return w, nil
}

func (h *dynamicHandle) Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	if err := h.checkStale(); err != nil {
		return nil, err
	}
	ri := h.ri
	if namespace != "" {
		ri = h.client.dynamicIf.Resource(h.gvr).Namespace(namespace)
	}
	obj, err := ri.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, Classify(err)
	}
	return obj, nil
}

func (h *dynamicHandle) Patch(ctx context.Context, namespace, name string, patchJSON []byte) (*unstructured.Unstructured, error) {
	if err := h.checkStale(); err != nil {
		return nil, err
	}
	ri := h.ri
	if namespace != "" {
		ri = h.client.dynamicIf.Resource(h.gvr).Namespace(namespace)
	}
	obj, err := ri.Patch(ctx, name, mergePatchType, patchJSON, metav1.PatchOptions{})
	if err != nil {
		return nil, Classify(err)
	}
	return obj, nil
}

func (h *dynamicHandle) Delete(ctx context.Context, namespace, name string) error {
	if err := h.checkStale(); err != nil {
		return err
	}
	ri := h.ri
	if namespace != "" {
		ri = h.client.dynamicIf.Resource(h.gvr).Namespace(namespace)
	}
	bg := deletePropagationBackground
	if err := ri.Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &bg}); err != nil {
		return Classify(err)
	}
	return nil
}

func (h *dynamicHandle) ResolvedVersion() string { return h.version }
