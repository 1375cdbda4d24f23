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

// Package registry is the single source of truth for which resource kinds
// fluxview monitors: their group, version(s), plural name, display label,
// and the lifecycle operations they support. The table is static and
// defined at build time; every other component resolves kind metadata
// through this package rather than hardcoding it.
package registry

import "strings"

// Scope describes whether a kind is namespaced or cluster-wide.
type Scope string

const (
	// ScopeNamespaced means objects of the kind live inside a namespace.
	ScopeNamespaced Scope = "Namespaced"
	// ScopeCluster means objects of the kind have no namespace.
	ScopeCluster Scope = "Cluster"
)

// ResourceKind is the immutable, build-time identity of a monitored kind.
type ResourceKind struct {
	// Name is the canonical display name, e.g. "Kustomization".
	Name string
	// Group is the API group, e.g. "kustomize.toolkit.fluxcd.io".
	Group string
	// Version is the primary (preferred) API version.
	Version string
	// FallbackVersions lists additional served versions to try, in order,
	// when the primary version is not available on a given cluster.
	FallbackVersions []string
	// Plural is the API plural resource name, e.g. "kustomizations".
	Plural string
	// Scope is Namespaced or Cluster.
	Scope Scope
	// Aliases are additional case-insensitive names that resolve to this kind.
	Aliases []string

	// SupportsSuspend indicates the kind has a spec.suspend field.
	SupportsSuspend bool
	// SupportsReconcile indicates the kind honors the reconcile request annotation.
	SupportsReconcile bool
	// SupportsReconcileWithSource indicates the kind has a sourceRef that can
	// itself be asked to reconcile first.
	SupportsReconcileWithSource bool
	// InventoryBearing indicates status.inventory.entries carries managed objects.
	InventoryBearing bool
}

// Versions returns every version to probe, in fallback order: the primary
// version first, then each FallbackVersions entry.
func (k ResourceKind) Versions() []string {
	out := make([]string, 0, 1+len(k.FallbackVersions))
	out = append(out, k.Version)
	out = append(out, k.FallbackVersions...)
	return out
}

// kinds is the static table of monitored resource kinds. It covers the
// source.toolkit.fluxcd.io, kustomize.toolkit.fluxcd.io,
// helm.toolkit.fluxcd.io, notification.toolkit.fluxcd.io, and
// image.toolkit.fluxcd.io groups, mirroring what a real GitOps monitor
// watches end to end rather than only the kind named in any one example.
var kinds = []ResourceKind{
	{
		Name: "Kustomization", Group: "kustomize.toolkit.fluxcd.io", Version: "v1",
		FallbackVersions: []string{"v1beta2", "v1beta1"},
		Plural:           "kustomizations", Scope: ScopeNamespaced,
		Aliases:                     []string{"ks", "kustomizations"},
		SupportsSuspend:             true,
		SupportsReconcile:           true,
		SupportsReconcileWithSource: true,
		InventoryBearing:            true,
	},
	{
		Name: "HelmRelease", Group: "helm.toolkit.fluxcd.io", Version: "v2",
		FallbackVersions: []string{"v2beta2", "v2beta1"},
		Plural:           "helmreleases", Scope: ScopeNamespaced,
		Aliases:                     []string{"hr", "helmreleases"},
		SupportsSuspend:             true,
		SupportsReconcile:           true,
		SupportsReconcileWithSource: true,
		InventoryBearing:            true,
	},
	{
		Name: "GitRepository", Group: "source.toolkit.fluxcd.io", Version: "v1",
		FallbackVersions: []string{"v1beta2"},
		Plural:           "gitrepositories", Scope: ScopeNamespaced,
		Aliases:           []string{"gitrepo", "gitrepository", "gitrepositories"},
		SupportsSuspend:   true,
		SupportsReconcile: true,
	},
	{
		Name: "OCIRepository", Group: "source.toolkit.fluxcd.io", Version: "v1",
		FallbackVersions: []string{"v1beta2"},
		Plural:           "ocirepositories", Scope: ScopeNamespaced,
		Aliases:           []string{"ocirepo", "ocirepository", "ocirepositories"},
		SupportsSuspend:   true,
		SupportsReconcile: true,
	},
	{
		Name: "HelmRepository", Group: "source.toolkit.fluxcd.io", Version: "v1",
		FallbackVersions: []string{"v1beta2"},
		Plural:           "helmrepositories", Scope: ScopeNamespaced,
		Aliases:           []string{"helmrepo", "helmrepository", "helmrepositories"},
		SupportsSuspend:   true,
		SupportsReconcile: true,
	},
	{
		Name: "HelmChart", Group: "source.toolkit.fluxcd.io", Version: "v1",
		FallbackVersions: []string{"v1beta2"},
		Plural:           "helmcharts", Scope: ScopeNamespaced,
		Aliases:           []string{"hc", "helmchart", "helmcharts"},
		SupportsReconcile: true,
	},
	{
		Name: "Bucket", Group: "source.toolkit.fluxcd.io", Version: "v1",
		FallbackVersions: []string{"v1beta2"},
		Plural:           "buckets", Scope: ScopeNamespaced,
		Aliases:           []string{"bucket", "buckets"},
		SupportsSuspend:   true,
		SupportsReconcile: true,
	},
	{
		Name: "Receiver", Group: "notification.toolkit.fluxcd.io", Version: "v1",
		FallbackVersions: []string{"v1beta3"},
		Plural:           "receivers", Scope: ScopeNamespaced,
		Aliases:         []string{"rcv", "receiver", "receivers"},
		SupportsSuspend: true,
	},
	{
		Name: "Alert", Group: "notification.toolkit.fluxcd.io", Version: "v1",
		FallbackVersions: []string{"v1beta3"},
		Plural:           "alerts", Scope: ScopeNamespaced,
		Aliases:         []string{"alert", "alerts"},
		SupportsSuspend: true,
	},
	{
		Name: "Provider", Group: "notification.toolkit.fluxcd.io", Version: "v1",
		FallbackVersions: []string{"v1beta3"},
		Plural:           "providers", Scope: ScopeNamespaced,
		Aliases:         []string{"provider", "providers"},
		SupportsSuspend: true,
	},
	{
		Name: "ImageRepository", Group: "image.toolkit.fluxcd.io", Version: "v1beta2",
		Plural: "imagerepositories", Scope: ScopeNamespaced,
		Aliases:           []string{"imgrepo", "imagerepository", "imagerepositories"},
		SupportsSuspend:   true,
		SupportsReconcile: true,
	},
	{
		Name: "ImagePolicy", Group: "image.toolkit.fluxcd.io", Version: "v1beta2",
		Plural: "imagepolicies", Scope: ScopeNamespaced,
		Aliases: []string{"imgpol", "imagepolicy", "imagepolicies"},
	},
	{
		Name: "ImageUpdateAutomation", Group: "image.toolkit.fluxcd.io", Version: "v1beta2",
		Plural: "imageupdateautomations", Scope: ScopeNamespaced,
		Aliases:           []string{"iua", "imageupdateautomation", "imageupdateautomations"},
		SupportsSuspend:   true,
		SupportsReconcile: true,
	},
}

// All returns every registered resource kind, in table order.
func All() []ResourceKind {
	out := make([]ResourceKind, len(kinds))
	copy(out, kinds)
	return out
}

// ByAlias resolves a case-insensitive canonical name or alias to its
// ResourceKind. It matches the canonical Name first, then every declared
// alias, generalizing the wildcard-free exact/alias matching style of a
// rule-driven resource matcher into a flat table lookup.
func ByAlias(s string) (ResourceKind, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	if needle == "" {
		return ResourceKind{}, false
	}
	for _, k := range kinds {
		if strings.EqualFold(k.Name, needle) {
			return k, true
		}
		for _, a := range k.Aliases {
			if strings.EqualFold(a, needle) {
				return k, true
			}
		}
	}
	return ResourceKind{}, false
}

// GVK returns the group, preferred version, and plural resource name for a kind.
func GVK(k ResourceKind) (group, version, plural string) {
	return k.Group, k.Version, k.Plural
}
