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

package store

import (
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// KindInfo is the subset of registry.ResourceKind the store's field
// derivation needs. It is a narrow interface rather than an import of the
// registry package so store stays free of a dependency cycle.
type KindInfo struct {
	SupportsSuspend  bool
	InventoryBearing bool
}

// deriveReady inspects status.conditions for a condition of type "Ready",
// exactly per the canonical derivation: present and status=="True" is
// ready, present with any other status is not-ready, absent falls back to
// "ready" only for a non-empty inventory on an inventory-bearing kind, and
// otherwise unknown.
func deriveReady(obj map[string]interface{}, kind KindInfo) Readiness {
	conditions, found, err := unstructured.NestedSlice(obj, "status", "conditions")
	if err == nil && found {
		for _, c := range conditions {
			cm, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			if t, _ := cm["type"].(string); t != "Ready" {
				continue
			}
			status, _ := cm["status"].(string)
			if status == "True" {
				return ReadyTrue
			}
			return ReadyFalse
		}
	}

	if kind.InventoryBearing {
		entries, found, err := unstructured.NestedSlice(obj, "status", "inventory", "entries")
		if err == nil && found && len(entries) > 0 {
			return ReadyTrue
		}
	}
	return ReadyUnknown
}

// deriveSuspended reads spec.suspend for kinds that support suspension;
// absent or false yields false, and kinds that don't support suspension
// are never reported as suspended regardless of what the object contains.
func deriveSuspended(obj map[string]interface{}, kind KindInfo) bool {
	if !kind.SupportsSuspend {
		return false
	}
	v, found, err := unstructured.NestedBool(obj, "spec", "suspend")
	if err != nil || !found {
		return false
	}
	return v
}

// deriveStatusMessage extracts a human-readable one-liner from the newest
// condition (by lastTransitionTime, falling back to slice order when no
// timestamps parse).
func deriveStatusMessage(obj map[string]interface{}) string {
	conditions, found, err := unstructured.NestedSlice(obj, "status", "conditions")
	if err != nil || !found || len(conditions) == 0 {
		return ""
	}

	var best map[string]interface{}
	var bestTime time.Time
	for _, c := range conditions {
		cm, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		ts, _ := cm["lastTransitionTime"].(string)
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			if best == nil {
				best = cm
			}
			continue
		}
		if best == nil || parsed.After(bestTime) {
			best = cm
			bestTime = parsed
		}
	}
	if best == nil {
		return ""
	}
	if msg, ok := best["message"].(string); ok {
		return msg
	}
	return ""
}

// deriveLastReconciled reads the well-known reconcile timestamp annotation
// if present, falling back to a zero time.
func deriveLastReconciled(obj map[string]interface{}) (time.Time, bool) {
	annotations, found, err := unstructured.NestedStringMap(obj, "metadata", "annotations")
	if err != nil || !found {
		return time.Time{}, false
	}
	raw, ok := annotations["reconcile.fluxcd.io/requestedAt"]
	if !ok {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// ProjectEntry builds an Entry from a raw unstructured object, applying the
// derivation rules above. namespace/name/resourceVersion are read straight
// off metadata.
func ProjectEntry(kindName string, obj map[string]interface{}, kind KindInfo) Entry {
	u := unstructured.Unstructured{Object: obj}
	e := Entry{
		Key: Key{
			Kind:      kindName,
			Namespace: u.GetNamespace(),
			Name:      u.GetName(),
		},
		ResourceVersion: u.GetResourceVersion(),
		Ready:           deriveReady(obj, kind),
		Suspended:       deriveSuspended(obj, kind),
		StatusMessage:   deriveStatusMessage(obj),
		Raw:             obj,
	}
	if t, ok := deriveLastReconciled(obj); ok {
		e.LastReconciled = t
		e.HasLastReconciled = true
	}
	return e
}
