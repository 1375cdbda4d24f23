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

// Package yamlview renders a raw object for the UI's "yaml" detail view
// with a fixed, deterministic field order: apiVersion, kind, metadata,
// then the remaining payload with keys sorted. Adapted from the teacher's
// internal/sanitize.MarshalToOrderedYAML, which built the same ordering to
// produce stable Git diffs; here the same ordering serves a stable,
// diffable detail pane instead. Server-managed metadata noise
// (managedFields, resourceVersion, uid, generation, selfLink) is stripped;
// status is kept.
package yamlview

import (
	"bytes"
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

// Render converts obj into ordered YAML text, stripping the noisy
// server-generated metadata fields a human reader doesn't want in a detail
// pane: managedFields, resourceVersion, uid, generation, and selfLink.
// status is kept: unlike a Git-write path, this is a read-only viewer where
// status is exactly the information an operator is looking at the screen
// for.
func Render(obj map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer

	u := &unstructured.Unstructured{Object: obj}
	if err := writeYAMLMap(&buf, map[string]interface{}{"apiVersion": u.GetAPIVersion()}); err != nil {
		return nil, fmt.Errorf("rendering apiVersion: %w", err)
	}
	if err := writeYAMLMap(&buf, map[string]interface{}{"kind": u.GetKind()}); err != nil {
		return nil, fmt.Errorf("rendering kind: %w", err)
	}

	metadata := cleanMetadata(obj)
	if len(metadata) > 0 {
		if err := writeYAMLMap(&buf, map[string]interface{}{"metadata": metadata}); err != nil {
			return nil, fmt.Errorf("rendering metadata: %w", err)
		}
	}

	payload := extractPayload(obj)
	if len(payload) > 0 {
		if err := writeSortedPayload(&buf, payload); err != nil {
			return nil, fmt.Errorf("rendering payload: %w", err)
		}
	}

	return buf.Bytes(), nil
}

func writeYAMLMap(buf *bytes.Buffer, m map[string]interface{}) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func writeSortedPayload(buf *bytes.Buffer, payload map[string]interface{}) error {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sorted := make(map[string]interface{}, len(payload))
	for _, k := range keys {
		sorted[k] = payload[k]
	}
	return writeYAMLMap(buf, sorted)
}

// cleanMetadata returns metadata with managedFields, resourceVersion, uid,
// generation, and selfLink removed.
func cleanMetadata(obj map[string]interface{}) map[string]interface{} {
	metadata, found, err := unstructured.NestedMap(obj, "metadata")
	if err != nil || !found {
		return nil
	}
	out := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		switch k {
		case "managedFields", "resourceVersion", "uid", "generation", "selfLink":
			continue
		default:
			out[k] = v
		}
	}
	return out
}

// extractPayload returns every top-level field except apiVersion, kind, and
// metadata (already rendered above). status is intentionally retained.
func extractPayload(obj map[string]interface{}) map[string]interface{} {
	payload := make(map[string]interface{})
	for k, v := range obj {
		switch k {
		case "apiVersion", "kind", "metadata":
			continue
		default:
			payload[k] = v
		}
	}
	return payload
}
