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

package yamlview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_StripsManagedFieldsAndKeepsStatus(t *testing.T) {
	obj := map[string]interface{}{
		"apiVersion": "kustomize.toolkit.fluxcd.io/v1",
		"kind":       "Kustomization",
		"metadata": map[string]interface{}{
			"name":            "apps",
			"namespace":       "flux-system",
			"resourceVersion": "12345",
			"managedFields":   []interface{}{map[string]interface{}{"manager": "flux"}},
		},
		"spec": map[string]interface{}{"suspend": false},
		"status": map[string]interface{}{
			"conditions": []interface{}{map[string]interface{}{"type": "Ready", "status": "True"}},
		},
	}

	out, err := Render(obj)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "apiVersion:")
	assert.Contains(t, text, "kind: Kustomization")
	assert.Contains(t, text, "name: apps")
	assert.Contains(t, text, "status:")
	assert.NotContains(t, text, "resourceVersion")
	assert.NotContains(t, text, "managedFields")
}

func TestRender_HeaderFieldsComeBeforePayload(t *testing.T) {
	obj := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   map[string]interface{}{"name": "x"},
		"data":       map[string]interface{}{"key": "value"},
	}
	out, err := Render(obj)
	require.NoError(t, err)
	text := string(out)

	assert.Less(t, strings.Index(text, "apiVersion"), strings.Index(text, "kind"))
	assert.Less(t, strings.Index(text, "kind"), strings.Index(text, "metadata"))
	assert.Less(t, strings.Index(text, "metadata"), strings.Index(text, "data"))
}
