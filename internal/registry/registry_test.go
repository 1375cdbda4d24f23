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

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByAlias_ResolvesCanonicalNameCaseInsensitively(t *testing.T) {
	kind, ok := ByAlias("kustomization")
	require.True(t, ok)
	assert.Equal(t, "Kustomization", kind.Name)
}

func TestByAlias_ResolvesDeclaredAlias(t *testing.T) {
	kind, ok := ByAlias("ks")
	require.True(t, ok)
	assert.Equal(t, "Kustomization", kind.Name)
}

func TestByAlias_UnknownNameReportsNotFound(t *testing.T) {
	_, ok := ByAlias("Deployment")
	assert.False(t, ok)
}

func TestByAlias_EmptyStringReportsNotFound(t *testing.T) {
	_, ok := ByAlias("  ")
	assert.False(t, ok)
}

func TestVersions_PrimaryThenFallbacksInOrder(t *testing.T) {
	kind, ok := ByAlias("Kustomization")
	require.True(t, ok)
	assert.Equal(t, []string{"v1", "v1beta2", "v1beta1"}, kind.Versions())
}

func TestAll_ReturnsACopyNotTheLiveTable(t *testing.T) {
	got := All()
	require.NotEmpty(t, got)
	got[0].Name = "mutated"

	fresh := All()
	assert.NotEqual(t, "mutated", fresh[0].Name)
}
