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

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsZeroValue(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, f.Favorites)
}

func TestSaveThenLoad_RoundTripsFavorites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := File{Favorites: []string{"Kustomization:flux-system:apps", "GitRepository:flux-system:repo"}}

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want.Favorites, got.Favorites)
}

func TestKubeconfigPath_FlagTakesPrecedenceOverEnv(t *testing.T) {
	t.Setenv("KUBECONFIG", "/env/path")
	assert.Equal(t, "/flag/path", KubeconfigPath("/flag/path"))
}

func TestKubeconfigPath_FallsBackToEnv(t *testing.T) {
	t.Setenv("KUBECONFIG", "/env/path")
	assert.Equal(t, "/env/path", KubeconfigPath(""))
}
