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

package ui

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxview/fluxview/internal/operation"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/throttle"
	"github.com/fluxview/fluxview/internal/watcher"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	st := store.New()
	thr := throttle.New(false)
	pool := watcher.New(nil, st, thr, logr.Discard())
	dispatch := operation.NewDispatcher(nil, nil)
	return New(st, pool, dispatch, nil, nil, logr.Discard(), false)
}

func TestParseCommand_SplitsVerbAndArg(t *testing.T) {
	cmd := parseCommand("ns flux-system")
	assert.Equal(t, "ns", cmd.verb)
	assert.Equal(t, "flux-system", cmd.arg)
}

func TestParseCommand_LowercasesVerbOnly(t *testing.T) {
	cmd := parseCommand("NS Flux-System")
	assert.Equal(t, "ns", cmd.verb)
	assert.Equal(t, "Flux-System", cmd.arg)
}

func TestParseCommand_NoArgYieldsEmptyString(t *testing.T) {
	cmd := parseCommand("healthy")
	assert.Equal(t, "healthy", cmd.verb)
	assert.Equal(t, "", cmd.arg)
}

func TestDispatchCommand_HealthFilters(t *testing.T) {
	c := newTestCoordinator(t)

	require.False(t, c.dispatchCommand(parsedCommand{verb: "healthy"}))
	assert.Equal(t, store.HealthHealthy, c.health)

	c.dispatchCommand(parsedCommand{verb: "unhealthy"})
	assert.Equal(t, store.HealthUnhealthy, c.health)

	c.dispatchCommand(parsedCommand{verb: "all"})
	assert.Equal(t, store.HealthAll, c.health)
}

func TestDispatchCommand_KindAliasSetsFilter(t *testing.T) {
	c := newTestCoordinator(t)
	c.dispatchCommand(parsedCommand{verb: "ks"})
	assert.Equal(t, []string{"Kustomization"}, c.kindFilter)
}

func TestDispatchCommand_UnknownVerbSetsStatusLine(t *testing.T) {
	c := newTestCoordinator(t)
	c.dispatchCommand(parsedCommand{verb: "bogus"})
	assert.Contains(t, c.statusLine, "unknown command")
}

func TestDispatchCommand_QuitVerbsReturnTrue(t *testing.T) {
	c := newTestCoordinator(t)
	assert.True(t, c.dispatchCommand(parsedCommand{verb: "q"}))
	assert.True(t, c.dispatchCommand(parsedCommand{verb: "q!"}))
}

func TestDispatchCommand_FavTogglesSelectionOnly(t *testing.T) {
	c := newTestCoordinator(t)
	key := store.Key{Kind: "Kustomization", Namespace: "flux-system", Name: "apps"}

	c.dispatchCommand(parsedCommand{verb: "fav"})
	assert.Empty(t, c.st.Favorites())

	c.selected = key
	c.hasSelection = true
	c.dispatchCommand(parsedCommand{verb: "fav"})
	assert.Equal(t, []store.Key{key}, c.st.Favorites())
}

func TestSwitchNamespace_ToAllSetsAllNamespacesTrue(t *testing.T) {
	c := newTestCoordinator(t)
	c.namespace = "flux-system"
	c.allNamespaces = false

	c.switchNamespace("all")
	assert.True(t, c.allNamespaces)
	assert.Equal(t, "", c.namespace)
}

func TestSwitchNamespace_ClearsSelectionWhenScopeChanges(t *testing.T) {
	c := newTestCoordinator(t)
	c.selected = store.Key{Kind: "Kustomization", Name: "apps"}
	c.hasSelection = true

	c.switchNamespace("other-ns")
	assert.False(t, c.hasSelection)
	assert.Equal(t, store.Key{}, c.selected)
	assert.Equal(t, "other-ns", c.namespace)
}

func TestSwitchNamespace_NoOpWhenScopeUnchanged(t *testing.T) {
	c := newTestCoordinator(t)
	c.allNamespaces = true
	c.selected = store.Key{Kind: "Kustomization", Name: "apps"}
	c.hasSelection = true

	c.switchNamespace("all")
	assert.True(t, c.hasSelection, "selection must survive a no-op scope switch")
}
