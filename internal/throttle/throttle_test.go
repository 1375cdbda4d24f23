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

package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldLog_FirstCallAlwaysLogs(t *testing.T) {
	th := New(false)
	assert.True(t, th.ShouldLog("watch", "Kustomization"))
}

func TestShouldLog_SecondCallWithinWindowSuppressed(t *testing.T) {
	th := New(false)
	cur := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return cur }

	require.True(t, th.ShouldLog("watch", "Kustomization"))
	cur = cur.Add(30 * time.Second)
	assert.False(t, th.ShouldLog("watch", "Kustomization"))
}

func TestShouldLog_AfterCooldownLogsAgain(t *testing.T) {
	th := New(false)
	cur := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return cur }

	require.True(t, th.ShouldLog("watch", "Kustomization"))
	cur = cur.Add(61 * time.Second)
	assert.True(t, th.ShouldLog("watch", "Kustomization"))
}

func TestShouldLog_CategoryAndKindAreIndependent(t *testing.T) {
	th := New(false)
	require.True(t, th.ShouldLog("watch", "Kustomization"))
	assert.True(t, th.ShouldLog("operation", "Kustomization"))
	assert.True(t, th.ShouldLog("watch", "HelmRelease"))
}

func TestShouldLog_DebugModeAlwaysLogs(t *testing.T) {
	th := New(true)
	assert.True(t, th.ShouldLog("watch", "Kustomization"))
	assert.True(t, th.ShouldLog("watch", "Kustomization"))
	assert.True(t, th.ShouldLog("watch", "Kustomization"))
}
