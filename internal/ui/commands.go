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
	"strings"

	"github.com/fluxview/fluxview/internal/registry"
	"github.com/fluxview/fluxview/internal/store"
)

// parsedCommand is the lexed form of one ":"-prefixed command line, per
// spec §6's in-session command surface.
type parsedCommand struct {
	verb string
	arg  string
}

// parseCommand lexes a raw command line (without the leading ":"). It is
// the one piece of "CLI-like" parsing in scope, because it drives the core
// state machine, unlike the out-of-scope startup flag parsing.
func parseCommand(line string) parsedCommand {
	line = strings.TrimSpace(line)
	fields := strings.SplitN(line, " ", 2)
	verb := strings.ToLower(fields[0])
	arg := ""
	if len(fields) == 2 {
		arg = strings.TrimSpace(fields[1])
	}
	return parsedCommand{verb: verb, arg: arg}
}

// dispatchCommand applies one parsed command to the Coordinator, per
// spec §6: :ns, :ctx, :<kind-alias>, :healthy/:unhealthy/:all, :q/:q!.
func (c *Coordinator) dispatchCommand(cmd parsedCommand) (quit bool) {
	switch cmd.verb {
	case "ns":
		c.switchNamespace(cmd.arg)
	case "ctx":
		c.switchContext(cmd.arg)
	case "healthy":
		c.health = store.HealthHealthy
	case "unhealthy":
		c.health = store.HealthUnhealthy
	case "all":
		c.health = store.HealthAll
	case "fav":
		if c.hasSelection {
			c.st.ToggleFavorite(c.selected)
		}
	case "q", "q!":
		return true
	default:
		if kind, ok := registry.ByAlias(cmd.verb); ok {
			c.kindFilter = []string{kind.Name}
		} else {
			c.statusLine = "unknown command: " + cmd.verb
		}
	}
	return false
}

// switchNamespace implements spec §4.7's namespace-switch procedure:
// unsubscribe the prior scope (except kinds whose scope is unchanged),
// subscribe the new scope, and clear the store for every kind so stale
// entries from the old namespace never leak into the new snapshot.
func (c *Coordinator) switchNamespace(arg string) {
	oldScope := c.scope()

	if arg == "all" {
		c.allNamespaces = true
		c.namespace = ""
	} else {
		c.allNamespaces = false
		c.namespace = arg
	}
	newScope := c.scope()

	if oldScope == newScope {
		return
	}

	for _, kind := range registry.All() {
		if oldScope.AllNamespaces {
			// All-namespaces entries are keyed by each object's own
			// namespace, not the empty scope namespace, so ClearScope would
			// never match them.
			c.st.ClearKind(kind.Name)
		} else {
			c.st.ClearScope(kind.Name, oldScope.Namespace)
		}
	}
	c.pool.UnsubscribeAllExcept(nil, oldScope)
	c.SubscribeAll()

	c.selected = store.Key{}
	c.hasSelection = false
}

// switchContext implements spec §6's ":ctx" rule: full resubscription,
// since every previously issued transport handle becomes stale the moment
// the client rebuilds against a different kubeconfig context.
func (c *Coordinator) switchContext(name string) {
	if err := c.client.SwitchContext(name); err != nil {
		c.statusLine = "context switch failed: " + err.Error()
		return
	}

	c.pool.UnsubscribeAll()
	c.st.Clear()
	c.SubscribeAll()

	c.selected = store.Key{}
	c.hasSelection = false
}
