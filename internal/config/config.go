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

// Package config loads and persists the user config file: a single flat
// favorites list, per the resolved Open Question that favorites are global
// rather than per-context (see DESIGN.md). Marshaling uses sigs.k8s.io/yaml,
// the teacher's own choice for deterministic Kubernetes-flavored YAML.
package config

import (
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// File is the on-disk shape of the user config file.
type File struct {
	Favorites []string `json:"favorites"`
}

// DefaultPath returns the config file location: $XDG_CONFIG_HOME/fluxview/config.yaml
// if set, else ~/.config/fluxview/config.yaml.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fluxview", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fluxview", "config.yaml"), nil
}

// Load reads and parses the config file at path. A missing file is not an
// error: it yields a zero-value File, matching a fresh install with no
// favorites yet toggled.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return File{}, nil
	}
	if err != nil {
		return File{}, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, err
	}
	return f, nil
}

// Save writes f to path, creating parent directories as needed.
func Save(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// KubeconfigPath resolves the credentials file location per spec §6:
// the --kubeconfig flag if set, else $KUBECONFIG. When neither is set it
// returns "", which transport.NewClient treats as the default loading rules
// (the per-user ~/.kube/config).
func KubeconfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("KUBECONFIG")
}
