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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fluxview/fluxview/internal/config"
	"github.com/fluxview/fluxview/internal/operation"
	"github.com/fluxview/fluxview/internal/store"
	"github.com/fluxview/fluxview/internal/throttle"
	"github.com/fluxview/fluxview/internal/trace"
	"github.com/fluxview/fluxview/internal/transport"
	"github.com/fluxview/fluxview/internal/ui"
	"github.com/fluxview/fluxview/internal/watcher"
)

// drainGrace bounds how long shutdown waits for the Coordinator's Run loop
// to return after context cancellation before the process exits anyway.
const drainGrace = 2 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	var (
		kubeconfigFlag string
		namespaceFlag  string
		contextFlag    string
		readOnlyFlag   bool
		debugFlag      bool
	)

	cmd := &cobra.Command{
		Use:   "fluxview",
		Short: "Interactive terminal monitor for a Flux-style GitOps control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runApp(appFlags{
				kubeconfig: kubeconfigFlag,
				namespace:  namespaceFlag,
				context:    contextFlag,
				readOnly:   readOnlyFlag,
				debug:      debugFlag,
			}); err != nil {
				return &fatalError{err}
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&kubeconfigFlag, "kubeconfig", "", "path to the kubeconfig file (default: $KUBECONFIG or ~/.kube/config)")
	cmd.Flags().StringVar(&namespaceFlag, "namespace", "", "starting namespace (default: all namespaces)")
	cmd.Flags().StringVar(&contextFlag, "context", "", "kubeconfig context to use (default: current-context)")
	cmd.Flags().BoolVar(&readOnlyFlag, "read-only", false, "disable mutating operations (suspend/resume/reconcile/delete)")
	cmd.Flags().BoolVar(&debugFlag, "debug", false, "enable debug logging and disable error throttling")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var fatal *fatalError
		if errors.As(err, &fatal) {
			return 1
		}
		// Anything else is cobra's own flag/argument parsing error.
		return 2
	}
	return 0
}

// fatalError marks an error as having come from runApp rather than from
// cobra's argument parsing, so run can tell the two apart and exit with the
// code each one is owed: 1 for a fatal runtime/init error, 2 for invalid
// arguments.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

type appFlags struct {
	kubeconfig string
	namespace  string
	context    string
	readOnly   bool
	debug      bool
}

func runApp(flags appFlags) error {
	zapLog, err := newZapLogger(flags.debug)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = zapLog.Sync() }()
	log := zapr.NewLogger(zapLog)

	cfgPath, err := config.DefaultPath()
	if err != nil {
		log.Error(err, "unable to resolve config path, favorites will not persist")
	}
	var cfgFile config.File
	if cfgPath != "" {
		cfgFile, err = config.Load(cfgPath)
		if err != nil {
			log.Error(err, "unable to load config file, starting with empty favorites")
		}
	}

	kubeconfigPath := config.KubeconfigPath(flags.kubeconfig)
	client, err := transport.NewClient(kubeconfigPath, flags.context, log)
	if err != nil {
		return fmt.Errorf("connecting to cluster: %w", err)
	}

	st := store.New()
	if len(cfgFile.Favorites) > 0 {
		st.SetFavorites(parseFavoriteKeys(cfgFile.Favorites))
	}

	thr := throttle.New(flags.debug)
	pool := watcher.New(client, st, thr, log)
	traceEngine := trace.New(st, client, log)
	dispatch := operation.NewDispatcher(client, traceEngine)

	coordinator := ui.New(st, pool, dispatch, client, nil, log, flags.readOnly)
	coordinator.SetNamespace(flags.namespace)
	coordinator.SubscribeAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := make(chan ui.InputEvent)
	storeChanged := st.Observe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		coordinator.Run(ctx, input, storeChanged)
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, draining")

	select {
	case <-done:
	case <-time.After(drainGrace):
		log.Info("drain grace period elapsed, exiting")
	}

	if cfgPath != "" {
		favs := st.Favorites()
		names := make([]string, 0, len(favs))
		for _, k := range favs {
			names = append(names, k.String())
		}
		cfgFile.Favorites = names
		if err := config.Save(cfgPath, cfgFile); err != nil {
			log.Error(err, "unable to persist favorites on shutdown")
		}
	}
	return nil
}

func newZapLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func parseFavoriteKeys(raw []string) []store.Key {
	keys := make([]store.Key, 0, len(raw))
	for _, s := range raw {
		if k, ok := store.ParseKeyString(s); ok {
			keys = append(keys, k)
		}
	}
	return keys
}
