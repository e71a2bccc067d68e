// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/stakevm"
	"github.com/luxfi/stakevm/ledger"
)

const apiPathPrefix = "/ext/stake"

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the staking engine with an in-process token ledger",
		RunE:  runFunc,
	}
	cmd.Flags().String("http-addr", ":9750", "address the JSON-RPC server listens on")
	cmd.Flags().String("config", "", "path to a JSON config file")
	return cmd
}

func runFunc(cmd *cobra.Command, _ []string) error {
	httpAddr, err := cmd.Flags().GetString("http-addr")
	if err != nil {
		return err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	var configBytes []byte
	if configPath != "" {
		configBytes, err = os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger := log.NewLogger("stakevm")

	vm := &stakevm.VM{}
	if err := vm.Initialize(
		memdb.New(),
		ledger.NewTokenLedger(),
		configBytes,
		logger,
	); err != nil {
		return fmt.Errorf("failed to initialize staking engine: %w", err)
	}
	defer func() {
		if err := vm.Shutdown(); err != nil {
			logger.Error("shutdown failed",
				log.Err(err),
			)
		}
	}()

	handlers, err := vm.CreateHandlers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create handlers: %w", err)
	}

	router := mux.NewRouter()
	for path, handler := range handlers {
		router.Handle(apiPathPrefix+path, handler)
	}

	logger.Info("serving staking API",
		log.String("addr", httpAddr),
		log.String("path", apiPathPrefix),
	)
	return http.ListenAndServe(httpAddr, router)
}
