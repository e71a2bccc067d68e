// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/stakevm/cmd/stakevm/derive"
	"github.com/luxfi/stakevm/cmd/stakevm/run"
)

func main() {
	cmd := &cobra.Command{
		Use:   "stakevm",
		Short: "Custodial staking engine",
	}
	cmd.AddCommand(
		run.Command(),
		derive.Command(),
	)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
