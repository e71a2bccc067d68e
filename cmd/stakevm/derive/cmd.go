// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package derive

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/stakevm"
	"github.com/luxfi/stakevm/authority"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "derive namespace [owner]",
		Short: "Prints the derived authority for a namespace",
		Long: "Prints the derived authority for a namespace, optionally scoped " +
			"to an owner address. The bump is the discriminant the engine " +
			"persists to rebuild the authority as a signer.",
		Args: cobra.RangeArgs(1, 2),
		RunE: deriveFunc,
	}
}

func deriveFunc(cmd *cobra.Command, args []string) error {
	namespace := []byte(args[0])

	var seeds [][]byte
	if len(args) == 2 {
		owner, err := stakevm.ParseAddress(args[1])
		if err != nil {
			return err
		}
		seeds = append(seeds, owner.Bytes())
	}

	auth, err := authority.Derive(namespace, seeds...)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nbump: %d\n",
		stakevm.FormatAddress(auth.Address()),
		auth.Bump(),
	)
	return nil
}
