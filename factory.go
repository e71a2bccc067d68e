// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stakevm

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// VMID is the unique identifier for the staking VM
var VMID = ids.ID{'s', 't', 'a', 'k', 'e', 'v', 'm', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}

// Factory creates new staking VM instances
type Factory struct{}

// New returns an uninitialized VM; callers wire it up with Initialize.
func (*Factory) New(log.Logger) (interface{}, error) {
	return &VM{}, nil
}
