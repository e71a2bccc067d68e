// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stakevm

import "encoding/json"

var DefaultConfig = Config{
	DefaultDecimals: 9,
	LogOperations:   true,
}

type Config struct {
	// DefaultDecimals is used when mint initialization does not specify a
	// decimal precision.
	DefaultDecimals uint8 `json:"defaultDecimals"`

	// LogOperations enables per-operation balance logging.
	LogOperations bool `json:"logOperations"`
}

func ParseConfig(configBytes []byte) (Config, error) {
	if len(configBytes) == 0 {
		return DefaultConfig, nil
	}

	cfg := DefaultConfig
	err := json.Unmarshal(configBytes, &cfg)
	return cfg, err
}
