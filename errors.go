// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stakevm

import "errors"

var (
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotFound           = errors.New("record not found")
	ErrUnauthorized       = errors.New("operation not signed by the required authority")

	// ErrInsufficientBalance carries the caller-facing message for the one
	// domain error users are expected to see.
	ErrInsufficientBalance = errors.New("You do not have enough tokens in your account to make this withdraw")
)
