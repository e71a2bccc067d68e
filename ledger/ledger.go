// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger is the asset custody boundary: mints, token accounts, and
// the authority-checked operations that move value between them.
package ledger

import (
	"errors"

	"github.com/luxfi/ids"
)

var (
	ErrMintExists        = errors.New("mint already exists")
	ErrAccountExists     = errors.New("token account already exists")
	ErrMintNotFound      = errors.New("mint not found")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrWrongMint         = errors.New("token account is for a different mint")
	ErrUnauthorized      = errors.New("signer is not the registered authority")
	ErrInsufficientFunds = errors.New("insufficient funds in source account")
)

// Signer authorizes a ledger operation. The ledger only compares the
// signer's address against the registered authority of the mint or source
// account; how the signer came to exist is the caller's concern. A user
// signer stands for the authenticated caller's own signature, while derived
// signers are built by the authority package and prove a recomputed
// derivation.
type Signer interface {
	Address() ids.ShortID
}

// Ledger is the interface the staking engine issues instructions against.
// Every call is all-or-nothing: on error no balance has moved.
type Ledger interface {
	// CreateMint registers a new asset type whose supply may only be grown
	// by [mintAuthority]. Fails with ErrMintExists if [mint] is taken.
	CreateMint(mint ids.ShortID, mintAuthority ids.ShortID, decimals uint8) error

	// CreateAccount registers a token account for [mint] whose funds may
	// only be moved by [accountAuthority].
	CreateAccount(account ids.ShortID, mint ids.ShortID, accountAuthority ids.ShortID) error

	// MintTo grows [mint]'s supply by [amount] and credits [to]. The signer
	// must be the mint authority.
	MintTo(mint ids.ShortID, to ids.ShortID, signer Signer, amount uint64) error

	// Transfer moves [amount] from [from] to [to]. The signer must be the
	// authority of [from].
	Transfer(from ids.ShortID, to ids.ShortID, signer Signer, amount uint64) error

	// BalanceOf returns the custodied amount of [account].
	BalanceOf(account ids.ShortID) (uint64, error)
}

type userSigner struct {
	addr ids.ShortID
}

// NewUserSigner wraps an authenticated caller identity as a Signer. The RPC
// layer is trusted to have authenticated the caller before constructing one.
func NewUserSigner(addr ids.ShortID) Signer {
	return userSigner{addr: addr}
}

func (s userSigner) Address() ids.ShortID {
	return s.addr
}
