// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/ids"
	safemath "github.com/luxfi/math"
)

func newTestAddr(t *testing.T) ids.ShortID {
	key, err := secp256k1.NewPrivateKey()
	require.NoError(t, err)
	return key.PublicKey().Address()
}

func TestCreateMint(t *testing.T) {
	require := require.New(t)
	l := NewTokenLedger()

	mint := newTestAddr(t)
	mintAuthority := newTestAddr(t)

	require.NoError(l.CreateMint(mint, mintAuthority, 9))
	require.ErrorIs(l.CreateMint(mint, mintAuthority, 9), ErrMintExists)

	supply, err := l.Supply(mint)
	require.NoError(err)
	require.Zero(supply)
}

func TestCreateAccount(t *testing.T) {
	require := require.New(t)
	l := NewTokenLedger()

	mint := newTestAddr(t)
	owner := newTestAddr(t)
	account := newTestAddr(t)

	require.ErrorIs(l.CreateAccount(account, mint, owner), ErrMintNotFound)

	require.NoError(l.CreateMint(mint, newTestAddr(t), 9))
	require.NoError(l.CreateAccount(account, mint, owner))
	require.ErrorIs(l.CreateAccount(account, mint, owner), ErrAccountExists)
}

func TestMintToAuthority(t *testing.T) {
	require := require.New(t)
	l := NewTokenLedger()

	mint := newTestAddr(t)
	mintAuthority := newTestAddr(t)
	owner := newTestAddr(t)
	account := newTestAddr(t)

	require.NoError(l.CreateMint(mint, mintAuthority, 9))
	require.NoError(l.CreateAccount(account, mint, owner))

	// Only the registered mint authority may grow supply.
	err := l.MintTo(mint, account, NewUserSigner(owner), 100)
	require.ErrorIs(err, ErrUnauthorized)

	require.NoError(l.MintTo(mint, account, NewUserSigner(mintAuthority), 100))

	balance, err := l.BalanceOf(account)
	require.NoError(err)
	require.Equal(uint64(100), balance)

	supply, err := l.Supply(mint)
	require.NoError(err)
	require.Equal(uint64(100), supply)
}

func TestMintToWrongMint(t *testing.T) {
	require := require.New(t)
	l := NewTokenLedger()

	mintA := newTestAddr(t)
	mintB := newTestAddr(t)
	authorityA := newTestAddr(t)
	authorityB := newTestAddr(t)
	account := newTestAddr(t)

	require.NoError(l.CreateMint(mintA, authorityA, 9))
	require.NoError(l.CreateMint(mintB, authorityB, 9))
	require.NoError(l.CreateAccount(account, mintA, newTestAddr(t)))

	err := l.MintTo(mintB, account, NewUserSigner(authorityB), 1)
	require.ErrorIs(err, ErrWrongMint)
}

func TestMintToOverflow(t *testing.T) {
	require := require.New(t)
	l := NewTokenLedger()

	mint := newTestAddr(t)
	mintAuthority := newTestAddr(t)
	account := newTestAddr(t)

	require.NoError(l.CreateMint(mint, mintAuthority, 9))
	require.NoError(l.CreateAccount(account, mint, newTestAddr(t)))

	signer := NewUserSigner(mintAuthority)
	require.NoError(l.MintTo(mint, account, signer, math.MaxUint64))

	err := l.MintTo(mint, account, signer, 1)
	require.ErrorIs(err, safemath.ErrOverflow)

	// The failed mint must not have moved anything.
	balance, err := l.BalanceOf(account)
	require.NoError(err)
	require.Equal(uint64(math.MaxUint64), balance)
}

func TestTransfer(t *testing.T) {
	require := require.New(t)
	l := NewTokenLedger()

	mint := newTestAddr(t)
	mintAuthority := newTestAddr(t)
	owner := newTestAddr(t)
	src := newTestAddr(t)
	dst := newTestAddr(t)

	require.NoError(l.CreateMint(mint, mintAuthority, 9))
	require.NoError(l.CreateAccount(src, mint, owner))
	require.NoError(l.CreateAccount(dst, mint, newTestAddr(t)))
	require.NoError(l.MintTo(mint, src, NewUserSigner(mintAuthority), 100))

	// The source authority must sign; nobody else can.
	err := l.Transfer(src, dst, NewUserSigner(newTestAddr(t)), 40)
	require.ErrorIs(err, ErrUnauthorized)

	require.NoError(l.Transfer(src, dst, NewUserSigner(owner), 40))

	srcBalance, err := l.BalanceOf(src)
	require.NoError(err)
	require.Equal(uint64(60), srcBalance)

	dstBalance, err := l.BalanceOf(dst)
	require.NoError(err)
	require.Equal(uint64(40), dstBalance)

	err = l.Transfer(src, dst, NewUserSigner(owner), 61)
	require.ErrorIs(err, ErrInsufficientFunds)
}

func TestTransferWrongMint(t *testing.T) {
	require := require.New(t)
	l := NewTokenLedger()

	mintA := newTestAddr(t)
	mintB := newTestAddr(t)
	owner := newTestAddr(t)
	src := newTestAddr(t)
	dst := newTestAddr(t)

	require.NoError(l.CreateMint(mintA, newTestAddr(t), 9))
	require.NoError(l.CreateMint(mintB, newTestAddr(t), 9))
	require.NoError(l.CreateAccount(src, mintA, owner))
	require.NoError(l.CreateAccount(dst, mintB, newTestAddr(t)))

	err := l.Transfer(src, dst, NewUserSigner(owner), 0)
	require.ErrorIs(err, ErrWrongMint)
}

func TestBalanceOfUnknownAccount(t *testing.T) {
	require := require.New(t)
	l := NewTokenLedger()

	_, err := l.BalanceOf(newTestAddr(t))
	require.ErrorIs(err, ErrAccountNotFound)
}
