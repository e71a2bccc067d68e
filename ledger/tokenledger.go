// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"fmt"
	"sync"

	"github.com/luxfi/ids"
	safemath "github.com/luxfi/math"
)

var _ Ledger = (*TokenLedger)(nil)

// Mint is an asset type tracked by the ledger.
type Mint struct {
	Address   ids.ShortID
	Authority ids.ShortID
	Decimals  uint8
	Supply    uint64
}

// Account is a token account holding custodied funds of a single mint.
type Account struct {
	Address   ids.ShortID
	Mint      ids.ShortID
	Authority ids.ShortID
	Balance   uint64
}

// TokenLedger is the in-process Ledger implementation. Each method holds the
// ledger lock for its whole duration, so individual calls are atomic with
// respect to each other.
type TokenLedger struct {
	mu       sync.RWMutex
	mints    map[ids.ShortID]*Mint
	accounts map[ids.ShortID]*Account
}

func NewTokenLedger() *TokenLedger {
	return &TokenLedger{
		mints:    make(map[ids.ShortID]*Mint),
		accounts: make(map[ids.ShortID]*Account),
	}
}

func (l *TokenLedger) CreateMint(mint ids.ShortID, mintAuthority ids.ShortID, decimals uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.mints[mint]; ok {
		return fmt.Errorf("%w: %s", ErrMintExists, mint)
	}
	l.mints[mint] = &Mint{
		Address:   mint,
		Authority: mintAuthority,
		Decimals:  decimals,
	}
	return nil
}

func (l *TokenLedger) CreateAccount(account ids.ShortID, mint ids.ShortID, accountAuthority ids.ShortID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.mints[mint]; !ok {
		return fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	if _, ok := l.accounts[account]; ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, account)
	}
	l.accounts[account] = &Account{
		Address:   account,
		Mint:      mint,
		Authority: accountAuthority,
	}
	return nil
}

func (l *TokenLedger) MintTo(mint ids.ShortID, to ids.ShortID, signer Signer, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.mints[mint]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	if signer == nil || signer.Address() != m.Authority {
		return fmt.Errorf("%w: mint %s", ErrUnauthorized, mint)
	}
	dst, ok := l.accounts[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, to)
	}
	if dst.Mint != mint {
		return fmt.Errorf("%w: account %s", ErrWrongMint, to)
	}

	newSupply, err := safemath.Add64(m.Supply, amount)
	if err != nil {
		return fmt.Errorf("minting %d would overflow supply: %w", amount, err)
	}
	newBalance, err := safemath.Add64(dst.Balance, amount)
	if err != nil {
		return fmt.Errorf("minting %d would overflow account %s: %w", amount, to, err)
	}

	m.Supply = newSupply
	dst.Balance = newBalance
	return nil
}

func (l *TokenLedger) Transfer(from ids.ShortID, to ids.ShortID, signer Signer, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, from)
	}
	dst, ok := l.accounts[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, to)
	}
	if signer == nil || signer.Address() != src.Authority {
		return fmt.Errorf("%w: account %s", ErrUnauthorized, from)
	}
	if src.Mint != dst.Mint {
		return fmt.Errorf("%w: %s -> %s", ErrWrongMint, from, to)
	}
	if src.Balance < amount {
		return fmt.Errorf("%w: account %s has %d, need %d", ErrInsufficientFunds, from, src.Balance, amount)
	}

	newBalance, err := safemath.Add64(dst.Balance, amount)
	if err != nil {
		return fmt.Errorf("transferring %d would overflow account %s: %w", amount, to, err)
	}

	src.Balance -= amount
	dst.Balance = newBalance
	return nil
}

func (l *TokenLedger) BalanceOf(account ids.ShortID) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[account]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return acc.Balance, nil
}

// Supply returns the total issued amount of [mint].
func (l *TokenLedger) Supply(mint ids.ShortID) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.mints[mint]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	return m.Supply, nil
}
