// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stakevm

import (
	"fmt"
	"net/http"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/mr-tron/base58"

	"github.com/luxfi/stakevm/ledger"
	"github.com/luxfi/stakevm/utils/json"
)

// Service is the JSON-RPC surface of the staking engine. The HTTP layer in
// front of it authenticates callers; the [Owner] field of a request names
// the authenticated identity on whose behalf the operation runs.
type Service struct {
	vm *VM
}

// FormatAddress renders an identity the way the API expects it.
func FormatAddress(addr ids.ShortID) string {
	return base58.Encode(addr.Bytes())
}

// ParseAddress is the inverse of FormatAddress.
func ParseAddress(addr string) (ids.ShortID, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return ids.ShortID{}, fmt.Errorf("couldn't parse address %q: %w", addr, err)
	}
	id, err := ids.ToShortID(raw)
	if err != nil {
		return ids.ShortID{}, fmt.Errorf("couldn't parse address %q: %w", addr, err)
	}
	return id, nil
}

type InitializeMintArgs struct {
	// Decimals of 0 falls back to the configured default.
	Decimals json.Uint8 `json:"decimals"`
}

type InitializeMintReply struct {
	Mint string `json:"mint"`
}

func (s *Service) InitializeMint(_ *http.Request, args *InitializeMintArgs, reply *InitializeMintReply) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "initializeMint"),
	)

	decimals := uint8(args.Decimals)
	if decimals == 0 {
		decimals = s.vm.config.DefaultDecimals
	}

	mint, err := s.vm.InitializeMint(decimals)
	if err != nil {
		return err
	}
	reply.Mint = FormatAddress(mint)
	return nil
}

type AirdropArgs struct {
	To     string      `json:"to"`
	Amount json.Uint64 `json:"amount"`
}

type AirdropReply struct {
	Amount json.Uint64 `json:"amount"`
}

func (s *Service) Airdrop(_ *http.Request, args *AirdropArgs, reply *AirdropReply) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "airdrop"),
	)

	to, err := ParseAddress(args.To)
	if err != nil {
		return err
	}
	if err := s.vm.Airdrop(to, uint64(args.Amount)); err != nil {
		return err
	}
	reply.Amount = args.Amount
	return nil
}

type InitializeStakingPoolReply struct {
	Vault string `json:"vault"`
}

func (s *Service) InitializeStakingPool(_ *http.Request, _ *struct{}, reply *InitializeStakingPoolReply) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "initializeStakingPool"),
	)

	vault, err := s.vm.InitializeStakingPool()
	if err != nil {
		return err
	}
	reply.Vault = FormatAddress(vault)
	return nil
}

type InitializeUserStateArgs struct {
	Owner string `json:"owner"`
}

func (s *Service) InitializeUserState(_ *http.Request, args *InitializeUserStateArgs, _ *struct{}) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "initializeUserState"),
	)

	owner, err := ParseAddress(args.Owner)
	if err != nil {
		return err
	}
	return s.vm.InitializeUserState(owner)
}

type TokenAccountArgs struct {
	Owner string `json:"owner"`
}

type TokenAccountReply struct {
	Account string `json:"account"`
}

func (s *Service) GetOrCreateTokenAccount(_ *http.Request, args *TokenAccountArgs, reply *TokenAccountReply) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "getOrCreateTokenAccount"),
	)

	owner, err := ParseAddress(args.Owner)
	if err != nil {
		return err
	}
	account, err := s.vm.GetOrCreateTokenAccount(owner)
	if err != nil {
		return err
	}
	reply.Account = FormatAddress(account)
	return nil
}

type StakeTransferArgs struct {
	Owner        string      `json:"owner"`
	TokenAccount string      `json:"tokenAccount"`
	Amount       json.Uint64 `json:"amount"`
}

type StakeTransferReply struct {
	UserBalance json.Uint64 `json:"userBalance"`
	PoolBalance json.Uint64 `json:"poolBalance"`
}

func (s *Service) Deposit(_ *http.Request, args *StakeTransferArgs, reply *StakeTransferReply) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "deposit"),
	)

	owner, tokenAccount, err := parseTransferAddresses(args)
	if err != nil {
		return err
	}
	userBalance, poolBalance, err := s.vm.Deposit(
		owner,
		tokenAccount,
		ledger.NewUserSigner(owner),
		uint64(args.Amount),
	)
	if err != nil {
		return err
	}
	reply.UserBalance = json.Uint64(userBalance)
	reply.PoolBalance = json.Uint64(poolBalance)
	return nil
}

func (s *Service) Withdraw(_ *http.Request, args *StakeTransferArgs, reply *StakeTransferReply) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "withdraw"),
	)

	owner, tokenAccount, err := parseTransferAddresses(args)
	if err != nil {
		return err
	}
	userBalance, poolBalance, err := s.vm.Withdraw(
		owner,
		tokenAccount,
		ledger.NewUserSigner(owner),
		uint64(args.Amount),
	)
	if err != nil {
		return err
	}
	reply.UserBalance = json.Uint64(userBalance)
	reply.PoolBalance = json.Uint64(poolBalance)
	return nil
}

type BalanceArgs struct {
	Owner string `json:"owner"`
}

type BalanceReply struct {
	Balance json.Uint64 `json:"balance"`
}

// Balance returns the owner's staked balance.
func (s *Service) Balance(_ *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "balance"),
	)

	owner, err := ParseAddress(args.Owner)
	if err != nil {
		return err
	}
	balance, err := s.vm.UserBalance(owner)
	if err != nil {
		return err
	}
	reply.Balance = json.Uint64(balance)
	return nil
}

type LedgerBalanceArgs struct {
	Account string `json:"account"`
}

// LedgerBalance returns the custodied amount of a token account.
func (s *Service) LedgerBalance(_ *http.Request, args *LedgerBalanceArgs, reply *BalanceReply) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "ledgerBalance"),
	)

	account, err := ParseAddress(args.Account)
	if err != nil {
		return err
	}
	balance, err := s.vm.LedgerBalance(account)
	if err != nil {
		return err
	}
	reply.Balance = json.Uint64(balance)
	return nil
}

type PoolInfoReply struct {
	Vault        string      `json:"vault"`
	Balance      json.Uint64 `json:"balance"`
	VaultBalance json.Uint64 `json:"vaultBalance"`
}

// PoolInfo returns the pool aggregate and the vault's custodied amount.
func (s *Service) PoolInfo(_ *http.Request, _ *struct{}, reply *PoolInfoReply) error {
	s.vm.log.Debug("API called",
		log.String("service", "stake"),
		log.String("method", "poolInfo"),
	)

	vault, err := s.vm.Vault()
	if err != nil {
		return err
	}
	balance, err := s.vm.PoolBalance()
	if err != nil {
		return err
	}
	vaultBalance, err := s.vm.VaultBalance()
	if err != nil {
		return err
	}
	reply.Vault = FormatAddress(vault)
	reply.Balance = json.Uint64(balance)
	reply.VaultBalance = json.Uint64(vaultBalance)
	return nil
}

func parseTransferAddresses(args *StakeTransferArgs) (ids.ShortID, ids.ShortID, error) {
	owner, err := ParseAddress(args.Owner)
	if err != nil {
		return ids.ShortID{}, ids.ShortID{}, err
	}
	tokenAccount, err := ParseAddress(args.TokenAccount)
	if err != nil {
		return ids.ShortID{}, ids.ShortID{}, err
	}
	return owner, tokenAccount, nil
}
