// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stakevm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/stakevm/utils/json"
)

func TestAddressRoundTrip(t *testing.T) {
	require := require.New(t)

	addr := newTestOwner(t)
	parsed, err := ParseAddress(FormatAddress(addr))
	require.NoError(err)
	require.Equal(addr, parsed)

	_, err = ParseAddress("not-an-address-0OIl")
	require.Error(err)
}

func TestServiceStakeFlow(t *testing.T) {
	require := require.New(t)
	vm, _ := newTestVM(t)
	service := &Service{vm: vm}

	mintReply := InitializeMintReply{}
	require.NoError(service.InitializeMint(nil, &InitializeMintArgs{}, &mintReply))
	require.NotEmpty(mintReply.Mint)

	// Re-initialization surfaces as an API error.
	err := service.InitializeMint(nil, &InitializeMintArgs{}, &InitializeMintReply{})
	require.ErrorIs(err, ErrAlreadyInitialized)

	poolReply := InitializeStakingPoolReply{}
	require.NoError(service.InitializeStakingPool(nil, nil, &poolReply))
	require.NotEmpty(poolReply.Vault)

	owner := newTestOwner(t)
	ownerStr := FormatAddress(owner)

	require.NoError(service.InitializeUserState(nil, &InitializeUserStateArgs{Owner: ownerStr}, nil))

	accountReply := TokenAccountReply{}
	require.NoError(service.GetOrCreateTokenAccount(nil, &TokenAccountArgs{Owner: ownerStr}, &accountReply))

	airdropReply := AirdropReply{}
	require.NoError(service.Airdrop(nil, &AirdropArgs{
		To:     accountReply.Account,
		Amount: 1_000_000_000,
	}, &airdropReply))

	ledgerReply := BalanceReply{}
	require.NoError(service.LedgerBalance(nil, &LedgerBalanceArgs{Account: accountReply.Account}, &ledgerReply))
	require.Equal(json.Uint64(1_000_000_000), ledgerReply.Balance)

	transferReply := StakeTransferReply{}
	require.NoError(service.Deposit(nil, &StakeTransferArgs{
		Owner:        ownerStr,
		TokenAccount: accountReply.Account,
		Amount:       250,
	}, &transferReply))
	require.Equal(json.Uint64(250), transferReply.UserBalance)
	require.Equal(json.Uint64(250), transferReply.PoolBalance)

	poolInfo := PoolInfoReply{}
	require.NoError(service.PoolInfo(nil, nil, &poolInfo))
	require.Equal(poolReply.Vault, poolInfo.Vault)
	require.Equal(json.Uint64(250), poolInfo.Balance)
	require.Equal(json.Uint64(250), poolInfo.VaultBalance)

	require.NoError(service.Withdraw(nil, &StakeTransferArgs{
		Owner:        ownerStr,
		TokenAccount: accountReply.Account,
		Amount:       250,
	}, &transferReply))
	require.Equal(json.Uint64(0), transferReply.UserBalance)
	require.Equal(json.Uint64(0), transferReply.PoolBalance)

	balanceReply := BalanceReply{}
	require.NoError(service.Balance(nil, &BalanceArgs{Owner: ownerStr}, &balanceReply))
	require.Equal(json.Uint64(0), balanceReply.Balance)
}
