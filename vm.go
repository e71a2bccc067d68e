// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package stakevm implements a custodial staking engine: users deposit a
// fungible asset into a shared vault and withdraw it later, while derived
// authorities controlled by the engine sign the vault-affecting ledger
// instructions. Airdrops mint fresh units straight to a user token account
// and never touch the staking records.
package stakevm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	safemath "github.com/luxfi/math"
	"github.com/luxfi/metric"

	"github.com/luxfi/stakevm/authority"
	"github.com/luxfi/stakevm/ledger"
	"github.com/luxfi/stakevm/metrics"
	"github.com/luxfi/stakevm/state"
)

// Derivation namespaces. These match the account seeds of the deployed
// program, so derived addresses are stable across restarts.
var (
	TokenMintNamespace        = []byte("token-mint")
	MintAuthorityNamespace    = []byte("mint-authority")
	PoolAuthorityNamespace    = []byte("pool-authority")
	VaultAccountNamespace     = []byte("vault-token-account")
	UserTokenAccountNamespace = []byte("token-account")
)

// VM is the staking engine. All balance-moving operations stage their record
// writes in a versioned layer, issue the ledger instruction, and only then
// commit, so a rejected instruction leaves every record untouched.
type VM struct {
	config  Config
	log     log.Logger
	metrics metrics.Metrics

	registerer metric.Registerer

	baseDB database.Database
	state  *state.State
	ledger ledger.Ledger

	// poolLock serializes every operation that stages record writes. The
	// staging layer is shared, so it must be held from the first staged
	// write until commit or abort. Record reads take it too, so staged
	// writes of an in-flight operation are never observable.
	poolLock sync.Mutex

	// Per-owner locks; always acquired before poolLock.
	userLocksMu sync.Mutex
	userLocks   map[ids.ShortID]*sync.Mutex
}

// Initialize wires the engine to its database and asset ledger. A nil logger
// disables logging.
func (vm *VM) Initialize(
	db database.Database,
	assetLedger ledger.Ledger,
	configBytes []byte,
	logger log.Logger,
) error {
	cfg, err := ParseConfig(configBytes)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	vm.config = cfg

	if logger == nil {
		logger = log.NoLog{}
	}
	vm.log = logger

	vm.registerer = metric.NewRegistry()
	vm.metrics, err = metrics.New(vm.registerer)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	vm.baseDB = db
	vm.state = state.New(db)
	vm.ledger = assetLedger
	vm.userLocks = make(map[ids.ShortID]*sync.Mutex)

	vm.log.Info("staking engine initialized",
		log.Reflect("config", cfg),
	)
	return nil
}

func (vm *VM) Shutdown() error {
	if vm.state == nil {
		return nil
	}
	return errors.Join(
		vm.state.Close(),
		vm.baseDB.Close(),
	)
}

// CreateHandlers exposes the JSON-RPC service.
func (vm *VM) CreateHandlers(context.Context) (map[string]http.Handler, error) {
	rpcServer := rpc.NewServer()
	rpcServer.RegisterCodec(json2.NewCodec(), "application/json")
	rpcServer.RegisterCodec(json2.NewCodec(), "application/json;charset=UTF-8")
	rpcServer.RegisterInterceptFunc(vm.metrics.InterceptRequest)
	rpcServer.RegisterAfterFunc(vm.metrics.AfterRequest)
	if err := rpcServer.RegisterService(&Service{vm: vm}, "stake"); err != nil {
		return nil, err
	}

	return map[string]http.Handler{
		"": rpcServer,
	}, nil
}

/*
 ******************************************************************************
 ******************************** Operations **********************************
 ******************************************************************************
 */

// InitializeMint creates the asset mint under the "mint-authority" derived
// authority and returns the mint address. Re-running it fails with
// ErrAlreadyInitialized.
func (vm *VM) InitializeMint(decimals uint8) (ids.ShortID, error) {
	vm.poolLock.Lock()
	defer vm.poolLock.Unlock()

	switch ok, err := vm.state.HasMint(); {
	case err != nil:
		return ids.ShortID{}, err
	case ok:
		return ids.ShortID{}, fmt.Errorf("%w: token mint", ErrAlreadyInitialized)
	}

	mint, err := authority.Derive(TokenMintNamespace)
	if err != nil {
		return ids.ShortID{}, err
	}
	mintAuthority, err := authority.Derive(MintAuthorityNamespace)
	if err != nil {
		return ids.ShortID{}, err
	}

	record := &state.Mint{
		Address:       mint.Address(),
		AuthorityBump: mintAuthority.Bump(),
		Decimals:      decimals,
	}
	if err := vm.state.PutMint(record); err != nil {
		vm.state.Abort()
		return ids.ShortID{}, err
	}

	if err := vm.ledger.CreateMint(mint.Address(), mintAuthority.Address(), decimals); err != nil {
		vm.state.Abort()
		vm.metrics.IncAborted()
		if errors.Is(err, ledger.ErrMintExists) {
			return ids.ShortID{}, fmt.Errorf("%w: token mint", ErrAlreadyInitialized)
		}
		return ids.ShortID{}, fmt.Errorf("ledger rejected mint creation: %w", err)
	}

	if err := vm.state.Commit(); err != nil {
		vm.state.Abort()
		return ids.ShortID{}, err
	}

	vm.log.Info("token mint initialized",
		log.Stringer("mint", mint.Address()),
		log.Uint64("decimals", uint64(decimals)),
	)
	return mint.Address(), nil
}

// Airdrop mints [amount] units to the token account [to], signed by the
// recomputed "mint-authority". It deliberately leaves the pool and user
// records alone: airdropped funds are unstaked until deposited.
func (vm *VM) Airdrop(to ids.ShortID, amount uint64) error {
	vm.poolLock.Lock()
	mint, err := vm.state.GetMint()
	vm.poolLock.Unlock()
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: token mint", ErrNotFound)
		}
		return err
	}

	signer, err := authority.DeriveWithBump(MintAuthorityNamespace, mint.AuthorityBump)
	if err != nil {
		return err
	}

	vm.log.Info("airdropping tokens",
		log.Uint64("amount", amount),
		log.Stringer("to", to),
	)

	if err := vm.ledger.MintTo(mint.Address, to, signer, amount); err != nil {
		vm.metrics.IncAborted()
		return fmt.Errorf("ledger rejected airdrop: %w", err)
	}

	vm.metrics.IncAirdrop()
	vm.log.Info("airdrop complete")
	return nil
}

// InitializeStakingPool creates the vault token account under the
// "pool-authority" derived authority and the pool record with balance 0.
// It returns the vault address.
func (vm *VM) InitializeStakingPool() (ids.ShortID, error) {
	vm.poolLock.Lock()
	defer vm.poolLock.Unlock()

	switch ok, err := vm.state.HasPool(); {
	case err != nil:
		return ids.ShortID{}, err
	case ok:
		return ids.ShortID{}, fmt.Errorf("%w: staking pool", ErrAlreadyInitialized)
	}

	mint, err := vm.state.GetMint()
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ids.ShortID{}, fmt.Errorf("%w: token mint", ErrNotFound)
		}
		return ids.ShortID{}, err
	}

	poolAuthority, err := authority.Derive(PoolAuthorityNamespace)
	if err != nil {
		return ids.ShortID{}, err
	}
	vault, err := authority.Derive(VaultAccountNamespace)
	if err != nil {
		return ids.ShortID{}, err
	}

	record := &state.Pool{
		Vault:             vault.Address(),
		PoolAuthority:     poolAuthority.Address(),
		PoolAuthorityBump: poolAuthority.Bump(),
		Balance:           0,
	}
	if err := vm.state.PutPool(record); err != nil {
		vm.state.Abort()
		return ids.ShortID{}, err
	}

	if err := vm.ledger.CreateAccount(vault.Address(), mint.Address, poolAuthority.Address()); err != nil {
		vm.state.Abort()
		vm.metrics.IncAborted()
		if errors.Is(err, ledger.ErrAccountExists) {
			return ids.ShortID{}, fmt.Errorf("%w: vault account", ErrAlreadyInitialized)
		}
		return ids.ShortID{}, fmt.Errorf("ledger rejected vault creation: %w", err)
	}

	if err := vm.state.Commit(); err != nil {
		vm.state.Abort()
		return ids.ShortID{}, err
	}

	vm.log.Info("staking pool initialized",
		log.Stringer("vault", vault.Address()),
		log.Stringer("poolAuthority", poolAuthority.Address()),
	)
	return vault.Address(), nil
}

// InitializeUserState creates the per-owner staking record with balance 0.
func (vm *VM) InitializeUserState(owner ids.ShortID) error {
	lock := vm.lockFor(owner)
	lock.Lock()
	defer lock.Unlock()
	vm.poolLock.Lock()
	defer vm.poolLock.Unlock()

	switch ok, err := vm.state.HasUser(owner); {
	case err != nil:
		return err
	case ok:
		return fmt.Errorf("%w: user state for %s", ErrAlreadyInitialized, owner)
	}

	if err := vm.state.PutUser(&state.User{Owner: owner}); err != nil {
		vm.state.Abort()
		return err
	}
	if err := vm.state.Commit(); err != nil {
		vm.state.Abort()
		return err
	}

	vm.log.Info("user state initialized",
		log.Stringer("owner", owner),
	)
	return nil
}

// GetOrCreateTokenAccount resolves the owner's personal token account,
// registering it with the ledger on first use. The address is derived from
// the owner identity, so repeated calls return the same account.
func (vm *VM) GetOrCreateTokenAccount(owner ids.ShortID) (ids.ShortID, error) {
	vm.poolLock.Lock()
	mint, err := vm.state.GetMint()
	vm.poolLock.Unlock()
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ids.ShortID{}, fmt.Errorf("%w: token mint", ErrNotFound)
		}
		return ids.ShortID{}, err
	}

	account, err := authority.Derive(UserTokenAccountNamespace, owner.Bytes())
	if err != nil {
		return ids.ShortID{}, err
	}

	err = vm.ledger.CreateAccount(account.Address(), mint.Address, owner)
	if err != nil && !errors.Is(err, ledger.ErrAccountExists) {
		return ids.ShortID{}, fmt.Errorf("ledger rejected account creation: %w", err)
	}
	return account.Address(), nil
}

// Deposit moves [amount] from the owner's token account into the vault and
// credits the staking records. [signer] must be the owner's own signature;
// the three balance views move together or not at all.
func (vm *VM) Deposit(
	owner ids.ShortID,
	tokenAccount ids.ShortID,
	signer ledger.Signer,
	amount uint64,
) (uint64, uint64, error) {
	lock := vm.lockFor(owner)
	lock.Lock()
	defer lock.Unlock()
	vm.poolLock.Lock()
	defer vm.poolLock.Unlock()

	user, pool, err := vm.loadStakeRecords(owner)
	if err != nil {
		return 0, 0, err
	}
	if signer == nil || signer.Address() != user.Owner {
		return 0, 0, fmt.Errorf("%w: deposit must be signed by %s", ErrUnauthorized, user.Owner)
	}

	user.Balance, err = safemath.Add64(user.Balance, amount)
	if err != nil {
		return 0, 0, fmt.Errorf("deposit of %d overflows user balance: %w", amount, err)
	}
	pool.Balance, err = safemath.Add64(pool.Balance, amount)
	if err != nil {
		return 0, 0, fmt.Errorf("deposit of %d overflows pool balance: %w", amount, err)
	}

	if err := vm.stageStakeRecords(user, pool); err != nil {
		return 0, 0, err
	}

	if err := vm.ledger.Transfer(tokenAccount, pool.Vault, signer, amount); err != nil {
		vm.state.Abort()
		vm.metrics.IncAborted()
		return 0, 0, fmt.Errorf("ledger rejected deposit transfer: %w", err)
	}

	if err := vm.state.Commit(); err != nil {
		vm.state.Abort()
		return 0, 0, err
	}

	vm.metrics.IncDeposit()
	vm.logBalances("deposit committed", user, pool)
	return user.Balance, pool.Balance, nil
}

// Withdraw moves [amount] from the vault back to the owner's token account,
// authorized by the recomputed "pool-authority", and debits the staking
// records. A withdraw larger than the staked balance fails with
// ErrInsufficientBalance and changes nothing.
func (vm *VM) Withdraw(
	owner ids.ShortID,
	tokenAccount ids.ShortID,
	signer ledger.Signer,
	amount uint64,
) (uint64, uint64, error) {
	lock := vm.lockFor(owner)
	lock.Lock()
	defer lock.Unlock()
	vm.poolLock.Lock()
	defer vm.poolLock.Unlock()

	user, pool, err := vm.loadStakeRecords(owner)
	if err != nil {
		return 0, 0, err
	}
	if signer == nil || signer.Address() != user.Owner {
		return 0, 0, fmt.Errorf("%w: withdraw must be requested by %s", ErrUnauthorized, user.Owner)
	}
	if user.Balance < amount {
		return 0, 0, ErrInsufficientBalance
	}

	// Safe given the precondition; checked anyway to keep the arithmetic
	// uniform with Deposit.
	user.Balance, err = safemath.Sub(user.Balance, amount)
	if err != nil {
		return 0, 0, err
	}
	pool.Balance, err = safemath.Sub(pool.Balance, amount)
	if err != nil {
		return 0, 0, err
	}

	if err := vm.stageStakeRecords(user, pool); err != nil {
		return 0, 0, err
	}

	poolAuthority, err := authority.DeriveWithBump(PoolAuthorityNamespace, pool.PoolAuthorityBump)
	if err != nil {
		vm.state.Abort()
		return 0, 0, err
	}

	if err := vm.ledger.Transfer(pool.Vault, tokenAccount, poolAuthority, amount); err != nil {
		vm.state.Abort()
		vm.metrics.IncAborted()
		return 0, 0, fmt.Errorf("ledger rejected withdraw transfer: %w", err)
	}

	if err := vm.state.Commit(); err != nil {
		vm.state.Abort()
		return 0, 0, err
	}

	vm.metrics.IncWithdraw()
	vm.logBalances("withdraw committed", user, pool)
	return user.Balance, pool.Balance, nil
}

/*
 ******************************************************************************
 ********************************** Queries ***********************************
 ******************************************************************************
 */

// UserBalance returns the owner's staked balance.
func (vm *VM) UserBalance(owner ids.ShortID) (uint64, error) {
	vm.poolLock.Lock()
	user, err := vm.state.GetUser(owner)
	vm.poolLock.Unlock()
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, fmt.Errorf("%w: user state for %s", ErrNotFound, owner)
		}
		return 0, err
	}
	return user.Balance, nil
}

// PoolBalance returns the aggregate staked balance.
func (vm *VM) PoolBalance() (uint64, error) {
	vm.poolLock.Lock()
	pool, err := vm.getPool()
	vm.poolLock.Unlock()
	if err != nil {
		return 0, err
	}
	return pool.Balance, nil
}

// Vault returns the vault token account address.
func (vm *VM) Vault() (ids.ShortID, error) {
	vm.poolLock.Lock()
	pool, err := vm.getPool()
	vm.poolLock.Unlock()
	if err != nil {
		return ids.ShortID{}, err
	}
	return pool.Vault, nil
}

// VaultBalance returns the vault's custodied amount as the ledger sees it.
func (vm *VM) VaultBalance() (uint64, error) {
	vm.poolLock.Lock()
	pool, err := vm.getPool()
	vm.poolLock.Unlock()
	if err != nil {
		return 0, err
	}
	return vm.ledger.BalanceOf(pool.Vault)
}

// LedgerBalance returns the custodied amount of an arbitrary token account.
func (vm *VM) LedgerBalance(account ids.ShortID) (uint64, error) {
	return vm.ledger.BalanceOf(account)
}

/*
 ******************************************************************************
 ********************************** Helpers ***********************************
 ******************************************************************************
 */

func (vm *VM) lockFor(owner ids.ShortID) *sync.Mutex {
	vm.userLocksMu.Lock()
	defer vm.userLocksMu.Unlock()

	lock, ok := vm.userLocks[owner]
	if !ok {
		lock = &sync.Mutex{}
		vm.userLocks[owner] = lock
	}
	return lock
}

// getPool reads the pool record; callers hold poolLock.
func (vm *VM) getPool() (*state.Pool, error) {
	pool, err := vm.state.GetPool()
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: staking pool", ErrNotFound)
		}
		return nil, err
	}
	return pool, nil
}

func (vm *VM) loadStakeRecords(owner ids.ShortID) (*state.User, *state.Pool, error) {
	user, err := vm.state.GetUser(owner)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: user state for %s", ErrNotFound, owner)
		}
		return nil, nil, err
	}
	pool, err := vm.getPool()
	if err != nil {
		return nil, nil, err
	}
	return user, pool, nil
}

func (vm *VM) stageStakeRecords(user *state.User, pool *state.Pool) error {
	if err := vm.state.PutUser(user); err != nil {
		vm.state.Abort()
		return err
	}
	if err := vm.state.PutPool(pool); err != nil {
		vm.state.Abort()
		return err
	}
	return nil
}

func (vm *VM) logBalances(msg string, user *state.User, pool *state.Pool) {
	if !vm.config.LogOperations {
		return
	}
	vm.log.Info(msg,
		log.Stringer("owner", user.Owner),
		log.Uint64("userBalance", user.Balance),
		log.Uint64("poolBalance", pool.Balance),
	)
}
