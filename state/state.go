// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists the staking records: the mint record, the singleton
// pool record, and one user record per owner. Writes land in a versioned
// layer and only reach the base database on Commit, so an operation that
// fails mid-flight can Abort and leave every record untouched.
package state

import (
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
)

var (
	mintPrefix = []byte("mint")
	poolPrefix = []byte("pool")
	userPrefix = []byte("user")

	// Singleton records live under a fixed key inside their prefix.
	singletonKey = []byte{0x00}
)

// Mint records the asset mint and the discriminant needed to rebuild its
// minting authority.
type Mint struct {
	Address       ids.ShortID `serialize:"true" json:"address"`
	AuthorityBump uint8       `serialize:"true" json:"authorityBump"`
	Decimals      uint8       `serialize:"true" json:"decimals"`
}

// Pool is the shared aggregate. Balance must equal the sum of all user
// balances and the vault's custodied amount after every committed operation.
type Pool struct {
	Vault             ids.ShortID `serialize:"true" json:"vault"`
	PoolAuthority     ids.ShortID `serialize:"true" json:"poolAuthority"`
	PoolAuthorityBump uint8       `serialize:"true" json:"poolAuthorityBump"`
	Balance           uint64      `serialize:"true" json:"balance"`
}

// User is the per-owner staked balance record.
type User struct {
	Owner   ids.ShortID `serialize:"true" json:"owner"`
	Balance uint64      `serialize:"true" json:"balance"`
}

// State mediates all record access. It is not internally synchronized; the
// staking engine serializes access with its own locks.
type State struct {
	vdb *versiondb.Database

	mintDB database.Database
	poolDB database.Database
	userDB database.Database
}

func New(db database.Database) *State {
	vdb := versiondb.New(db)
	return &State{
		vdb:    vdb,
		mintDB: prefixdb.New(mintPrefix, vdb),
		poolDB: prefixdb.New(poolPrefix, vdb),
		userDB: prefixdb.New(userPrefix, vdb),
	}
}

func (s *State) GetMint() (*Mint, error) {
	m := &Mint{}
	if err := s.getSingleton(s.mintDB, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *State) PutMint(m *Mint) error {
	return s.putSingleton(s.mintDB, m)
}

func (s *State) HasMint() (bool, error) {
	return s.mintDB.Has(singletonKey)
}

func (s *State) GetPool() (*Pool, error) {
	p := &Pool{}
	if err := s.getSingleton(s.poolDB, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *State) PutPool(p *Pool) error {
	return s.putSingleton(s.poolDB, p)
}

func (s *State) HasPool() (bool, error) {
	return s.poolDB.Has(singletonKey)
}

func (s *State) GetUser(owner ids.ShortID) (*User, error) {
	data, err := s.userDB.Get(owner.Bytes())
	if err != nil {
		return nil, err
	}
	u := &User{}
	if _, err := Codec.Unmarshal(data, u); err != nil {
		return nil, fmt.Errorf("failed to decode user record: %w", err)
	}
	return u, nil
}

func (s *State) PutUser(u *User) error {
	data, err := Codec.Marshal(CodecVersion, u)
	if err != nil {
		return fmt.Errorf("failed to encode user record: %w", err)
	}
	return s.userDB.Put(u.Owner.Bytes(), data)
}

func (s *State) HasUser(owner ids.ShortID) (bool, error) {
	return s.userDB.Has(owner.Bytes())
}

// Commit flushes staged writes to the base database.
func (s *State) Commit() error {
	return s.vdb.Commit()
}

// Abort discards staged writes.
func (s *State) Abort() {
	s.vdb.Abort()
}

func (s *State) Close() error {
	return s.vdb.Close()
}

func (s *State) getSingleton(db database.Database, v interface{}) error {
	data, err := db.Get(singletonKey)
	if err != nil {
		return err
	}
	if _, err := Codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

func (s *State) putSingleton(db database.Database, v interface{}) error {
	data, err := Codec.Marshal(CodecVersion, v)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return db.Put(singletonKey, data)
}
