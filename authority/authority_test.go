// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package authority

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/crypto/secp256k1"
)

func TestDeriveDeterministic(t *testing.T) {
	require := require.New(t)

	a, err := Derive([]byte("mint-authority"))
	require.NoError(err)
	b, err := Derive([]byte("mint-authority"))
	require.NoError(err)

	require.Equal(a.Address(), b.Address())
	require.Equal(a.Bump(), b.Bump())
}

func TestDeriveDistinctNamespaces(t *testing.T) {
	require := require.New(t)

	mint, err := Derive([]byte("mint-authority"))
	require.NoError(err)
	pool, err := Derive([]byte("pool-authority"))
	require.NoError(err)

	require.NotEqual(mint.Address(), pool.Address())
}

func TestDeriveOwnerScoped(t *testing.T) {
	require := require.New(t)

	keyA, err := secp256k1.NewPrivateKey()
	require.NoError(err)
	keyB, err := secp256k1.NewPrivateKey()
	require.NoError(err)

	ownerA := keyA.PublicKey().Address()
	ownerB := keyB.PublicKey().Address()

	a, err := Derive([]byte("token-account"), ownerA.Bytes())
	require.NoError(err)
	b, err := Derive([]byte("token-account"), ownerB.Bytes())
	require.NoError(err)

	require.NotEqual(a.Address(), b.Address())

	// The same owner always resolves to the same account.
	again, err := Derive([]byte("token-account"), ownerA.Bytes())
	require.NoError(err)
	require.Equal(a.Address(), again.Address())
}

func TestDeriveWithBumpRoundTrip(t *testing.T) {
	require := require.New(t)

	derived, err := Derive([]byte("pool-authority"))
	require.NoError(err)

	rebuilt, err := DeriveWithBump([]byte("pool-authority"), derived.Bump())
	require.NoError(err)
	require.Equal(derived.Address(), rebuilt.Address())
	require.Equal(derived.Bump(), rebuilt.Bump())
}

func TestDeriveWithWrongBump(t *testing.T) {
	require := require.New(t)

	derived, err := Derive([]byte("pool-authority"))
	require.NoError(err)

	// Any other bump must be rejected, either because its digest is a curve
	// point or because the probe order would never have selected it.
	wrongBump := derived.Bump() - 1
	_, err = DeriveWithBump([]byte("pool-authority"), wrongBump)
	require.Error(err)
}

func TestDeriveNamespaceMismatchBump(t *testing.T) {
	require := require.New(t)

	derived, err := Derive([]byte("mint-authority"))
	require.NoError(err)

	rebuilt, err := DeriveWithBump([]byte("mint-authority"), derived.Bump())
	require.NoError(err)

	other, err := Derive([]byte("pool-authority"))
	require.NoError(err)
	require.NotEqual(rebuilt.Address(), other.Address())
}
