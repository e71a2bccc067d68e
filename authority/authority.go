// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package authority derives program-controlled signing identities.
//
// A derived authority is computed from a namespace label plus optional seeds
// and a one-byte bump discriminant. The digest for a candidate bump is
// rejected if it decodes as a valid edwards25519 point, since such a digest
// could be the public key of a key pair somebody holds. The surviving digest
// identifies an address that provably has no private key, so only code that
// can recompute the derivation is able to sign for it.
package authority

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"
)

// domain separates authority digests from every other use of the hash.
const domain = "lux-derived-authority"

var (
	ErrNoValidBump        = errors.New("no valid bump in derivation probe space")
	ErrBumpMismatch       = errors.New("saved bump does not yield a derived authority")
	ErrDerivationNotFound = errors.New("derivation not found for saved bump")
)

// Authority is a signing identity with no private key. Values are only
// produced by Derive and DeriveWithBump, so holding one proves the
// derivation was recomputed locally.
type Authority struct {
	addr ids.ShortID
	bump uint8
}

// Address returns the derived identity.
func (a Authority) Address() ids.ShortID {
	return a.addr
}

// Bump returns the discriminant that produced the identity. Callers persist
// it so the same authority can be rebuilt to sign later operations.
func (a Authority) Bump() uint8 {
	return a.bump
}

func (a Authority) String() string {
	return fmt.Sprintf("%s/%d", a.addr, a.bump)
}

// Derive probes bumps from 255 downward and returns the first authority
// whose digest is not a valid curve point. Exhausting the probe space
// returns ErrNoValidBump rather than panicking; with a 256-wide probe space
// this is unreachable in practice but must still surface as an error.
func Derive(namespace []byte, seeds ...[]byte) (Authority, error) {
	for i := 255; i >= 0; i-- {
		bump := uint8(i)
		addr, ok := tryBump(namespace, bump, seeds)
		if !ok {
			continue
		}
		return Authority{addr: addr, bump: bump}, nil
	}
	return Authority{}, fmt.Errorf("%w: namespace %q", ErrNoValidBump, namespace)
}

// DeriveWithBump rebuilds an authority from a persisted bump. The bump must
// be the one Derive found: a bump whose digest is a valid curve point yields
// ErrDerivationNotFound, and a bump skipped by the probe order yields
// ErrBumpMismatch.
func DeriveWithBump(namespace []byte, bump uint8, seeds ...[]byte) (Authority, error) {
	addr, ok := tryBump(namespace, bump, seeds)
	if !ok {
		return Authority{}, fmt.Errorf("%w: namespace %q bump %d", ErrDerivationNotFound, namespace, bump)
	}

	canonical, err := Derive(namespace, seeds...)
	if err != nil {
		return Authority{}, err
	}
	if canonical.bump != bump {
		return Authority{}, fmt.Errorf("%w: namespace %q bump %d", ErrBumpMismatch, namespace, bump)
	}
	return Authority{addr: addr, bump: bump}, nil
}

// tryBump hashes the derivation material and reports whether the digest is
// usable, i.e. not decodable as an edwards25519 point.
func tryBump(namespace []byte, bump uint8, seeds [][]byte) (ids.ShortID, bool) {
	preimage := make([]byte, 0, len(domain)+len(namespace)+1+len(seeds)*32)
	preimage = append(preimage, domain...)
	preimage = append(preimage, namespace...)
	for _, seed := range seeds {
		preimage = append(preimage, seed...)
	}
	preimage = append(preimage, bump)

	digest := hash.ComputeHash256(preimage)
	if _, err := new(edwards25519.Point).SetBytes(digest); err == nil {
		// The digest is a valid public key; someone could hold its private
		// half, so it cannot serve as a program-controlled identity.
		return ids.ShortID{}, false
	}

	addr, err := ids.ToShortID(digest[len(digest)-20:])
	if err != nil {
		return ids.ShortID{}, false
	}
	return addr, true
}
