// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package balances

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/lvldb"
	"github.com/eden-network/eden/state"
	"github.com/eden-network/eden/test/datagen"
)

func newTestBalances(t *testing.T) *Balances {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(state.New(db))
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestReserveUnreserve(t *testing.T) {
	b := newTestBalances(t)
	acc := datagen.RandAddress()
	require.NoError(t, b.MintInto(acc, u(100)))

	assert.ErrorIs(t, b.Reserve(acc, u(101)), reverts.ErrInsufficientFunds)
	require.NoError(t, b.Reserve(acc, u(60)))

	free, err := b.Free(acc)
	require.NoError(t, err)
	assert.Equal(t, u(40), free)
	reserved, err := b.Reserved(acc)
	require.NoError(t, err)
	assert.Equal(t, u(60), reserved)

	assert.Error(t, b.Unreserve(acc, u(61)))
	require.NoError(t, b.Unreserve(acc, u(60)))
	free, err = b.Free(acc)
	require.NoError(t, err)
	assert.Equal(t, u(100), free)
}

func TestTransfer(t *testing.T) {
	b := newTestBalances(t)
	from, to := datagen.RandAddress(), datagen.RandAddress()
	require.NoError(t, b.MintInto(from, u(10)))

	assert.ErrorIs(t, b.Transfer(from, to, u(11)), reverts.ErrInsufficientFunds)
	require.NoError(t, b.Transfer(from, to, u(4)))
	require.NoError(t, b.Transfer(to, to, u(4)))

	got, err := b.Free(to)
	require.NoError(t, err)
	assert.Equal(t, u(4), got)
	got, err = b.Free(from)
	require.NoError(t, err)
	assert.Equal(t, u(6), got)
}

func TestMintBurnIssuance(t *testing.T) {
	b := newTestBalances(t)
	acc := datagen.RandAddress()
	require.NoError(t, b.MintInto(acc, u(50)))
	require.NoError(t, b.MintInto(acc, u(0)))
	require.NoError(t, b.Reserve(acc, u(30)))

	assert.Error(t, b.BurnFrom(acc, u(31)))
	require.NoError(t, b.BurnFrom(acc, u(30)))

	issuance, err := b.Issuance()
	require.NoError(t, err)
	assert.Equal(t, u(20), issuance)
	reserved, err := b.Reserved(acc)
	require.NoError(t, err)
	assert.True(t, reserved.IsZero())
}

func TestTreasury(t *testing.T) {
	b := newTestBalances(t)
	acc := datagen.RandAddress()
	tr := NewTreasury(b, acc)
	require.NoError(t, tr.Deposit(u(7)))

	got, err := b.Free(tr.Account())
	require.NoError(t, err)
	assert.Equal(t, u(7), got)
}
