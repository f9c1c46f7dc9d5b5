// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eden-network/eden/builtin/balances"
	"github.com/eden-network/eden/builtin/staker"
	"github.com/eden-network/eden/builtin/staker/rewards"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/genesis"
	"github.com/eden-network/eden/lvldb"
	"github.com/eden-network/eden/state"
)

const doc = `
name: testnet
accounts:
  - address: "0x0000000000000000000000000000000000000001"
    balance: 1000
    bond: 600
    candidate: true
  - address: "0x0000000000000000000000000000000000000002"
    balance: 500
    bond: 300
    payee: free
    nominations:
      - validator: "0x0000000000000000000000000000000000000001"
        amount: 300
`

type clock struct{}

func (clock) CurrentBlock() uint32 { return 0 }

func newStaker(t *testing.T) (*staker.Staker, *balances.Balances) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)
	b := balances.New(st)
	cfg := staker.DefaultConfig()
	s := staker.New(st, cfg, staker.Deps{
		Balances: b,
		Clock:    clock{},
		Treasury: balances.NewTreasury(b, cfg.TreasuryAccount),
	})
	return s, b
}

func TestParseAndApply(t *testing.T) {
	g, err := genesis.Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "testnet", g.Name())
	require.Len(t, g.Accounts(), 2)

	v := eden.MustParseAddress("0x0000000000000000000000000000000000000001")
	n := eden.MustParseAddress("0x0000000000000000000000000000000000000002")

	s, b := newStaker(t)
	require.NoError(t, g.Apply(s, b))

	l, err := s.Ledger(v)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(600), &l.Active)
	free, err := b.Free(v)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(400), free)

	cands, err := s.Candidates()
	require.NoError(t, err)
	assert.Equal(t, []eden.Address{v}, cands)

	exp, err := s.Exposure(v)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(900), exp.Total())

	payee, err := s.Payee(n)
	require.NoError(t, err)
	assert.Equal(t, rewards.PayeeFree, payee)
}

func TestID(t *testing.T) {
	g1, err := genesis.Parse([]byte(doc))
	require.NoError(t, err)
	g2, err := genesis.Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, g1.ID(), g2.ID())
	assert.NotEqual(t, g1.ID(), genesis.NewDevnet(1, 1).ID())
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "name: x\nfoo: 1\n"},
		{"no address", "accounts:\n  - balance: 1\n"},
		{"bond above balance", "accounts:\n  - address: \"0x0000000000000000000000000000000000000001\"\n    balance: 1\n    bond: 2\n"},
		{"candidate without bond", "accounts:\n  - address: \"0x0000000000000000000000000000000000000001\"\n    candidate: true\n"},
		{"bad payee", "accounts:\n  - address: \"0x0000000000000000000000000000000000000001\"\n    payee: nowhere\n"},
		{"duplicate", "accounts:\n  - address: \"0x0000000000000000000000000000000000000001\"\n  - address: \"0x0000000000000000000000000000000000000001\"\n"},
		{"bad amount", "accounts:\n  - address: \"0x0000000000000000000000000000000000000001\"\n    balance: lots\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := genesis.Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDevnet(t *testing.T) {
	g := genesis.NewDevnet(3, 4)
	require.Len(t, g.Accounts(), 7)

	s, b := newStaker(t)
	require.NoError(t, g.Apply(s, b))
	cands, err := s.Candidates()
	require.NoError(t, err)
	assert.Len(t, cands, 3)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(3*1_000_000+4*500_000), totals.Active)
}
