// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package candidates

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/lvldb"
	"github.com/eden-network/eden/state"
)

type fakeStakes map[eden.Address]uint64

func (f fakeStakes) Active(account eden.Address) (*uint256.Int, error) {
	return uint256.NewInt(f[account]), nil
}

func newTestService(t *testing.T, stakes fakeStakes) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(storage.NewContext(eden.Address{0xcc}, state.New(db)), stakes)
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

var (
	v1 = eden.Address{0x01}
	v2 = eden.Address{0x02}
	n1 = eden.Address{0x11}
	n2 = eden.Address{0x12}
)

func TestRegister(t *testing.T) {
	stakes := fakeStakes{v1: 100, n1: 50}
	svc := newTestService(t, stakes)

	assert.ErrorIs(t, svc.Register(v2), reverts.ErrNotBonded)
	require.NoError(t, svc.Register(v1))
	assert.ErrorIs(t, svc.Register(v1), reverts.ErrAlreadyCandidate)

	require.NoError(t, svc.Nominate(n1, v1, u(10)))
	assert.ErrorIs(t, svc.Register(n1), reverts.ErrNominating)

	ok, err := svc.IsCandidate(v1)
	require.NoError(t, err)
	assert.True(t, ok)
	count, err := svc.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNominateErrors(t *testing.T) {
	stakes := fakeStakes{v1: 100, v2: 100, n1: 50}
	svc := newTestService(t, stakes)
	require.NoError(t, svc.Register(v1))
	require.NoError(t, svc.Register(v2))

	tests := []struct {
		name      string
		nominator eden.Address
		validator eden.Address
		amount    uint64
		err       error
	}{
		{"zero amount", n1, v1, 0, reverts.ErrZeroAmount},
		{"not a candidate", n1, n2, 10, reverts.ErrNotCandidate},
		{"candidate nominating", v2, v1, 10, reverts.ErrAlreadyCandidate},
		{"over active", n1, v1, 51, reverts.ErrInsufficientActiveStake},
		{"first", n1, v1, 30, nil},
		{"over remaining", n1, v2, 21, reverts.ErrInsufficientActiveStake},
		{"second", n1, v2, 20, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Nominate(tt.nominator, tt.validator, u(tt.amount))
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}

	n, err := svc.Nominations(n1)
	require.NoError(t, err)
	require.Len(t, n.Targets, 2)
	assert.Equal(t, v1, n.Targets[0].Validator)
	assert.Equal(t, v2, n.Targets[1].Validator)
	assert.Equal(t, u(50), n.Sum())
}

func TestExposure(t *testing.T) {
	stakes := fakeStakes{v1: 100, v2: 80, n1: 300, n2: 600}
	svc := newTestService(t, stakes)
	require.NoError(t, svc.Register(v1))
	require.NoError(t, svc.Register(v2))

	require.NoError(t, svc.Nominate(n2, v1, u(600)))
	require.NoError(t, svc.Nominate(n1, v1, u(200)))
	require.NoError(t, svc.Nominate(n1, v1, u(100)))

	c, err := svc.Exposure(v1)
	require.NoError(t, err)
	assert.Equal(t, u(100), c.SelfBond)
	require.Len(t, c.Nominators, 2)
	assert.Equal(t, n1, c.Nominators[0].Nominator)
	assert.Equal(t, u(300), c.Nominators[0].Amount)
	assert.Equal(t, n2, c.Nominators[1].Nominator)
	assert.Equal(t, u(600), c.Nominators[1].Amount)
	assert.Equal(t, u(1000), c.Total())

	// n1 lost stake after nominating: the remainder is spread in validator order
	stakes[n1] = 120
	c, err = svc.Exposure(v1)
	require.NoError(t, err)
	assert.Equal(t, u(120), c.Nominators[0].Amount)

	stakes[n1] = 0
	c, err = svc.Exposure(v1)
	require.NoError(t, err)
	require.Len(t, c.Nominators, 1)
	assert.Equal(t, n2, c.Nominators[0].Nominator)

	c, err = svc.Exposure(v2)
	require.NoError(t, err)
	assert.Empty(t, c.Nominators)
	assert.Equal(t, u(80), c.Total())
}

func TestAllocate(t *testing.T) {
	n := &Nominations{Targets: []Target{
		{Validator: v1, Amount: *u(40)},
		{Validator: v2, Amount: *u(40)},
	}}
	tests := []struct {
		active uint64
		want1  uint64
		want2  uint64
	}{
		{80, 40, 40},
		{100, 40, 40},
		{60, 40, 20},
		{30, 30, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, u(tt.want1), n.Allocate(v1, u(tt.active)))
		assert.Equal(t, u(tt.want2), n.Allocate(v2, u(tt.active)))
		assert.True(t, n.Allocate(n1, u(tt.active)).IsZero())
	}
}

func TestDenominateAndLeave(t *testing.T) {
	stakes := fakeStakes{v1: 100, v2: 100, n1: 50, n2: 50}
	svc := newTestService(t, stakes)
	require.NoError(t, svc.Register(v1))
	require.NoError(t, svc.Register(v2))
	require.NoError(t, svc.Nominate(n1, v1, u(10)))
	require.NoError(t, svc.Nominate(n1, v2, u(10)))
	require.NoError(t, svc.Nominate(n2, v1, u(10)))

	assert.ErrorIs(t, svc.Denominate(n2, v2), reverts.ErrNotNominated)
	assert.ErrorIs(t, svc.Denominate(v1, v2), reverts.ErrNotNominated)

	require.NoError(t, svc.Denominate(n1, v2))
	c, err := svc.Exposure(v2)
	require.NoError(t, err)
	assert.Empty(t, c.Nominators)

	next, err := svc.Leave(v1)
	require.NoError(t, err)
	assert.Equal(t, v2, next)

	for _, n := range []eden.Address{n1, n2} {
		noms, err := svc.Nominations(n)
		require.NoError(t, err)
		assert.Nil(t, noms)
	}
	_, err = svc.Leave(v1)
	assert.ErrorIs(t, err, reverts.ErrNotCandidate)

	// a former nominator may now register
	require.NoError(t, svc.Register(n1))
	head, err := svc.Head()
	require.NoError(t, err)
	assert.Equal(t, v2, head)
}
