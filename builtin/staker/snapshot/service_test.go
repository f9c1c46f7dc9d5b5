// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package snapshot

import (
	"slices"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eden-network/eden/builtin/staker/candidates"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/lvldb"
	"github.com/eden-network/eden/state"
)

type fakeSource struct {
	order []eden.Address
	exp   map[eden.Address]*candidates.Candidate
}

func newFakeSource() *fakeSource {
	return &fakeSource{exp: map[eden.Address]*candidates.Candidate{}}
}

func (f *fakeSource) add(account eden.Address, self uint64, noms ...uint64) {
	c := &candidates.Candidate{Account: account, SelfBond: uint256.NewInt(self)}
	for i, n := range noms {
		c.Nominators = append(c.Nominators, candidates.Nomination{
			Nominator: eden.Address{0xf0, account[0], byte(i)},
			Amount:    uint256.NewInt(n),
		})
	}
	f.order = append(f.order, account)
	f.exp[account] = c
}

func (f *fakeSource) remove(account eden.Address) eden.Address {
	i := slices.Index(f.order, account)
	f.order = slices.Delete(f.order, i, i+1)
	delete(f.exp, account)
	if i < len(f.order) {
		return f.order[i]
	}
	return eden.Address{}
}

func (f *fakeSource) Head() (eden.Address, error) {
	if len(f.order) == 0 {
		return eden.Address{}, nil
	}
	return f.order[0], nil
}

func (f *fakeSource) Next(account eden.Address) (eden.Address, error) {
	i := slices.Index(f.order, account)
	if i < 0 || i+1 >= len(f.order) {
		return eden.Address{}, nil
	}
	return f.order[i+1], nil
}

func (f *fakeSource) Exposure(validator eden.Address) (*candidates.Candidate, error) {
	return f.exp[validator], nil
}

func newTestService(t *testing.T, src Source, params Params) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(storage.NewContext(eden.Address{0x5a}, state.New(db)), src, params)
}

func defaultParams() Params {
	return Params{
		MaxValidators:     3,
		MinValidators:     2,
		MaxNominators:     2,
		DegradedThreshold: 2,
		Retention:         4,
		Budget:            10,
	}
}

func runRound(t *testing.T, svc *Service, round uint32) *Outcome {
	require.NoError(t, svc.Begin(round))
	for range 100 {
		out, err := svc.Step()
		require.NoError(t, err)
		if out != nil {
			return out
		}
	}
	t.Fatal("round did not finalize")
	return nil
}

func TestSelection(t *testing.T) {
	src := newFakeSource()
	src.add(eden.Address{1}, 100)
	src.add(eden.Address{2}, 50, 60)
	src.add(eden.Address{3}, 110)
	src.add(eden.Address{4}, 10)
	src.add(eden.Address{5}, 0)
	svc := newTestService(t, src, defaultParams())

	out := runRound(t, svc, 0)
	assert.False(t, out.Round.Degraded)
	assert.Equal(t, uint32(0), out.Streak)
	// ties by account ascending
	assert.Equal(t, []eden.Address{{2}, {3}, {1}}, out.Round.Validators)
	assert.Equal(t, uint256.NewInt(320), &out.Round.TotalExposure)
	assert.Equal(t, SetRoot(out.Round.Validators), out.Round.Root)

	snap, err := svc.Snapshot(0, eden.Address{2})
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(110), &snap.TotalExposure)
	assert.Equal(t, uint256.NewInt(50), &snap.OwnExposure)

	snap, err = svc.Snapshot(0, eden.Address{4})
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSelectionDeterministic(t *testing.T) {
	type cand struct {
		account eden.Address
		self    uint64
		noms    []uint64
	}
	cands := []cand{
		{eden.Address{1}, 100, nil},
		{eden.Address{2}, 40, []uint64{30, 30, 30}},
		{eden.Address{3}, 100, nil},
		{eden.Address{4}, 70, []uint64{30}},
		{eden.Address{5}, 99, nil},
	}
	orders := [][]int{{0, 1, 2, 3, 4}, {4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}}

	var (
		want  *Outcome
		snaps []*Snapshot
	)
	for _, budget := range []int{1, 10} {
		for _, order := range orders {
			src := newFakeSource()
			for _, i := range order {
				src.add(cands[i].account, cands[i].self, cands[i].noms...)
			}
			params := defaultParams()
			params.Budget = budget
			svc := newTestService(t, src, params)
			out := runRound(t, svc, 0)

			var got []*Snapshot
			for _, v := range out.Round.Validators {
				snap, err := svc.Snapshot(0, v)
				require.NoError(t, err)
				got = append(got, snap)
			}
			if want == nil {
				want, snaps = out, got
				continue
			}
			assert.Equal(t, want.Round.Validators, out.Round.Validators, "order %v budget %d", order, budget)
			assert.Equal(t, want.Round.Root, out.Round.Root)
			assert.Equal(t, snaps, got)
		}
	}
	// four candidates tie at 100, the highest account drops out
	assert.Equal(t, []eden.Address{{1}, {2}, {3}}, want.Round.Validators)
}

func TestNominatorCap(t *testing.T) {
	src := newFakeSource()
	src.add(eden.Address{1}, 10, 5, 30, 30, 40)
	src.add(eden.Address{2}, 10)
	svc := newTestService(t, src, defaultParams())
	runRound(t, svc, 0)

	snap, err := svc.Snapshot(0, eden.Address{1})
	require.NoError(t, err)
	require.Len(t, snap.Nominators, 2)
	// 40 kept, then the tie at 30 goes to the lower account
	assert.Equal(t, eden.Address{0xf0, 1, 1}, snap.Nominators[0].Account)
	assert.Equal(t, eden.Address{0xf0, 1, 3}, snap.Nominators[1].Account)
	assert.Equal(t, uint256.NewInt(80), &snap.TotalExposure)
}

func TestResumableGathering(t *testing.T) {
	src := newFakeSource()
	for i := 1; i <= 5; i++ {
		src.add(eden.Address{byte(i)}, uint64(i*10))
	}
	params := defaultParams()
	params.Budget = 2
	svc := newTestService(t, src, params)

	require.NoError(t, svc.Begin(0))
	out, err := svc.Step()
	require.NoError(t, err)
	assert.Nil(t, out)

	job, err := svc.Job()
	require.NoError(t, err)
	assert.Equal(t, eden.Address{3}, job.Cursor)
	assert.Equal(t, uint64(2), job.Visited)

	// candidate under the cursor leaves between steps
	next := src.remove(eden.Address{3})
	require.NoError(t, svc.OnLeave(eden.Address{3}, next))

	out, err = svc.Step()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []eden.Address{{5}, {4}, {2}}, out.Round.Validators)

	job, err = svc.Job()
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestPendingRound(t *testing.T) {
	src := newFakeSource()
	for i := 1; i <= 4; i++ {
		src.add(eden.Address{byte(i)}, 10)
	}
	params := defaultParams()
	params.Budget = 1
	svc := newTestService(t, src, params)

	require.NoError(t, svc.Begin(0))
	_, err := svc.Step()
	require.NoError(t, err)
	// rounds 1 and 2 start while 0 is still gathering, 2 supersedes 1
	require.NoError(t, svc.Begin(1))
	require.NoError(t, svc.Begin(2))

	var finalized []uint32
	for range 20 {
		out, err := svc.Step()
		require.NoError(t, err)
		if out != nil {
			finalized = append(finalized, out.Round.Index)
		}
	}
	assert.Equal(t, []uint32{0, 2}, finalized)

	r1, err := svc.Round(1)
	require.NoError(t, err)
	require.NotNil(t, r1)
	assert.True(t, r1.IsCarried())
	assert.False(t, r1.Degraded)
	assert.Equal(t, uint32(0), r1.CarriedFrom)

	snap, err := svc.Snapshot(1, eden.Address{1})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), snap.Round)
}

func TestDegradedRounds(t *testing.T) {
	src := newFakeSource()
	src.add(eden.Address{1}, 10)
	src.add(eden.Address{2}, 20)
	svc := newTestService(t, src, defaultParams())

	out := runRound(t, svc, 0)
	require.False(t, out.Round.Degraded)

	src.remove(eden.Address{1})
	tests := []struct {
		round  uint32
		streak uint32
		alert  bool
	}{
		{1, 1, false},
		{2, 2, true},
		{3, 3, true},
	}
	for _, tt := range tests {
		out := runRound(t, svc, tt.round)
		assert.True(t, out.Round.Degraded)
		assert.Equal(t, uint32(0), out.Round.CarriedFrom)
		assert.Equal(t, []eden.Address{{2}, {1}}, out.Round.Validators)
		assert.Equal(t, tt.streak, out.Streak)
		assert.Equal(t, tt.alert, out.Alert)
	}

	src.add(eden.Address{3}, 5)
	out = runRound(t, svc, 4)
	assert.False(t, out.Round.Degraded)
	assert.Equal(t, uint32(0), out.Streak)
}

func TestDegradedWithoutHistory(t *testing.T) {
	svc := newTestService(t, newFakeSource(), defaultParams())
	out := runRound(t, svc, 0)
	assert.True(t, out.Round.Degraded)
	assert.Empty(t, out.Round.Validators)
}

func TestAbandon(t *testing.T) {
	src := newFakeSource()
	src.add(eden.Address{1}, 10)
	src.add(eden.Address{2}, 20)
	src.add(eden.Address{3}, 30)
	params := defaultParams()
	params.Budget = 1
	svc := newTestService(t, src, params)
	runRound(t, svc, 0)

	require.NoError(t, svc.Begin(1))
	_, err := svc.Step()
	require.NoError(t, err)
	out, err := svc.Abandon()
	require.NoError(t, err)
	assert.True(t, out.Round.Degraded)
	assert.Equal(t, uint32(0), out.Round.CarriedFrom)

	out, err = svc.Abandon()
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestPruning(t *testing.T) {
	src := newFakeSource()
	src.add(eden.Address{1}, 10)
	src.add(eden.Address{2}, 20)
	svc := newTestService(t, src, defaultParams())

	runRound(t, svc, 0)
	src.remove(eden.Address{1})
	// rounds 1..4 carry round 0's snapshots
	for r := uint32(1); r <= 4; r++ {
		runRound(t, svc, r)
	}
	hdr, err := svc.Round(0)
	require.NoError(t, err)
	assert.Nil(t, hdr)
	snap, err := svc.Snapshot(4, eden.Address{2})
	require.NoError(t, err)
	require.NotNil(t, snap, "carried snapshots outlive their round header")

	src.add(eden.Address{3}, 5)
	for r := uint32(5); r <= 9; r++ {
		runRound(t, svc, r)
	}
	for r := uint32(0); r <= 5; r++ {
		hdr, err := svc.Round(r)
		require.NoError(t, err)
		assert.Nil(t, hdr, "round %d", r)
	}
	raw, err := svc.snapshots.Get(snapshotKey{0, eden.Address{2}})
	require.NoError(t, err)
	assert.Nil(t, raw)

	latest, ok, err := svc.Latest()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(9), latest)
}
