// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eden-network/eden/builtin/staker"
	"github.com/eden-network/eden/eventdb"
	"github.com/eden-network/eden/genesis"
	"github.com/eden-network/eden/lvldb"
	"github.com/eden-network/eden/runtime"
)

func newTestRuntime(t *testing.T, gene *genesis.Genesis) *runtime.Runtime {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	events, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { events.Close() })

	cfg := staker.DefaultConfig()
	cfg.RoundLength = 5
	cfg.EraLength = 2
	cfg.UnbondingDelay = 7
	cfg.MinValidators = 1
	cfg.MaxValidators = 3
	cfg.SnapshotRetention = 4

	rt, err := runtime.New(db, cfg, events, governance{})
	require.NoError(t, err)
	require.NoError(t, rt.Init(gene))
	return rt
}

func TestSimulate(t *testing.T) {
	gene := genesis.NewDevnet(2, 4)
	rt := newTestRuntime(t, gene)

	sum, err := simulate(context.Background(), rt, newWorkload(gene, 7, 1), 40, false)
	require.NoError(t, err)

	assert.Equal(t, uint64(40), sum.Blocks)
	assert.Equal(t, uint32(40), sum.Head)
	assert.Positive(t, sum.Txs)
	assert.LessOrEqual(t, sum.Txs, 40)
	assert.LessOrEqual(t, sum.Reverted, sum.Txs)
	assert.True(t, sum.HasRound)
	assert.Equal(t, uint32(7), sum.LatestRound)
	assert.True(t, sum.Totals.Active.Cmp(sum.Totals.Bonded) <= 0)
	assert.Positive(t, sum.Events)

	var buf bytes.Buffer
	require.NoError(t, sum.print(&buf))
	assert.Contains(t, buf.String(), "Simulated 40 blocks")
	assert.Contains(t, buf.String(), "Latest round [ 7 ]")
}

func TestSimulateDeterministic(t *testing.T) {
	gene := genesis.NewDevnet(2, 4)

	run := func() *summary {
		sum, err := simulate(context.Background(), newTestRuntime(t, gene), newWorkload(gene, 42, 0.5), 30, false)
		require.NoError(t, err)
		return sum
	}
	a, b := run(), run()
	assert.Equal(t, a.Txs, b.Txs)
	assert.Equal(t, a.Reverted, b.Reverted)
	assert.Equal(t, a.Events, b.Events)
	assert.Equal(t, a.Totals, b.Totals)
	assert.Equal(t, a.Issuance, b.Issuance)
}

func TestSimulateIdle(t *testing.T) {
	gene := genesis.NewDevnet(2, 2)
	rt := newTestRuntime(t, gene)

	sum, err := simulate(context.Background(), rt, newWorkload(gene, 1, 0), 12, false)
	require.NoError(t, err)
	assert.Zero(t, sum.Txs)
	assert.Equal(t, uint32(12), sum.Head)
}

func TestSimulateCancelled(t *testing.T) {
	gene := genesis.NewDevnet(2, 2)
	rt := newTestRuntime(t, gene)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := simulate(ctx, rt, newWorkload(gene, 1, 1), 100, false)
	require.NoError(t, err)
	assert.Zero(t, sum.Blocks)
	assert.Zero(t, sum.Head)
}
