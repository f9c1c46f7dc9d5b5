// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eden-network/eden/builtin/balances"
	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/builtin/staker/rewards"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/lvldb"
	"github.com/eden-network/eden/state"
)

type testClock struct{ block uint32 }

func (c *testClock) CurrentBlock() uint32 { return c.block }

type recorder struct {
	events []Event
	alerts []DegradedAlert
}

func (r *recorder) Emit(ev Event)                  { r.events = append(r.events, ev) }
func (r *recorder) OnDegraded(alert DegradedAlert) { r.alerts = append(r.alerts, alert) }

func (r *recorder) kinds() []string {
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Kind())
	}
	return out
}

func (r *recorder) reset() { r.events = nil }

type testEnv struct {
	staker   *Staker
	balances *balances.Balances
	clock    *testClock
	rec      *recorder
	next     uint32
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.UnbondingDelay = 15
	cfg.RoundLength = 10
	cfg.EraLength = 2
	cfg.MaxValidators = 2
	cfg.MinValidators = 1
	cfg.MaxNominatorsPerValidator = 4
	cfg.MaxUnlockChunks = 4
	cfg.DegradedThreshold = 1
	cfg.SnapshotRetention = 4
	cfg.SnapshotBudget = 8
	cfg.PayoutBudget = 8
	cfg.EraRewardPot.SetUint64(1000)
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	bal := balances.New(st)
	env := &testEnv{balances: bal, clock: &testClock{}, rec: &recorder{}}
	env.staker = New(st, cfg, Deps{
		Balances:   bal,
		Clock:      env.clock,
		Governance: env.rec,
		Treasury:   balances.NewTreasury(bal, cfg.TreasuryAccount),
		Sink:       env.rec,
	})
	return env
}

// advance runs housekeeping of every block up to and including to. Calls
// dispatched afterwards execute in block to.
func (e *testEnv) advance(t *testing.T, to uint32) {
	for ; e.next <= to; e.next++ {
		e.clock.block = e.next
		require.NoError(t, e.staker.Housekeep(e.next))
	}
}

func (e *testEnv) mint(t *testing.T, account eden.Address, amount uint64) {
	require.NoError(t, e.balances.MintInto(account, uint256.NewInt(amount)))
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

var (
	validator = eden.Address{0x01}
	nom1      = eden.Address{0x11}
	nom2      = eden.Address{0x12}
)

func TestEraLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t, validator, 100)
	env.mint(t, nom1, 300)
	env.mint(t, nom2, 600)

	env.advance(t, 0)
	require.Len(t, env.rec.alerts, 1, "round 0 has no candidates")
	assert.ErrorIs(t, env.rec.alerts[0].Err, reverts.ErrDegraded)

	env.advance(t, 1)
	s := env.staker
	require.NoError(t, s.Dispatch(Signed(validator), &Bond{Amount: u(100)}))
	require.NoError(t, s.Dispatch(Signed(validator), &RegisterCandidate{}))
	require.NoError(t, s.Dispatch(Signed(nom1), &Bond{Amount: u(300)}))
	require.NoError(t, s.Dispatch(Signed(nom1), &Nominate{Validator: validator, Amount: u(300)}))
	require.NoError(t, s.Dispatch(Signed(nom2), &Bond{Amount: u(600)}))
	require.NoError(t, s.Dispatch(Signed(nom2), &Nominate{Validator: validator, Amount: u(600)}))
	require.NoError(t, s.Dispatch(Signed(nom2), &SetPayee{Payee: rewards.PayeeFree}))

	env.rec.reset()
	env.advance(t, 10)
	assert.Equal(t, []string{"RoundSnapshotted"}, env.rec.kinds())
	snap, err := s.Snapshot(1, validator)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, u(1000), &snap.TotalExposure)

	env.rec.reset()
	env.advance(t, 20)
	assert.Equal(t, []string{"RoundSnapshotted", "Rewarded", "Rewarded", "Rewarded", "EraPaid"}, env.rec.kinds())

	era, err := s.Era(0)
	require.NoError(t, err)
	assert.Equal(t, rewards.StatusClosed, era.Status)
	assert.Equal(t, u(1000), &era.Paid)

	l, err := s.Ledger(validator)
	require.NoError(t, err)
	assert.Equal(t, u(290), &l.Active)
	l, err = s.Ledger(nom1)
	require.NoError(t, err)
	assert.Equal(t, u(570), &l.Active)
	free, err := env.balances.Free(nom2)
	require.NoError(t, err)
	assert.Equal(t, u(540), free)

	err = s.Dispatch(Signed(nom1), &PayoutStakers{Era: 0, Account: nom1})
	assert.ErrorIs(t, err, reverts.ErrAlreadyPaid)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, u(1460), totals.Active)
}

func TestDispatchRevertsOnlyFailingCall(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t, validator, 100)
	env.advance(t, 3)
	s := env.staker

	require.NoError(t, s.Dispatch(Signed(validator), &Bond{Amount: u(60)}))
	env.rec.reset()

	err := s.Dispatch(Signed(validator), &Unbond{Amount: u(61)})
	assert.ErrorIs(t, err, reverts.ErrInsufficientActiveStake)
	err = s.Dispatch(Signed(validator), &Bond{Amount: u(41)})
	assert.ErrorIs(t, err, reverts.ErrInsufficientFunds)
	assert.Empty(t, env.rec.events)

	require.NoError(t, s.Dispatch(Signed(validator), &Unbond{Amount: u(20)}))
	require.Len(t, env.rec.events, 1)
	unbonded := env.rec.events[0].(*Unbonded)
	assert.Equal(t, uint32(18), unbonded.UnlockAt)

	l, err := s.Ledger(validator)
	require.NoError(t, err)
	assert.Equal(t, u(60), &l.Total)
	assert.Equal(t, u(40), &l.Active)
	free, err := env.balances.Free(validator)
	require.NoError(t, err)
	assert.Equal(t, u(40), free)
}

func TestOrigins(t *testing.T) {
	env := newTestEnv(t)
	s := env.staker

	tests := []struct {
		name   string
		origin Origin
		call   Call
		err    error
	}{
		{"governance call signed", Signed(validator), &ForceUnbond{Account: validator}, reverts.ErrBadOrigin},
		{"report signed", Signed(nom2), &ReportOffence{Target: validator, Fraction: ratio.FromPercent(100)}, reverts.ErrBadOrigin},
		{"signed call from root", Root, &Bond{Amount: u(1)}, reverts.ErrBadOrigin},
		{"zero signer", Signed(eden.Address{}), &Bond{Amount: u(1)}, reverts.ErrBadOrigin},
		{"nil amount", Signed(validator), &Bond{}, reverts.ErrZeroAmount},
		{"governance ok", Root, &SetCommission{Commission: ratio.FromPercent(5)}, nil},
		{"unknown cursor", Root, &AbandonCursor{Cursor: 9}, reverts.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Dispatch(tt.origin, tt.call)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
	c, err := s.Commission()
	require.NoError(t, err)
	assert.Equal(t, ratio.FromPercent(5), c)
}

func TestSlashingFlow(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t, validator, 1000)
	env.mint(t, nom1, 500)
	env.advance(t, 1)
	s := env.staker

	require.NoError(t, s.Dispatch(Signed(validator), &Bond{Amount: u(1000)}))
	require.NoError(t, s.Dispatch(Signed(validator), &RegisterCandidate{}))
	require.NoError(t, s.Dispatch(Signed(nom1), &Bond{Amount: u(500)}))
	require.NoError(t, s.Dispatch(Signed(nom1), &Nominate{Validator: validator, Amount: u(500)}))
	env.advance(t, 12)

	require.NoError(t, s.Dispatch(Signed(validator), &Unbond{Amount: u(400)}))
	report := &ReportOffence{Reporter: nom2, Target: validator, Fraction: ratio.FromPercent(10), OffenceBlock: 11}
	err := s.Dispatch(Signed(nom2), report)
	assert.ErrorIs(t, err, reverts.ErrBadOrigin)
	frozen, err := s.IsFrozen(validator)
	require.NoError(t, err)
	assert.False(t, frozen)
	err = s.Dispatch(Root, &ReportOffence{Reporter: nom2, Target: nom1, Fraction: ratio.FromPercent(100), OffenceBlock: 11})
	assert.ErrorIs(t, err, reverts.ErrNotExposed)

	require.NoError(t, s.Dispatch(Root, report))
	frozen, err = s.IsFrozen(nom1)
	require.NoError(t, err)
	assert.True(t, frozen)

	env.rec.reset()
	err = s.Dispatch(Signed(nom2), &ApplySlash{ID: 0})
	assert.ErrorIs(t, err, reverts.ErrSlashNotVerified)
	require.NoError(t, s.Dispatch(Root, &VerifySlash{ID: 0}))
	require.NoError(t, s.Dispatch(Signed(nom2), &ApplySlash{ID: 0}))
	assert.Equal(t, []string{"SlashVerified", "Slashed", "Slashed"}, env.rec.kinds())
	assert.Equal(t, &Slashed{SlashID: 0, Account: validator, Fraction: ratio.FromPercent(10), Amount: u(100)}, env.rec.events[1])
	assert.Equal(t, &Slashed{SlashID: 0, Account: nom1, Fraction: ratio.FromPercent(10), Amount: u(50)}, env.rec.events[2])

	rec, err := s.Slash(0)
	require.NoError(t, err)
	assert.Equal(t, u(150), &rec.Slashed)
	assert.Equal(t, nom2, rec.Reporter)

	l, err := s.Ledger(validator)
	require.NoError(t, err)
	assert.Equal(t, u(540), &l.Active)
	assert.Equal(t, u(360), &l.Unlocking[0].Amount)

	env.advance(t, 27)
	require.NoError(t, s.Dispatch(Signed(validator), &WithdrawUnbonded{}))
	free, err := env.balances.Free(validator)
	require.NoError(t, err)
	assert.Equal(t, u(360), free)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, u(150), totals.Slashed)
}

func TestLeaveDuringGathering(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t, validator, 100)
	env.mint(t, nom1, 100)
	env.advance(t, 1)
	s := env.staker

	require.NoError(t, s.Dispatch(Signed(validator), &Bond{Amount: u(100)}))
	require.NoError(t, s.Dispatch(Signed(validator), &RegisterCandidate{}))
	require.NoError(t, s.Dispatch(Signed(nom1), &Bond{Amount: u(100)}))
	require.NoError(t, s.Dispatch(Signed(nom1), &RegisterCandidate{}))

	require.NoError(t, s.Dispatch(Signed(validator), &LeaveCandidates{}))
	cands, err := s.Candidates()
	require.NoError(t, err)
	assert.Equal(t, []eden.Address{nom1}, cands)

	env.advance(t, 10)
	r, err := s.Round(1)
	require.NoError(t, err)
	assert.Equal(t, []eden.Address{nom1}, r.Validators)
}

func TestForceUnbondAndAbandon(t *testing.T) {
	env := newTestEnv(t)
	env.mint(t, validator, 100)
	env.advance(t, 2)
	s := env.staker
	require.NoError(t, s.Dispatch(Signed(validator), &Bond{Amount: u(100)}))

	env.rec.reset()
	require.NoError(t, s.Dispatch(Root, &ForceUnbond{Account: validator}))
	require.Len(t, env.rec.events, 1)
	ev := env.rec.events[0].(*Unbonded)
	assert.True(t, ev.Forced)
	assert.Equal(t, u(100), ev.Amount)
	assert.Equal(t, uint32(17), ev.UnlockAt)

	require.NoError(t, s.Dispatch(Root, &AbandonCursor{Cursor: CursorSnapshot}))
	require.NoError(t, s.Dispatch(Root, &AbandonCursor{Cursor: CursorPayout}))

	require.NoError(t, s.Dispatch(Root, &SetEraRewardPot{Pot: u(5)}))
	pot, err := s.EraRewardPot()
	require.NoError(t, err)
	assert.Equal(t, u(5), pot)

	require.NoError(t, s.Dispatch(Root, &SetEraRewardPot{Pot: u(0)}))
	pot, err = s.EraRewardPot()
	require.NoError(t, err)
	assert.True(t, pot.IsZero())

	require.NoError(t, s.Dispatch(Root, &SetEraRewardPot{}))
	pot, err = s.EraRewardPot()
	require.NoError(t, err)
	cfg := s.Config()
	assert.Equal(t, &cfg.EraRewardPot, pot)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"zero round", func(c *Config) { c.RoundLength = 0 }, false},
		{"zero era", func(c *Config) { c.EraLength = 0 }, false},
		{"min above max", func(c *Config) { c.MinValidators = c.MaxValidators + 1 }, false},
		{"short retention", func(c *Config) { c.SnapshotRetention = c.EraLength }, false},
		{"no treasury", func(c *Config) { c.TreasuryAccount = eden.Address{} }, false},
		{"no chunks", func(c *Config) { c.MaxUnlockChunks = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
