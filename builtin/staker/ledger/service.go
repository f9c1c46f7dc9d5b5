// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"sort"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/globalstats"
	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/log"
)

var (
	logger = log.WithContext("pkg", "ledger")

	slotLedgers = storage.Slot("ledgers")
)

// Balances is the part of the balance collaborator the ledger needs.
// Bonded funds are held as reserved balance.
type Balances interface {
	Reserve(account eden.Address, amount *uint256.Int) error
	Unreserve(account eden.Address, amount *uint256.Int) error
	BurnFrom(account eden.Address, amount *uint256.Int) error
}

// Freezer reports whether withdrawals of an account are suspended.
type Freezer interface {
	IsFrozen(account eden.Address) (bool, error)
}

// Params are the ledger tunables.
type Params struct {
	UnbondingDelay  uint32
	MaxUnlockChunks int
}

// SlashResult splits a penalty by origin.
type SlashResult struct {
	FromActive    *uint256.Int
	FromUnlocking *uint256.Int
	Total         *uint256.Int
}

// Service owns the bonded balances of every account.
type Service struct {
	ledgers  *storage.Mapping[eden.Address, *Ledger]
	stats    *globalstats.Service
	balances Balances
	freezer  Freezer
	params   Params
}

func New(sctx *storage.Context, stats *globalstats.Service, balances Balances, freezer Freezer, params Params) *Service {
	return &Service{
		ledgers:  storage.NewMapping[eden.Address, *Ledger](sctx, slotLedgers),
		stats:    stats,
		balances: balances,
		freezer:  freezer,
		params:   params,
	}
}

// Get returns the ledger of account, nil when not bonded.
func (s *Service) Get(account eden.Address) (*Ledger, error) {
	l, err := s.ledgers.Get(account)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get ledger %s", account)
	}
	return l, nil
}

// Active returns the active stake of account, zero when not bonded.
func (s *Service) Active(account eden.Address) (*uint256.Int, error) {
	l, err := s.Get(account)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(&l.Active), nil
}

func (s *Service) save(account eden.Address, l *Ledger) error {
	if l.IsEmpty() {
		s.ledgers.Delete(account)
		return nil
	}
	if err := s.ledgers.Set(account, l); err != nil {
		return errors.Wrapf(err, "failed to set ledger %s", account)
	}
	return nil
}

// Bond reserves amount from the free balance of account and adds it to the active stake.
func (s *Service) Bond(account eden.Address, amount *uint256.Int) error {
	logger.Debug("bonding", "account", account, "amount", amount)
	if amount.IsZero() {
		return reverts.ErrZeroAmount
	}
	if err := s.balances.Reserve(account, amount); err != nil {
		return err
	}
	return s.credit(account, amount)
}

// Credit adds funds already minted to account's free balance to its active stake.
// Used to compound rewards. A zero amount is a no-op.
func (s *Service) Credit(account eden.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := s.balances.Reserve(account, amount); err != nil {
		return err
	}
	return s.credit(account, amount)
}

func (s *Service) credit(account eden.Address, amount *uint256.Int) error {
	l, err := s.Get(account)
	if err != nil {
		return err
	}
	if l == nil {
		l = &Ledger{}
	}
	if _, overflow := l.Total.AddOverflow(&l.Total, amount); overflow {
		return errors.New("bonded total overflow")
	}
	l.Active.Add(&l.Active, amount)
	if err := s.stats.Bond(amount); err != nil {
		return err
	}
	return s.save(account, l)
}

// Unbond moves amount from active stake into an unlocking chunk maturing at
// now + UnbondingDelay. A chunk maturing at the same block absorbs the amount.
func (s *Service) Unbond(account eden.Address, amount *uint256.Int, now uint32) (uint32, error) {
	logger.Debug("unbonding", "account", account, "amount", amount, "block", now)
	if amount.IsZero() {
		return 0, reverts.ErrZeroAmount
	}
	l, err := s.Get(account)
	if err != nil {
		return 0, err
	}
	if l == nil {
		return 0, reverts.ErrNotBonded
	}
	if amount.Cmp(&l.Active) > 0 {
		return 0, reverts.ErrInsufficientActiveStake
	}
	unlockAt := now + s.params.UnbondingDelay
	if err := s.addChunk(l, amount, unlockAt, false); err != nil {
		return 0, err
	}
	l.Active.Sub(&l.Active, amount)
	if err := s.stats.Unbond(amount); err != nil {
		return 0, err
	}
	return unlockAt, s.save(account, l)
}

// addChunk inserts (amount, unlockAt) keeping chunks sorted. When force is set
// and the queue is full, the amount joins the newest chunk which then unlocks
// at the later of both blocks.
func (s *Service) addChunk(l *Ledger, amount *uint256.Int, unlockAt uint32, force bool) error {
	i := sort.Search(len(l.Unlocking), func(i int) bool { return l.Unlocking[i].UnlockAt >= unlockAt })
	if i < len(l.Unlocking) && l.Unlocking[i].UnlockAt == unlockAt {
		l.Unlocking[i].Amount.Add(&l.Unlocking[i].Amount, amount)
		return nil
	}
	if len(l.Unlocking) >= s.params.MaxUnlockChunks {
		if !force || len(l.Unlocking) == 0 {
			return reverts.ErrTooManyUnlockChunks
		}
		last := &l.Unlocking[len(l.Unlocking)-1]
		last.Amount.Add(&last.Amount, amount)
		last.UnlockAt = max(last.UnlockAt, unlockAt)
		return nil
	}
	var c Chunk
	c.Amount.Set(amount)
	c.UnlockAt = unlockAt
	l.Unlocking = append(l.Unlocking, Chunk{})
	copy(l.Unlocking[i+1:], l.Unlocking[i:])
	l.Unlocking[i] = c
	return nil
}

// Rebond moves up to amount of unlocking stake back to active, newest chunks first.
func (s *Service) Rebond(account eden.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return reverts.ErrZeroAmount
	}
	l, err := s.Get(account)
	if err != nil {
		return err
	}
	if l == nil {
		return reverts.ErrNotBonded
	}
	if amount.Cmp(l.Unlocked()) > 0 {
		return reverts.ErrInsufficientUnlocking
	}
	left := new(uint256.Int).Set(amount)
	for i := len(l.Unlocking) - 1; i >= 0 && !left.IsZero(); i-- {
		c := &l.Unlocking[i]
		take := left
		if c.Amount.Lt(left) {
			take = new(uint256.Int).Set(&c.Amount)
		}
		c.Amount.Sub(&c.Amount, take)
		left = new(uint256.Int).Sub(left, take)
	}
	l.Unlocking = compact(l.Unlocking)
	l.Active.Add(&l.Active, amount)
	if err := s.stats.Rebond(amount); err != nil {
		return err
	}
	return s.save(account, l)
}

// WithdrawUnbonded releases every chunk matured at now and returns the total.
// Nothing due, a frozen account or an account without ledger yields zero.
func (s *Service) WithdrawUnbonded(account eden.Address, now uint32) (*uint256.Int, error) {
	l, err := s.Get(account)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return new(uint256.Int), nil
	}
	if s.freezer != nil {
		frozen, err := s.freezer.IsFrozen(account)
		if err != nil {
			return nil, err
		}
		if frozen {
			logger.Debug("withdrawal frozen by pending slash", "account", account)
			return new(uint256.Int), nil
		}
	}

	due := l.Due(now)
	if due.IsZero() {
		return due, nil
	}
	n := sort.Search(len(l.Unlocking), func(i int) bool { return l.Unlocking[i].UnlockAt > now })
	l.Unlocking = append([]Chunk(nil), l.Unlocking[n:]...)
	l.Total.Sub(&l.Total, due)

	if err := s.balances.Unreserve(account, due); err != nil {
		return nil, err
	}
	if err := s.stats.Withdraw(due); err != nil {
		return nil, err
	}
	logger.Debug("withdrawn", "account", account, "amount", due, "block", now)
	return due, s.save(account, l)
}

// Slash takes fraction of the active stake and then of each unlocking chunk,
// oldest first, each rounded down. Emptied chunks are dropped and the slashed
// amount is burnt.
func (s *Service) Slash(account eden.Address, fraction ratio.Ratio) (*SlashResult, error) {
	res := &SlashResult{
		FromActive:    new(uint256.Int),
		FromUnlocking: new(uint256.Int),
		Total:         new(uint256.Int),
	}
	l, err := s.Get(account)
	if err != nil {
		return nil, err
	}
	if l.IsEmpty() || fraction.IsZero() {
		return res, nil
	}

	res.FromActive = fraction.MulBalance(&l.Active)
	l.Active.Sub(&l.Active, res.FromActive)
	for i := range l.Unlocking {
		c := &l.Unlocking[i]
		cut := fraction.MulBalance(&c.Amount)
		c.Amount.Sub(&c.Amount, cut)
		res.FromUnlocking.Add(res.FromUnlocking, cut)
	}
	l.Unlocking = compact(l.Unlocking)
	res.Total.Add(res.FromActive, res.FromUnlocking)
	l.Total.Sub(&l.Total, res.Total)

	if res.Total.IsZero() {
		return res, nil
	}
	if err := s.balances.BurnFrom(account, res.Total); err != nil {
		return nil, err
	}
	if err := s.stats.Slash(res.FromActive, res.Total); err != nil {
		return nil, err
	}
	logger.Info("ledger slashed", "account", account, "fraction", fraction, "amount", res.Total)
	return res, s.save(account, l)
}

// ForceUnbond moves the whole active stake into the unlocking queue, ignoring the chunk limit.
func (s *Service) ForceUnbond(account eden.Address, now uint32) (*uint256.Int, error) {
	l, err := s.Get(account)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, reverts.ErrNotBonded
	}
	amount := new(uint256.Int).Set(&l.Active)
	if amount.IsZero() {
		return amount, nil
	}
	if err := s.addChunk(l, amount, now+s.params.UnbondingDelay, true); err != nil {
		return nil, err
	}
	l.Active.Clear()
	if err := s.stats.Unbond(amount); err != nil {
		return nil, err
	}
	return amount, s.save(account, l)
}

func compact(chunks []Chunk) []Chunk {
	out := chunks[:0]
	for _, c := range chunks {
		if !c.Amount.IsZero() {
			out = append(out, c)
		}
	}
	return out
}
