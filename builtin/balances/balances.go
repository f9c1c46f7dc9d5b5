// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package balances keeps the free and reserved balance of every account.
package balances

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/state"
)

var (
	logger = log.WithContext("pkg", "balances")

	slotFree     = storage.Slot("free")
	slotReserved = storage.Slot("reserved")
	slotIssuance = storage.Slot("issuance")
)

// Address is the account owning the balance state.
var Address = eden.BytesToAddress([]byte("balances"))

// Balances is the account balance module.
type Balances struct {
	free     *storage.Mapping[eden.Address, uint256.Int]
	reserved *storage.Mapping[eden.Address, uint256.Int]
	issuance *storage.Uint256
}

func New(st *state.State) *Balances {
	sctx := storage.NewContext(Address, st)
	return &Balances{
		free:     storage.NewMapping[eden.Address, uint256.Int](sctx, slotFree),
		reserved: storage.NewMapping[eden.Address, uint256.Int](sctx, slotReserved),
		issuance: storage.NewUint256(sctx, slotIssuance),
	}
}

func get(m *storage.Mapping[eden.Address, uint256.Int], account eden.Address) (*uint256.Int, error) {
	v, err := m.Get(account)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get balance %s", account)
	}
	return &v, nil
}

func set(m *storage.Mapping[eden.Address, uint256.Int], account eden.Address, v *uint256.Int) error {
	if v.IsZero() {
		m.Delete(account)
		return nil
	}
	return m.Set(account, *v)
}

// Free returns the spendable balance of account.
func (b *Balances) Free(account eden.Address) (*uint256.Int, error) {
	return get(b.free, account)
}

// Reserved returns the locked balance of account.
func (b *Balances) Reserved(account eden.Address) (*uint256.Int, error) {
	return get(b.reserved, account)
}

// Issuance returns the total of all balances.
func (b *Balances) Issuance() (*uint256.Int, error) {
	return b.issuance.Get()
}

// Reserve moves amount from the free to the reserved balance.
func (b *Balances) Reserve(account eden.Address, amount *uint256.Int) error {
	free, err := b.Free(account)
	if err != nil {
		return err
	}
	if free.Lt(amount) {
		return reverts.ErrInsufficientFunds
	}
	reserved, err := b.Reserved(account)
	if err != nil {
		return err
	}
	if err := set(b.free, account, free.Sub(free, amount)); err != nil {
		return err
	}
	return set(b.reserved, account, reserved.Add(reserved, amount))
}

// Unreserve moves amount from the reserved back to the free balance.
func (b *Balances) Unreserve(account eden.Address, amount *uint256.Int) error {
	reserved, err := b.Reserved(account)
	if err != nil {
		return err
	}
	if reserved.Lt(amount) {
		return errors.Errorf("unreserve %s exceeds reserved %s of %s", amount.Dec(), reserved.Dec(), account)
	}
	free, err := b.Free(account)
	if err != nil {
		return err
	}
	if err := set(b.reserved, account, reserved.Sub(reserved, amount)); err != nil {
		return err
	}
	return set(b.free, account, free.Add(free, amount))
}

// Transfer moves amount of free balance between accounts.
func (b *Balances) Transfer(from, to eden.Address, amount *uint256.Int) error {
	if from == to {
		return nil
	}
	src, err := b.Free(from)
	if err != nil {
		return err
	}
	if src.Lt(amount) {
		return reverts.ErrInsufficientFunds
	}
	dst, err := b.Free(to)
	if err != nil {
		return err
	}
	if err := set(b.free, from, src.Sub(src, amount)); err != nil {
		return err
	}
	return set(b.free, to, dst.Add(dst, amount))
}

// MintInto creates amount in the free balance of account.
func (b *Balances) MintInto(account eden.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := b.issuance.Add(amount); err != nil {
		return err
	}
	free, err := b.Free(account)
	if err != nil {
		return err
	}
	logger.Trace("minted", "account", account, "amount", amount)
	return set(b.free, account, free.Add(free, amount))
}

// BurnFrom destroys amount of the reserved balance of account.
func (b *Balances) BurnFrom(account eden.Address, amount *uint256.Int) error {
	reserved, err := b.Reserved(account)
	if err != nil {
		return err
	}
	if reserved.Lt(amount) {
		return errors.Errorf("burn %s exceeds reserved %s of %s", amount.Dec(), reserved.Dec(), account)
	}
	if err := b.issuance.Sub(amount); err != nil {
		return err
	}
	logger.Trace("burnt", "account", account, "amount", amount)
	return set(b.reserved, account, reserved.Sub(reserved, amount))
}

// Treasury credits undistributed rewards to a treasury account.
type Treasury struct {
	balances *Balances
	account  eden.Address
}

func NewTreasury(b *Balances, account eden.Address) *Treasury {
	return &Treasury{balances: b, account: account}
}

// Account returns the treasury account.
func (t *Treasury) Account() eden.Address {
	return t.account
}

// Deposit mints amount into the treasury account.
func (t *Treasury) Deposit(amount *uint256.Int) error {
	logger.Debug("treasury deposit", "amount", amount)
	return t.balances.MintInto(t.account, amount)
}
