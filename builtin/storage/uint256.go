// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/eden"
)

// Uint256 is a single 256 bit counter stored at a slot.
type Uint256 struct {
	context *Context
	pos     eden.Bytes32
}

func NewUint256(context *Context, slot eden.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

func (u *Uint256) Get() (*uint256.Int, error) {
	raw, err := u.context.state.GetRawStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func (u *Uint256) Set(value *uint256.Int) {
	var raw []byte
	if !value.IsZero() {
		raw = value.Bytes()
	}
	u.context.state.SetRawStorage(u.context.address, u.pos, raw)
}

// Add increases the counter, failing on overflow.
func (u *Uint256) Add(value *uint256.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	if _, overflow := current.AddOverflow(current, value); overflow {
		return errors.New("uint256 counter overflow")
	}
	u.Set(current)
	return nil
}

// Sub decreases the counter, failing on underflow.
func (u *Uint256) Sub(value *uint256.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	if _, underflow := current.SubOverflow(current, value); underflow {
		return errors.New("uint256 counter underflow")
	}
	u.Set(current)
	return nil
}

// Uint64 is a single 64 bit value stored at a slot, used for indexes and cursors.
type Uint64 struct {
	u *Uint256
}

func NewUint64(context *Context, slot eden.Bytes32) *Uint64 {
	return &Uint64{NewUint256(context, slot)}
}

func (u *Uint64) Get() (uint64, error) {
	v, err := u.u.Get()
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (u *Uint64) Set(value uint64) {
	u.u.Set(uint256.NewInt(value))
}
