// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed storage primitives for built-in modules.
// Every module owns an address; its values live in the state under that address.
package storage

import (
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/state"
)

// Context binds a module address to the state it reads and writes.
type Context struct {
	address eden.Address
	state   *state.State
}

func NewContext(address eden.Address, state *state.State) *Context {
	return &Context{address: address, state: state}
}

func (c *Context) Address() eden.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Key is anything that can be turned into a storage key.
type Key interface {
	Bytes() []byte
}

// Slot derives a storage slot from a name.
func Slot(name string) eden.Bytes32 {
	return eden.BytesToBytes32([]byte(name))
}
