// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/eden-network/eden/eden"
)

type unit struct{}

func (unit) Bytes() []byte { return nil }

// Value is a single rlp encoded value stored at a slot.
type Value[V any] struct {
	m *Mapping[unit, V]
}

func NewValue[V any](context *Context, slot eden.Bytes32) *Value[V] {
	return &Value[V]{m: NewMapping[unit, V](context, slot)}
}

func (v *Value[V]) Get() (V, error) {
	return v.m.Get(unit{})
}

func (v *Value[V]) Set(value V) error {
	return v.m.Set(unit{}, value)
}

func (v *Value[V]) Clear() {
	v.m.Delete(unit{})
}
