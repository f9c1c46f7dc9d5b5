// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/eden"
)

// Mapping is a typed key/value table stored under a base slot. Values are rlp encoded.
// Absent keys read as the zero value of V, or a nil pointer when V is a pointer.
type Mapping[K Key, V any] struct {
	context *Context
	basePos eden.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos eden.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) eden.Bytes32 {
	return eden.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the value of key.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		if t := reflect.TypeOf(&value).Elem(); t.Kind() == reflect.Ptr {
			ptr := reflect.New(t.Elem())
			if err := rlp.DecodeBytes(raw, ptr.Interface()); err != nil {
				return err
			}
			value = ptr.Interface().(V)
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	if err != nil {
		return value, errors.Wrap(err, "decode storage")
	}
	return value, nil
}

// Exists returns whether a value is stored for key.
func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	raw, err := m.context.state.GetRawStorage(m.context.address, m.position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Set stores value for key. A nil pointer value removes the key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	rv := reflect.ValueOf(&value).Elem()
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		m.Delete(key)
		return nil
	}
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Delete removes key.
func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}
