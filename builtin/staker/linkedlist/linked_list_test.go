// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/lvldb"
	"github.com/eden-network/eden/state"
	"github.com/eden-network/eden/test/datagen"
)

func newList(t *testing.T) *LinkedList {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLinkedList(storage.NewContext(eden.Address{7}, state.New(db)), storage.Slot("list"))
}

func collect(t *testing.T, l *LinkedList) []eden.Address {
	var out []eden.Address
	require.NoError(t, l.Iter(func(a eden.Address) error {
		out = append(out, a)
		return nil
	}))
	return out
}

func TestLinkedList_AddRemove(t *testing.T) {
	l := newList(t)
	addrs := datagen.RandAddresses(4)
	for _, a := range addrs {
		require.NoError(t, l.Add(a))
	}
	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
	assert.Equal(t, addrs, collect(t, l))

	tests := []struct {
		name     string
		remove   eden.Address
		wantNext eden.Address
		want     []eden.Address
	}{
		{"middle", addrs[1], addrs[2], []eden.Address{addrs[0], addrs[2], addrs[3]}},
		{"head", addrs[0], addrs[2], []eden.Address{addrs[2], addrs[3]}},
		{"tail", addrs[3], eden.Address{}, []eden.Address{addrs[2]}},
		{"absent", addrs[1], eden.Address{}, []eden.Address{addrs[2]}},
		{"last", addrs[2], eden.Address{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := l.Remove(tt.remove)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNext, next)
			assert.Equal(t, tt.want, collect(t, l))
			n, err := l.Len()
			require.NoError(t, err)
			assert.Equal(t, uint64(len(tt.want)), n)
		})
	}

	head, err := l.Head()
	require.NoError(t, err)
	assert.True(t, head.IsZero())

	require.NoError(t, l.Add(addrs[3]))
	assert.Equal(t, []eden.Address{addrs[3]}, collect(t, l))
}

func TestLinkedList_Contains(t *testing.T) {
	l := newList(t)
	addrs := datagen.RandAddresses(3)
	for _, a := range addrs[:2] {
		require.NoError(t, l.Add(a))
	}

	for i, want := range []bool{true, true, false} {
		in, err := l.Contains(addrs[i])
		require.NoError(t, err)
		assert.Equal(t, want, in)
	}
	assert.Error(t, l.Add(eden.Address{}))
}

func TestLinkedList_IterRemoveAndClear(t *testing.T) {
	l := newList(t)
	addrs := datagen.RandAddresses(5)
	for _, a := range addrs {
		require.NoError(t, l.Add(a))
	}

	require.NoError(t, l.Iter(func(a eden.Address) error {
		if a == addrs[2] {
			_, err := l.Remove(a)
			return err
		}
		return nil
	}))
	assert.Equal(t, []eden.Address{addrs[0], addrs[1], addrs[3], addrs[4]}, collect(t, l))

	next, err := l.Next(addrs[1])
	require.NoError(t, err)
	assert.Equal(t, addrs[3], next)

	require.NoError(t, l.Clear())
	assert.Empty(t, collect(t, l))
	in, err := l.Contains(addrs[4])
	require.NoError(t, err)
	assert.False(t, in)
}
