// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

import (
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
)

type meta struct {
	Head  eden.Address
	Tail  eden.Address
	Count uint64
}

// LinkedList is a persistent doubly linked list of addresses in insertion order.
// The zero address terminates the list and cannot be stored.
type LinkedList struct {
	meta *storage.Value[meta]
	next *storage.Mapping[eden.Address, eden.Address]
	prev *storage.Mapping[eden.Address, eden.Address]
}

// NewLinkedList creates a list rooted at pos.
func NewLinkedList(sctx *storage.Context, pos eden.Bytes32) *LinkedList {
	return &LinkedList{
		meta: storage.NewValue[meta](sctx, pos),
		next: storage.NewMapping[eden.Address, eden.Address](sctx, eden.Blake2b(pos.Bytes(), []byte("next"))),
		prev: storage.NewMapping[eden.Address, eden.Address](sctx, eden.Blake2b(pos.Bytes(), []byte("prev"))),
	}
}

// Add appends an address to the end of the list.
func (l *LinkedList) Add(address eden.Address) error {
	if address.IsZero() {
		return errors.New("zero address")
	}
	m, err := l.meta.Get()
	if err != nil {
		return err
	}
	if m.Tail.IsZero() {
		m.Head = address
	} else {
		if err := l.next.Set(m.Tail, address); err != nil {
			return err
		}
		if err := l.prev.Set(address, m.Tail); err != nil {
			return err
		}
	}
	m.Tail = address
	m.Count++
	return l.meta.Set(m)
}

// Contains reports whether address is in the list.
func (l *LinkedList) Contains(address eden.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	m, err := l.meta.Get()
	if err != nil {
		return false, err
	}
	if m.Head == address {
		return true, nil
	}
	prev, err := l.prev.Get(address)
	if err != nil {
		return false, err
	}
	return !prev.IsZero(), nil
}

// Remove unlinks address, returning its successor. Removing an absent address is a no-op.
func (l *LinkedList) Remove(address eden.Address) (eden.Address, error) {
	in, err := l.Contains(address)
	if err != nil || !in {
		return eden.Address{}, err
	}
	m, err := l.meta.Get()
	if err != nil {
		return eden.Address{}, err
	}
	prev, err := l.prev.Get(address)
	if err != nil {
		return eden.Address{}, err
	}
	next, err := l.next.Get(address)
	if err != nil {
		return eden.Address{}, err
	}

	switch {
	case prev.IsZero():
		m.Head = next
	case next.IsZero():
		l.next.Delete(prev)
	default:
		if err := l.next.Set(prev, next); err != nil {
			return eden.Address{}, err
		}
	}
	switch {
	case next.IsZero():
		m.Tail = prev
	case prev.IsZero():
		l.prev.Delete(next)
	default:
		if err := l.prev.Set(next, prev); err != nil {
			return eden.Address{}, err
		}
	}

	l.next.Delete(address)
	l.prev.Delete(address)
	m.Count--
	return next, l.meta.Set(m)
}

// Head returns the first address, zero when empty.
func (l *LinkedList) Head() (eden.Address, error) {
	m, err := l.meta.Get()
	return m.Head, err
}

// Next returns the successor of address, zero at the end.
func (l *LinkedList) Next(address eden.Address) (eden.Address, error) {
	return l.next.Get(address)
}

// Len returns the number of addresses.
func (l *LinkedList) Len() (uint64, error) {
	m, err := l.meta.Get()
	return m.Count, err
}

// Iter calls callback for each address in order until it returns an error.
func (l *LinkedList) Iter(callback func(eden.Address) error) error {
	ptr, err := l.Head()
	if err != nil {
		return err
	}
	for !ptr.IsZero() {
		// read next first so callback may remove ptr
		next, err := l.next.Get(ptr)
		if err != nil {
			return err
		}
		if err := callback(ptr); err != nil {
			return err
		}
		ptr = next
	}
	return nil
}

// Clear removes every address.
func (l *LinkedList) Clear() error {
	if err := l.Iter(func(a eden.Address) error {
		l.next.Delete(a)
		l.prev.Delete(a)
		return nil
	}); err != nil {
		return err
	}
	l.meta.Clear()
	return nil
}
