// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap keeps maps in a stack. Each level inherits the keys of
// the levels below it, giving a map with save-restore semantics.
package stackedmap

// MapGetter reads a key from the underlying source.
type MapGetter[K comparable, V any] func(key K) (value V, exist bool, err error)

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []journalEntry[K, V]
}

type journalEntry[K comparable, V any] struct {
	key K
	val V
}

// StackedMap is a map with stacked revisions over a source getter.
type StackedMap[K comparable, V any] struct {
	src       MapGetter[K, V]
	levels    []*level[K, V]
	revisions map[K][]int // levels that hold a value for the key, ascending
}

// New create an instance of StackedMap with one level pushed.
func New[K comparable, V any](src MapGetter[K, V]) *StackedMap[K, V] {
	sm := &StackedMap[K, V]{
		src:       src,
		revisions: make(map[K][]int),
	}
	sm.Push()
	return sm
}

// Depth returns depth of stack.
func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.levels)
}

// Push pushes a new level and returns the depth before push.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, &level[K, V]{kvs: make(map[K]V)})
	return len(sm.levels) - 1
}

// Pop drops the top level, reverting every Put since the matching Push.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		revs := sm.revisions[key]
		revs = revs[:len(revs)-1]
		if len(revs) == 0 {
			delete(sm.revisions, key)
		} else {
			sm.revisions[key] = revs
		}
	}
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pops levels until the depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get returns the newest value of key, falling back to the source.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if revs, ok := sm.revisions[key]; ok {
		return sm.levels[revs[len(revs)-1]].kvs[key], true, nil
	}
	return sm.src(key)
}

// Put puts key value at the top level.
// It will panic if stack is empty.
func (sm *StackedMap[K, V]) Put(key K, val V) {
	rev := len(sm.levels) - 1
	top := sm.levels[rev]
	if _, ok := top.kvs[key]; !ok {
		sm.revisions[key] = append(sm.revisions[key], rev)
	}
	top.kvs[key] = val
	top.journal = append(top.journal, journalEntry[K, V]{key, val})
}

// Journal traverses every Put from the bottom level up, in order.
// Traversal stops when fn returns false.
func (sm *StackedMap[K, V]) Journal(fn func(key K, val V) bool) {
	for _, lvl := range sm.levels {
		for _, e := range lvl.journal {
			if !fn(e.key, e.val) {
				return
			}
		}
	}
}
