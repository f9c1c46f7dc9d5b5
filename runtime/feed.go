// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "sync"

// feed is a rendezvous point for goroutines waiting for the next block.
// Each broadcast closes the current channel and arms a new one.
type feed struct {
	l  sync.Mutex
	ch chan struct{}
}

func (f *feed) init() {
	if f.ch == nil {
		f.ch = make(chan struct{})
	}
}

func (f *feed) broadcast() {
	f.l.Lock()
	defer f.l.Unlock()

	f.init()
	close(f.ch)
	f.ch = make(chan struct{})
}

func (f *feed) wait() <-chan struct{} {
	f.l.Lock()
	defer f.l.Unlock()

	f.init()
	return f.ch
}
