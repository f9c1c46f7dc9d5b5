// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
)

var slotPending = storage.Slot("slash-pending")

// PendingIndex counts the pending records affecting each account.
type PendingIndex struct {
	counts *storage.Mapping[eden.Address, uint32]
}

func NewPendingIndex(sctx *storage.Context) *PendingIndex {
	return &PendingIndex{counts: storage.NewMapping[eden.Address, uint32](sctx, slotPending)}
}

// IsFrozen reports whether account is affected by a pending record.
func (p *PendingIndex) IsFrozen(account eden.Address) (bool, error) {
	n, err := p.counts.Get(account)
	return n > 0, err
}

func (p *PendingIndex) inc(account eden.Address) error {
	n, err := p.counts.Get(account)
	if err != nil {
		return err
	}
	return p.counts.Set(account, n+1)
}

func (p *PendingIndex) dec(account eden.Address) error {
	n, err := p.counts.Get(account)
	if err != nil {
		return err
	}
	if n <= 1 {
		p.counts.Delete(account)
		return nil
	}
	return p.counts.Set(account, n-1)
}
