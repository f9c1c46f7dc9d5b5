// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/eden-network/eden/eden"
)

func RandomHash() (b eden.Bytes32) {
	rand.Read(b[:])
	return
}

func RandAddress() (addr eden.Address) {
	rand.Read(addr[:])
	return
}

// RandAddresses returns n distinct random addresses.
func RandAddresses(n int) []eden.Address {
	seen := make(map[eden.Address]struct{}, n)
	addrs := make([]eden.Address, 0, n)
	for len(addrs) < n {
		a := RandAddress()
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		addrs = append(addrs, a)
	}
	return addrs
}
