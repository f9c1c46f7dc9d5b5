// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/eden-network/eden/eden"
)

// DevAccount derives the i-th development account.
func DevAccount(i int) eden.Address {
	h := eden.Blake2b([]byte(fmt.Sprintf("eden-dev-%d", i)))
	return eden.BytesToAddress(h[:eden.AddressLength])
}

// NewDevnet creates a genesis with validators candidates each bonding
// 1,000,000 and nominators nominators spreading 500,000 over all of them.
func NewDevnet(validators, nominators int) *Genesis {
	doc := &Document{Name: "devnet"}
	var share uint64
	if validators > 0 {
		share = 500_000 / uint64(validators)
	}
	for i := range validators {
		acc := Account{Address: DevAccount(i), Candidate: true}
		acc.Balance.SetUint64(10_000_000)
		acc.Bond.SetUint64(1_000_000)
		doc.Accounts = append(doc.Accounts, acc)
	}
	for i := range nominators {
		acc := Account{Address: DevAccount(validators + i)}
		acc.Balance.SetUint64(1_000_000)
		acc.Bond.SetUint64(500_000)
		if i%2 == 1 {
			acc.Payee = "free"
		}
		for v := range validators {
			acc.Nominations = append(acc.Nominations, Nomination{
				Validator: DevAccount(v),
				Amount:    *uint256.NewInt(share),
			})
		}
		doc.Accounts = append(doc.Accounts, acc)
	}
	g, err := New(doc)
	if err != nil {
		panic(err)
	}
	return g
}
