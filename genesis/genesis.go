// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"os"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/eden-network/eden/builtin/balances"
	"github.com/eden-network/eden/builtin/staker"
	"github.com/eden-network/eden/builtin/staker/rewards"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/log"
)

var logger = log.WithContext("pkg", "genesis")

// Nomination backs a candidate at genesis.
type Nomination struct {
	Validator eden.Address `yaml:"validator"`
	Amount    uint256.Int  `yaml:"amount"`
}

// Account is the genesis allocation of one account.
type Account struct {
	Address     eden.Address `yaml:"address"`
	Balance     uint256.Int  `yaml:"balance"`
	Bond        uint256.Int  `yaml:"bond"`
	Candidate   bool         `yaml:"candidate"`
	Payee       string       `yaml:"payee"`
	Nominations []Nomination `yaml:"nominations"`
}

// Document is the YAML form of a genesis.
type Document struct {
	Name     string    `yaml:"name"`
	Accounts []Account `yaml:"accounts"`
}

// Genesis is the initial staking state, applied before block 0.
type Genesis struct {
	doc *Document
	id  eden.Bytes32
}

// New builds a genesis from a document.
func New(doc *Document) (*Genesis, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "encode genesis")
	}
	_ = enc.Close()
	return &Genesis{doc: doc, id: eden.Blake2b(buf.Bytes())}, nil
}

// Parse decodes a YAML genesis document.
func Parse(data []byte) (*Genesis, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return New(&doc)
}

// Load reads a YAML genesis file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ID returns the digest of the canonical document.
func (g *Genesis) ID() eden.Bytes32 { return g.id }

// Name returns the network name.
func (g *Genesis) Name() string { return g.doc.Name }

// Accounts returns the allocations.
func (g *Genesis) Accounts() []Account { return g.doc.Accounts }

func (doc *Document) validate() error {
	seen := make(map[eden.Address]bool, len(doc.Accounts))
	for _, a := range doc.Accounts {
		if a.Address.IsZero() {
			return errors.New("genesis account without address")
		}
		if seen[a.Address] {
			return errors.Errorf("duplicate genesis account %v", a.Address)
		}
		seen[a.Address] = true
		if a.Bond.Gt(&a.Balance) {
			return errors.Errorf("account %v bonds more than its balance", a.Address)
		}
		if a.Candidate && a.Bond.IsZero() {
			return errors.Errorf("candidate %v without bond", a.Address)
		}
		if a.Payee != "" {
			if _, ok := rewards.ParsePayee(a.Payee); !ok {
				return errors.Errorf("account %v has unknown payee %q", a.Address, a.Payee)
			}
		}
	}
	return nil
}

// Apply endows balances and dispatches the initial bonds, candidacies,
// nominations and payee preferences, in that order.
func (g *Genesis) Apply(s *staker.Staker, b *balances.Balances) error {
	for _, a := range g.doc.Accounts {
		if err := b.MintInto(a.Address, &a.Balance); err != nil {
			return errors.Wrapf(err, "endow %v", a.Address)
		}
	}

	steps := []struct {
		name  string
		calls func(a *Account) []staker.Call
	}{
		{"bond", func(a *Account) []staker.Call {
			if a.Bond.IsZero() {
				return nil
			}
			return []staker.Call{&staker.Bond{Amount: &a.Bond}}
		}},
		{"register", func(a *Account) []staker.Call {
			if !a.Candidate {
				return nil
			}
			return []staker.Call{&staker.RegisterCandidate{}}
		}},
		{"nominate", func(a *Account) []staker.Call {
			calls := make([]staker.Call, 0, len(a.Nominations))
			for i := range a.Nominations {
				n := &a.Nominations[i]
				calls = append(calls, &staker.Nominate{Validator: n.Validator, Amount: &n.Amount})
			}
			return calls
		}},
		{"payee", func(a *Account) []staker.Call {
			if a.Payee == "" {
				return nil
			}
			p, _ := rewards.ParsePayee(a.Payee)
			return []staker.Call{&staker.SetPayee{Payee: p}}
		}},
	}
	for _, step := range steps {
		for i := range g.doc.Accounts {
			a := &g.doc.Accounts[i]
			for _, call := range step.calls(a) {
				if err := s.Dispatch(staker.Signed(a.Address), call); err != nil {
					return errors.Wrapf(err, "genesis %s of %v", step.name, a.Address)
				}
			}
		}
	}
	logger.Info("genesis applied", "name", g.doc.Name, "id", g.id, "accounts", len(g.doc.Accounts))
	return nil
}
