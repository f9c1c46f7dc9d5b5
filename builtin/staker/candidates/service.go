// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package candidates

import (
	"slices"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/linkedlist"
	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/log"
)

var (
	logger = log.WithContext("pkg", "candidates")

	slotCandidates  = storage.Slot("candidates")
	slotNominations = storage.Slot("nominations")
	slotBackers     = storage.Slot("backers")
)

// Stakes reads active stake.
type Stakes interface {
	Active(account eden.Address) (*uint256.Int, error)
}

// Service is the registry of validator candidates and their nominators.
type Service struct {
	sctx        *storage.Context
	list        *linkedlist.LinkedList
	nominations *storage.Mapping[eden.Address, *Nominations]
	stakes      Stakes
}

func New(sctx *storage.Context, stakes Stakes) *Service {
	return &Service{
		sctx:        sctx,
		list:        linkedlist.NewLinkedList(sctx, slotCandidates),
		nominations: storage.NewMapping[eden.Address, *Nominations](sctx, slotNominations),
		stakes:      stakes,
	}
}

func (s *Service) backers(validator eden.Address) *linkedlist.LinkedList {
	return linkedlist.NewLinkedList(s.sctx, eden.Blake2b(validator.Bytes(), slotBackers.Bytes()))
}

// IsCandidate reports whether account is registered.
func (s *Service) IsCandidate(account eden.Address) (bool, error) {
	return s.list.Contains(account)
}

// Head returns the first candidate, zero when there is none.
func (s *Service) Head() (eden.Address, error) {
	return s.list.Head()
}

// Next returns the candidate after account, zero at the end.
func (s *Service) Next(account eden.Address) (eden.Address, error) {
	return s.list.Next(account)
}

// Count returns the number of candidates.
func (s *Service) Count() (uint64, error) {
	return s.list.Len()
}

// Iter visits candidates in registration order.
func (s *Service) Iter(fn func(eden.Address) error) error {
	return s.list.Iter(fn)
}

// Nominations returns the targets of nominator, nil when it nominates nobody.
func (s *Service) Nominations(nominator eden.Address) (*Nominations, error) {
	n, err := s.nominations.Get(nominator)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get nominations %s", nominator)
	}
	return n, nil
}

// Register adds account to the candidates. It needs active stake and must not be nominating.
func (s *Service) Register(account eden.Address) error {
	logger.Debug("registering candidate", "account", account)
	active, err := s.stakes.Active(account)
	if err != nil {
		return err
	}
	if active.IsZero() {
		return reverts.ErrNotBonded
	}
	exists, err := s.list.Contains(account)
	if err != nil {
		return err
	}
	if exists {
		return reverts.ErrAlreadyCandidate
	}
	n, err := s.Nominations(account)
	if err != nil {
		return err
	}
	if n != nil {
		return reverts.ErrNominating
	}
	return s.list.Add(account)
}

// Leave removes the candidate and every nomination it received. It returns the
// candidate that followed account in the list.
func (s *Service) Leave(account eden.Address) (eden.Address, error) {
	logger.Debug("candidate leaving", "account", account)
	exists, err := s.list.Contains(account)
	if err != nil {
		return eden.Address{}, err
	}
	if !exists {
		return eden.Address{}, reverts.ErrNotCandidate
	}
	backers := s.backers(account)
	if err := backers.Iter(func(nominator eden.Address) error {
		return s.dropTarget(nominator, account)
	}); err != nil {
		return eden.Address{}, err
	}
	if err := backers.Clear(); err != nil {
		return eden.Address{}, err
	}
	return s.list.Remove(account)
}

// Nominate backs validator with amount of nominator's active stake. Repeated
// nominations of the same validator add up.
func (s *Service) Nominate(nominator, validator eden.Address, amount *uint256.Int) error {
	logger.Debug("nominating", "nominator", nominator, "validator", validator, "amount", amount)
	if amount.IsZero() {
		return reverts.ErrZeroAmount
	}
	ok, err := s.list.Contains(validator)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNotCandidate
	}
	if ok, err = s.list.Contains(nominator); err != nil {
		return err
	} else if ok {
		return reverts.ErrAlreadyCandidate
	}

	active, err := s.stakes.Active(nominator)
	if err != nil {
		return err
	}
	n, err := s.Nominations(nominator)
	if err != nil {
		return err
	}
	if n == nil {
		n = &Nominations{}
	}
	sum, overflow := new(uint256.Int).AddOverflow(n.Sum(), amount)
	if overflow || sum.Gt(active) {
		return reverts.ErrInsufficientActiveStake
	}

	i, found := n.find(validator)
	if found {
		n.Targets[i].Amount.Add(&n.Targets[i].Amount, amount)
	} else {
		var t Target
		t.Validator = validator
		t.Amount.Set(amount)
		n.Targets = slices.Insert(n.Targets, i, t)
		if err := s.backers(validator).Add(nominator); err != nil {
			return err
		}
	}
	return s.nominations.Set(nominator, n)
}

// Denominate withdraws the nomination of validator by nominator.
func (s *Service) Denominate(nominator, validator eden.Address) error {
	logger.Debug("denominating", "nominator", nominator, "validator", validator)
	n, err := s.Nominations(nominator)
	if err != nil {
		return err
	}
	if n == nil {
		return reverts.ErrNotNominated
	}
	if _, found := n.find(validator); !found {
		return reverts.ErrNotNominated
	}
	if err := s.dropTarget(nominator, validator); err != nil {
		return err
	}
	_, err = s.backers(validator).Remove(nominator)
	return err
}

func (s *Service) dropTarget(nominator, validator eden.Address) error {
	n, err := s.Nominations(nominator)
	if err != nil || n == nil {
		return err
	}
	i, found := n.find(validator)
	if !found {
		return nil
	}
	n.Targets = slices.Delete(n.Targets, i, i+1)
	if len(n.Targets) == 0 {
		s.nominations.Delete(nominator)
		return nil
	}
	return s.nominations.Set(nominator, n)
}

// Exposure builds the current exposure of validator. Each nominator's active
// stake is spread across its targets in validator order; nominations left
// without stake are omitted.
func (s *Service) Exposure(validator eden.Address) (*Candidate, error) {
	self, err := s.stakes.Active(validator)
	if err != nil {
		return nil, err
	}
	c := &Candidate{Account: validator, SelfBond: self}
	if err := s.backers(validator).Iter(func(nominator eden.Address) error {
		n, err := s.Nominations(nominator)
		if err != nil || n == nil {
			return err
		}
		active, err := s.stakes.Active(nominator)
		if err != nil {
			return err
		}
		if eff := n.Allocate(validator, active); !eff.IsZero() {
			c.Nominators = append(c.Nominators, Nomination{Nominator: nominator, Amount: eff})
		}
		return nil
	}); err != nil {
		return nil, err
	}
	slices.SortFunc(c.Nominators, func(a, b Nomination) int {
		return a.Nominator.Compare(b.Nominator)
	})
	return c, nil
}
