// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eden-network/eden/api/utils"
	"github.com/eden-network/eden/builtin/balances"
	"github.com/eden-network/eden/builtin/staker"
	"github.com/eden-network/eden/runtime"
)

type Staking struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Staking {
	return &Staking{rt}
}

func (s *Staking) view(fn func(st *staker.Staker) error) error {
	return s.rt.View(func(st *staker.Staker, _ *balances.Balances) error {
		return fn(st)
	})
}

func (s *Staking) handleGetLedger(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.ParseAddress("account", mux.Vars(req)["account"])
	if err != nil {
		return err
	}
	var out *Ledger
	if err := s.view(func(st *staker.Staker) error {
		l, err := st.Ledger(account)
		if err != nil || l == nil {
			return err
		}
		frozen, err := st.IsFrozen(account)
		if err != nil {
			return err
		}
		payee, err := st.Payee(account)
		if err != nil {
			return err
		}
		out = convertLedger(account, l, frozen, payee)
		return nil
	}); err != nil {
		return err
	}
	if out == nil {
		return utils.NotFound("ledger")
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetCandidates(w http.ResponseWriter, _ *http.Request) error {
	out := make([]*Candidate, 0)
	if err := s.view(func(st *staker.Staker) error {
		accounts, err := st.Candidates()
		if err != nil {
			return err
		}
		for _, a := range accounts {
			c, err := st.Exposure(a)
			if err != nil {
				return err
			}
			out = append(out, convertCandidate(c))
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetNominations(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.ParseAddress("account", mux.Vars(req)["account"])
	if err != nil {
		return err
	}
	out := make([]Target, 0)
	if err := s.view(func(st *staker.Staker) error {
		n, err := st.Nominations(account)
		if err != nil || n == nil {
			return err
		}
		for i := range n.Targets {
			out = append(out, Target{Validator: n.Targets[i].Validator, Amount: amount(&n.Targets[i].Amount)})
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetRound(w http.ResponseWriter, req *http.Request) error {
	index, err := utils.ParseUint32("round", mux.Vars(req)["round"])
	if err != nil {
		return err
	}
	var out *Round
	if err := s.view(func(st *staker.Staker) error {
		r, err := st.Round(index)
		if err != nil || r == nil {
			return err
		}
		out = convertRound(r)
		return nil
	}); err != nil {
		return err
	}
	if out == nil {
		return utils.NotFound("round")
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetSnapshot(w http.ResponseWriter, req *http.Request) error {
	index, err := utils.ParseUint32("round", mux.Vars(req)["round"])
	if err != nil {
		return err
	}
	account, err := utils.ParseAddress("account", mux.Vars(req)["account"])
	if err != nil {
		return err
	}
	var out *Snapshot
	if err := s.view(func(st *staker.Staker) error {
		snap, err := st.Snapshot(index, account)
		if err != nil || snap == nil {
			return err
		}
		out = convertSnapshot(snap)
		return nil
	}); err != nil {
		return err
	}
	if out == nil {
		return utils.NotFound("snapshot")
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetEra(w http.ResponseWriter, req *http.Request) error {
	index, err := utils.ParseUint32("era", mux.Vars(req)["era"])
	if err != nil {
		return err
	}
	var out *Era
	if err := s.view(func(st *staker.Staker) error {
		e, err := st.Era(index)
		if err != nil || e == nil {
			return err
		}
		out = convertEra(e)
		return nil
	}); err != nil {
		return err
	}
	if out == nil {
		return utils.NotFound("era")
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetOwed(w http.ResponseWriter, req *http.Request) error {
	index, err := utils.ParseUint32("era", mux.Vars(req)["era"])
	if err != nil {
		return err
	}
	account, err := utils.ParseAddress("account", mux.Vars(req)["account"])
	if err != nil {
		return err
	}
	var out map[string]any
	if err := s.view(func(st *staker.Staker) error {
		o, err := st.Owed(index, account)
		if err != nil || o == nil {
			return err
		}
		out = map[string]any{"amount": amount(&o.Amount), "paid": o.Paid}
		return nil
	}); err != nil {
		return err
	}
	if out == nil {
		return utils.NotFound("reward")
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetSlash(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.ParseUint64("id", mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var out *Slash
	if err := s.view(func(st *staker.Staker) error {
		r, err := st.Slash(id)
		if err != nil || r == nil {
			return err
		}
		out = convertSlash(r)
		return nil
	}); err != nil {
		return err
	}
	if out == nil {
		return utils.NotFound("slash")
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetTotals(w http.ResponseWriter, _ *http.Request) error {
	var out *Totals
	if err := s.view(func(st *staker.Staker) error {
		t, err := st.Totals()
		if err != nil {
			return err
		}
		out = convertTotals(t)
		out.Head = s.rt.CurrentBlock()
		if out.Commission, err = st.Commission(); err != nil {
			return err
		}
		if out.EraRewardPot, err = st.EraRewardPot(); err != nil {
			return err
		}
		if out.Slashes, err = st.SlashCount(); err != nil {
			return err
		}
		latest, ok, err := st.LatestRound()
		if err != nil {
			return err
		}
		if ok {
			out.LatestRound = &latest
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.ParseAddress("account", mux.Vars(req)["account"])
	if err != nil {
		return err
	}
	var out map[string]any
	if err := s.rt.View(func(_ *staker.Staker, b *balances.Balances) error {
		free, err := b.Free(account)
		if err != nil {
			return err
		}
		reserved, err := b.Reserved(account)
		if err != nil {
			return err
		}
		out = map[string]any{"free": free, "reserved": reserved}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/ledgers/{account}").
		Methods(http.MethodGet).
		Name("GET /staking/ledgers/{account}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetLedger))
	sub.Path("/balances/{account}").
		Methods(http.MethodGet).
		Name("GET /staking/balances/{account}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetBalance))
	sub.Path("/candidates").
		Methods(http.MethodGet).
		Name("GET /staking/candidates").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCandidates))
	sub.Path("/nominations/{account}").
		Methods(http.MethodGet).
		Name("GET /staking/nominations/{account}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetNominations))
	sub.Path("/rounds/{round}").
		Methods(http.MethodGet).
		Name("GET /staking/rounds/{round}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetRound))
	sub.Path("/rounds/{round}/snapshots/{account}").
		Methods(http.MethodGet).
		Name("GET /staking/rounds/{round}/snapshots/{account}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSnapshot))
	sub.Path("/eras/{era}").
		Methods(http.MethodGet).
		Name("GET /staking/eras/{era}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetEra))
	sub.Path("/eras/{era}/rewards/{account}").
		Methods(http.MethodGet).
		Name("GET /staking/eras/{era}/rewards/{account}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetOwed))
	sub.Path("/slashes/{id}").
		Methods(http.MethodGet).
		Name("GET /staking/slashes/{id}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSlash))
	sub.Path("/totals").
		Methods(http.MethodGet).
		Name("GET /staking/totals").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTotals))
}

