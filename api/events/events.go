// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/api/utils"
	"github.com/eden-network/eden/eventdb"
)

type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{db, limit}
}

// parseFilter reads account, kind, from, to, offset, limit and order.
func (e *Events) parseFilter(req *http.Request) (*eventdb.Filter, error) {
	q := req.URL.Query()
	filter := &eventdb.Filter{Options: &eventdb.Options{Limit: e.limit}}

	if s := q.Get("account"); s != "" {
		account, err := utils.ParseAddress("account", s)
		if err != nil {
			return nil, err
		}
		filter.Account = &account
	}
	for _, k := range q["kind"] {
		for _, kind := range strings.Split(k, ",") {
			if kind = strings.TrimSpace(kind); kind != "" {
				filter.Kinds = append(filter.Kinds, kind)
			}
		}
	}
	if q.Has("from") || q.Has("to") {
		filter.Range = &eventdb.Range{}
		if s := q.Get("from"); s != "" {
			from, err := utils.ParseUint32("from", s)
			if err != nil {
				return nil, err
			}
			filter.Range.From = from
		}
		filter.Range.To = ^uint32(0)
		if s := q.Get("to"); s != "" {
			to, err := utils.ParseUint32("to", s)
			if err != nil {
				return nil, err
			}
			filter.Range.To = to
		}
	}
	if s := q.Get("offset"); s != "" {
		offset, err := utils.ParseUint64("offset", s)
		if err != nil {
			return nil, err
		}
		filter.Options.Offset = offset
	}
	if s := q.Get("limit"); s != "" {
		limit, err := utils.ParseUint64("limit", s)
		if err != nil {
			return nil, err
		}
		if limit > e.limit {
			return nil, utils.HTTPError(errors.Errorf("limit exceeds %d", e.limit), http.StatusForbidden)
		}
		filter.Options.Limit = limit
	}
	switch strings.ToLower(q.Get("order")) {
	case "", string(eventdb.ASC):
		filter.Order = eventdb.ASC
	case string(eventdb.DESC):
		filter.Order = eventdb.DESC
	default:
		return nil, utils.BadRequest(errors.New("order: expect asc or desc"))
	}
	return filter, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.parseFilter(req)
	if err != nil {
		return err
	}
	evs, err := e.db.Filter(req.Context(), filter)
	if err != nil {
		return err
	}
	if evs == nil {
		evs = []*eventdb.Event{}
	}
	return utils.WriteJSON(w, evs)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
