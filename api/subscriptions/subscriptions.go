// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/api/utils"
	"github.com/eden-network/eden/eventdb"
	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/runtime"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 7) / 10
)

// Subscriptions streams staking events of newly committed blocks over websocket.
type Subscriptions struct {
	rt             *runtime.Runtime
	db             *eventdb.EventDB
	backtraceLimit uint32
	upgrader       *websocket.Upgrader
	done           chan struct{}
	closeOnce      sync.Once
	wg             sync.WaitGroup
}

func New(rt *runtime.Runtime, allowedOrigins []string, backtraceLimit uint32) *Subscriptions {
	return &Subscriptions{
		rt:             rt,
		db:             rt.Events(),
		backtraceLimit: backtraceLimit,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

// parseQuery reads pos, account and kind. pos defaults to the next block.
func (s *Subscriptions) parseQuery(req *http.Request) (*eventdb.Filter, uint32, error) {
	q := req.URL.Query()
	filter := &eventdb.Filter{Order: eventdb.ASC}

	if v := q.Get("account"); v != "" {
		account, err := utils.ParseAddress("account", v)
		if err != nil {
			return nil, 0, err
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

	head := s.rt.Head()
	pos := head
	if v := q.Get("pos"); v != "" {
		n, err := utils.ParseUint32("pos", v)
		if err != nil {
			return nil, 0, err
		}
		pos = n
	}
	if pos > head {
		return nil, 0, utils.BadRequest(errors.Errorf("pos: beyond next block %d", head))
	}
	if head-pos > s.backtraceLimit {
		return nil, 0, utils.HTTPError(errors.New("pos: backtrace limit exceeded"), http.StatusForbidden)
	}
	return filter, pos, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	filter, pos, err := s.parseQuery(req)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return utils.HTTPError(errors.New("service closed"), http.StatusServiceUnavailable)
	default:
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has replied already
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	if err := s.pipe(conn, filter, pos); err != nil {
		logger.Debug("subscription closed", "err", err)
	}
	return nil
}

// pipe writes the events of blocks from pos on, then of every new block,
// until the peer goes away or the service closes.
func (s *Subscriptions) pipe(conn *websocket.Conn, filter *eventdb.Filter, pos uint32) error {
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		wake := s.rt.NewBlocks()
		if head := s.rt.Head(); pos < head {
			query := *filter
			query.Range = &eventdb.Range{From: pos, To: head - 1}
			events, err := s.db.Filter(context.Background(), &query)
			if err != nil {
				return err
			}
			for _, ev := range events {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					return err
				}
			}
			pos = head
		}

		select {
		case <-s.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "service closed"))
		case <-closed:
			return nil
		case <-wake:
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

// Close ends every open subscription and waits for them to return.
func (s *Subscriptions) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
