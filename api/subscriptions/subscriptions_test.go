// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eden-network/eden/builtin/staker"
	"github.com/eden-network/eden/eventdb"
	"github.com/eden-network/eden/genesis"
	"github.com/eden-network/eden/lvldb"
	"github.com/eden-network/eden/runtime"
)

func newTestSubs(t *testing.T, blocks int) (*runtime.Runtime, *Subscriptions, *httptest.Server) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	events, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { events.Close() })

	cfg := staker.DefaultConfig()
	cfg.RoundLength = 5
	cfg.EraLength = 2
	cfg.MinValidators = 1
	cfg.SnapshotRetention = 4
	rt, err := runtime.New(db, cfg, events, nil)
	require.NoError(t, err)
	require.NoError(t, rt.Init(genesis.NewDevnet(2, 2)))
	for range blocks {
		_, err := rt.Execute(nil)
		require.NoError(t, err)
	}

	router := mux.NewRouter()
	subs := New(rt, []string{"*"}, 10)
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		subs.Close()
		ts.Close()
	})
	return rt, subs, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/events", RawQuery: query}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func readEvent(t *testing.T, conn *websocket.Conn) *eventdb.Event {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev eventdb.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return &ev
}

func TestCatchUp(t *testing.T) {
	_, _, ts := newTestSubs(t, 3)

	conn, resp, err := dial(t, ts, "pos=0&kind=Bonded")
	require.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	for i := range 4 {
		ev := readEvent(t, conn)
		assert.Equal(t, "Bonded", ev.Kind)
		assert.Equal(t, uint32(0), ev.BlockNumber)
		assert.Equal(t, uint32(i), ev.Index)
	}
}

func TestLiveBlocks(t *testing.T) {
	rt, _, ts := newTestSubs(t, 3)

	conn, _, err := dial(t, ts, "kind=RoundSnapshotted")
	require.NoError(t, err)

	// the next round starts at block 5
	for range 3 {
		_, err := rt.Execute(nil)
		require.NoError(t, err)
	}
	ev := readEvent(t, conn)
	assert.Equal(t, "RoundSnapshotted", ev.Kind)
	assert.Equal(t, uint32(5), ev.BlockNumber)
}

func TestAccountFilter(t *testing.T) {
	_, _, ts := newTestSubs(t, 1)

	account := genesis.DevAccount(3)
	conn, _, err := dial(t, ts, "pos=0&account="+account.String())
	require.NoError(t, err)

	ev := readEvent(t, conn)
	assert.Equal(t, "Bonded", ev.Kind)
	assert.Contains(t, strings.ToLower(string(ev.Data)), account.String())
}

func TestBadQuery(t *testing.T) {
	_, _, ts := newTestSubs(t, 12)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"beyond head", "pos=13", http.StatusBadRequest},
		{"too far behind", "pos=1", http.StatusForbidden},
		{"bad pos", "pos=x", http.StatusBadRequest},
		{"bad account", "account=0x01", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := dial(t, ts, tt.query)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestClose(t *testing.T) {
	_, subs, ts := newTestSubs(t, 1)

	conn, _, err := dial(t, ts, "pos=0&kind=Bonded")
	require.NoError(t, err)
	readEvent(t, conn)

	subs.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	_, resp, err := dial(t, ts, "")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
