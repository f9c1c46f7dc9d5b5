// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/eden-network/eden/api/events"
	"github.com/eden-network/eden/api/middleware"
	"github.com/eden-network/eden/api/staking"
	"github.com/eden-network/eden/api/subscriptions"
	"github.com/eden-network/eden/api/utils"
	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/metrics"
	"github.com/eden-network/eden/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins     string
	EventsLimit        uint64
	EnableMetrics      bool
	EnableReqLogger    *atomic.Bool
	SlowQueryThreshold time.Duration
	BacktraceLimit     uint32
}

// New returns the api router and a func closing the websocket subscriptions.
func New(rt *runtime.Runtime, opts Options) (http.Handler, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.EventsLimit == 0 {
		opts.EventsLimit = 1000
	}
	if opts.BacktraceLimit == 0 {
		opts.BacktraceLimit = 1000
	}

	router := mux.NewRouter()

	router.Path("/node/head").
		Methods(http.MethodGet).
		Name("GET /node/head").
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			return utils.WriteJSON(w, map[string]uint32{"next": rt.Head()})
		}))

	staking.New(rt).
		Mount(router, "/staking")
	closeSubs := func() {}
	if db := rt.Events(); db != nil {
		events.New(db, opts.EventsLimit).
			Mount(router, "/events")
		subs := subscriptions.New(rt, origins, opts.BacktraceLimit)
		subs.Mount(router, "/subscriptions")
		closeSubs = subs.Close
	}

	if opts.EnableMetrics {
		router.Path("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueryThreshold)(handler)
	}
	return handler, closeSubs // hijacked websocket conns outlive the http server
}
