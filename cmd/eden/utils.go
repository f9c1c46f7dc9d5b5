// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/eden-network/eden/api"
	"github.com/eden-network/eden/builtin/staker"
	"github.com/eden-network/eden/eventdb"
	"github.com/eden-network/eden/genesis"
	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/lvldb"
	"github.com/eden-network/eden/metrics"
	"github.com/eden-network/eden/runtime"
)

func initLogger(ctx *cli.Context) error {
	format := log.FormatTerminal
	if ctx.Bool(jsonLogsFlag.Name) {
		format = log.FormatJSON
	}
	return log.Setup(format, os.Stderr, log.LevelFromVerbosity(int(ctx.Uint64(verbosityFlag.Name))))
}

func initMetrics(ctx *cli.Context) {
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	if path := ctx.String(genesisFlag.Name); path != "" {
		return genesis.Load(path)
	}
	return genesis.NewDevnet(ctx.Int(devValidatorsFlag.Name), ctx.Int(devNominatorsFlag.Name)), nil
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".eden")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.New("unable to infer default data dir, use -data-dir to specify")
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[:8]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

// checkClockOffset warns when the local clock drifts by more than half a block interval.
func checkClockOffset(interval time.Duration) {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	if offset > interval/2 {
		logger.Warn("clock offset detected", "offset", resp.ClockOffset)
	}
}

// databases holds the opened stores of an instance.
type databases struct {
	main   *lvldb.LevelDB
	events *eventdb.EventDB
	dir    string
}

func openDatabases(ctx *cli.Context, gene *genesis.Genesis, persist bool) (*databases, error) {
	if !persist {
		mainDB, err := lvldb.NewMem()
		if err != nil {
			return nil, err
		}
		eventDB, err := eventdb.NewMem()
		if err != nil {
			mainDB.Close()
			return nil, err
		}
		return &databases{main: mainDB, events: eventDB, dir: "Memory"}, nil
	}

	instanceDir, err := makeInstanceDir(ctx, gene)
	if err != nil {
		return nil, err
	}
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)
	mainDB, err := lvldb.New(filepath.Join(instanceDir, "main.db"), lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: 256,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open main database")
	}
	eventDB, err := eventdb.New(filepath.Join(instanceDir, "events.db"))
	if err != nil {
		mainDB.Close()
		return nil, errors.Wrap(err, "open event database")
	}
	return &databases{main: mainDB, events: eventDB, dir: instanceDir}, nil
}

func (d *databases) Close() {
	logger.Info("closing event database...")
	if err := d.events.Close(); err != nil {
		logger.Warn("failed to close event database", "err", err)
	}
	logger.Info("closing main database...")
	if err := d.main.Close(); err != nil {
		logger.Warn("failed to close main database", "err", err)
	}
}

// openRuntime loads the config and opens the runtime initialized with gene.
func openRuntime(ctx *cli.Context, gene *genesis.Genesis, dbs *databases) (*runtime.Runtime, error) {
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	rt, err := runtime.New(dbs.main, cfg, dbs.events, governance{})
	if err != nil {
		return nil, err
	}
	if err := rt.Init(gene); err != nil {
		return nil, errors.Wrap(err, "init genesis")
	}
	return rt, nil
}

func newAPIServer(ctx *cli.Context, rt *runtime.Runtime) (*http.Server, net.Listener, func(), error) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	reqLogger := &atomic.Bool{}
	reqLogger.Store(ctx.Bool(enableAPILogsFlag.Name))

	handler, closeSubs := api.New(rt, api.Options{
		AllowedOrigins:     ctx.String(apiCorsFlag.Name),
		EventsLimit:        ctx.Uint64(apiEventsLimitFlag.Name),
		EnableMetrics:      ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger:    reqLogger,
		SlowQueryThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		BacktraceLimit:     uint32(ctx.Uint64(apiBacktraceLimitFlag.Name)),
	})
	return &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}, listener, closeSubs, nil
}

// governance escalates degraded rounds to the operator log.
type governance struct{}

func (governance) OnDegraded(alert staker.DegradedAlert) {
	logger.Warn("validator set degraded",
		"round", alert.Round,
		"carriedFrom", alert.CarriedFrom,
		"streak", alert.Streak,
		"err", alert.Err,
	)
}

func printStartupMessage(w io.Writer, gene *genesis.Genesis, rt *runtime.Runtime, dataDir, apiURL string) {
	fmt.Fprintf(w, `Starting %v
    Network      [ %v %v ]
    Next block   [ %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
`,
		fullVersion(),
		gene.ID(), gene.Name(),
		rt.Head(),
		dataDir,
		apiURL)
}
