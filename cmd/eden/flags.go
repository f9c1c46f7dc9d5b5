// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for staking state and event databases",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML staking configuration, EDEN_* environment variables override it",
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to genesis file, if not set, the default devnet genesis will be used",
	}
	devValidatorsFlag = cli.IntFlag{
		Name:  "dev-validators",
		Value: 4,
		Usage: "number of validator candidates in the devnet genesis",
	}
	devNominatorsFlag = cli.IntFlag{
		Name:  "dev-nominators",
		Value: 16,
		Usage: "number of nominators in the devnet genesis",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 256,
		Usage: "megabytes of ram allocated to the state database cache",
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "state storage option, if set data will be saved to disk",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "all API requests slower than the threshold (milliseconds) are logged",
	}
	apiBacktraceLimitFlag = cli.Uint64Flag{
		Name:  "api-backtrace-limit",
		Value: 1000,
		Usage: "limit the distance between 'pos' and the next block for subscriptions",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection, served at /metrics",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	blockIntervalFlag = cli.Uint64Flag{
		Name:  "block-interval",
		Value: 6,
		Usage: "interval between processed blocks (seconds)",
	}

	// simulate only flags
	blocksFlag = cli.Uint64Flag{
		Name:  "blocks",
		Value: 10_000,
		Usage: "number of blocks to process",
	}
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "seed of the random bond/unbond workload",
	}
	activityFlag = cli.Float64Flag{
		Name:  "activity",
		Value: 0.2,
		Usage: "probability that a block carries a random staking call (0 disables the workload)",
	}
)
