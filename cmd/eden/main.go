// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/runtime"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "Eden",
		Usage:   "Staking engine with snapshots, rewards and slashing",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			genesisFlag,
			devValidatorsFlag,
			devNominatorsFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			apiSlowQueriesThresholdFlag,
			apiBacktraceLimitFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			verbosityFlag,
			jsonLogsFlag,
			blockIntervalFlag,
			cacheFlag,
		},
		Action: runAction,
		Commands: []cli.Command{
			{
				Name:  "run",
				Usage: "process blocks on a fixed interval and serve the API",
				Flags: []cli.Flag{
					dataDirFlag,
					configFlag,
					genesisFlag,
					devValidatorsFlag,
					devNominatorsFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiEventsLimitFlag,
					apiSlowQueriesThresholdFlag,
					apiBacktraceLimitFlag,
					enableAPILogsFlag,
					enableMetricsFlag,
					verbosityFlag,
					jsonLogsFlag,
					blockIntervalFlag,
					cacheFlag,
				},
				Action: runAction,
			},
			{
				Name:  "simulate",
				Usage: "process blocks from genesis as fast as possible and print the totals",
				Flags: []cli.Flag{
					dataDirFlag,
					configFlag,
					genesisFlag,
					devValidatorsFlag,
					devNominatorsFlag,
					persistFlag,
					cacheFlag,
					verbosityFlag,
					jsonLogsFlag,
					blocksFlag,
					seedFlag,
					activityFlag,
				},
				Action: simulateAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	if err := initLogger(ctx); err != nil {
		return err
	}
	initMetrics(ctx)

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	dbs, err := openDatabases(ctx, gene, true)
	if err != nil {
		return err
	}
	defer dbs.Close()

	rt, err := openRuntime(ctx, gene, dbs)
	if err != nil {
		return err
	}

	srv, listener, closeSubs, err := newAPIServer(ctx, rt)
	if err != nil {
		return err
	}
	printStartupMessage(os.Stdout, gene, rt, dbs.dir, "http://"+listener.Addr().String()+"/")

	exitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(ctx.Uint64(blockIntervalFlag.Name)) * time.Second
	if interval == 0 {
		return errors.New("block-interval must be positive")
	}

	g, gctx := errgroup.WithContext(exitCtx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "API server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping API server...")
		closeSubs()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return produce(gctx, rt, interval)
	})
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			checkClockOffset(interval)
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
	return g.Wait()
}

// produce executes one block per interval until ctx is done.
func produce(ctx context.Context, rt *runtime.Runtime, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			blk, err := rt.Execute(nil)
			if err != nil {
				return errors.Wrap(err, "execute block")
			}
			logger.Debug("block processed", "number", blk.Number, "events", blk.Events, "changes", blk.Changes)
		}
	}
}

func simulateAction(ctx *cli.Context) error {
	if err := initLogger(ctx); err != nil {
		return err
	}

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	dbs, err := openDatabases(ctx, gene, ctx.Bool(persistFlag.Name))
	if err != nil {
		return err
	}
	defer dbs.Close()

	rt, err := openRuntime(ctx, gene, dbs)
	if err != nil {
		return err
	}

	exitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := newWorkload(gene, ctx.Int64(seedFlag.Name), ctx.Float64(activityFlag.Name))
	sum, err := simulate(exitCtx, rt, w, ctx.Uint64(blocksFlag.Name), true)
	if err != nil {
		return err
	}
	return sum.print(os.Stdout)
}
