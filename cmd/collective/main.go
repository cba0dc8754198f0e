// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/collectivefund/collective/api"
	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/config"
	"github.com/collectivefund/collective/eventdb"
	"github.com/collectivefund/collective/kv"
	"github.com/collectivefund/collective/log"
	"github.com/collectivefund/collective/pool"
	"github.com/collectivefund/collective/staking"
	"github.com/collectivefund/collective/state"
)

var (
	version   string
	gitCommit string

	logger = log.WithContext("pkg", "main")
)

const defaultUnbondingDelay = 7 * 24 * time.Hour

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Collective",
		Usage:     "Pooled staking fund service",
		Copyright: "2026 The Collective developers",
		Flags: []cli.Flag{
			configFileFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "run with in-memory state for test & dev",
				Flags: []cli.Flag{
					configFileFlag,
					dataDirFlag,
					apiAddrFlag,
					apiCorsFlag,
					enableAPILogsFlag,
					verbosityFlag,
					jsonLogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					persistFlag,
				},
				Action: soloAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	cfg, err := config.Load(ctx.String(configFileFlag.Name))
	if err != nil {
		fatal(err)
	}
	poolCfg, err := cfg.PoolConfig()
	if err != nil {
		fatal(err)
	}

	dataDir := makeDataDir(ctx)

	mainDB := openMainDB(dataDir)
	defer func() { logger.Info("closing pool database..."); mainDB.Close() }()

	eventDB := openEventDB(dataDir)
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	delay := time.Duration(cfg.Pool.SoloUnbondingDelay)
	if delay == 0 {
		delay = defaultUnbondingDelay
	}

	return runPool(ctx, poolCfg, state.New(mainDB), eventDB, delay, dataDir)
}

func soloAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	poolCfg := soloGenesis()
	delay := 10 * time.Second

	if path := ctx.String(configFileFlag.Name); isFile(path) {
		cfg, err := config.Load(path)
		if err != nil {
			fatal(err)
		}
		if poolCfg, err = cfg.PoolConfig(); err != nil {
			fatal(err)
		}
		if d := time.Duration(cfg.Pool.SoloUnbondingDelay); d != 0 {
			delay = d
		}
	}

	var st *state.State
	var eventDB *eventdb.EventDB
	instanceDir := "memory"
	if ctx.Bool(persistFlag.Name) {
		instanceDir = makeDataDir(ctx)
		mainDB := openMainDB(instanceDir)
		defer func() { logger.Info("closing pool database..."); mainDB.Close() }()
		st, eventDB = state.New(mainDB), openEventDB(instanceDir)
	} else {
		st, eventDB = state.New(kv.NewMemLevelDB()), openMemEventDB()
	}
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	return runPool(ctx, poolCfg, st, eventDB, delay, instanceDir)
}

func runPool(
	ctx *cli.Context,
	poolCfg pool.Config,
	st *state.State,
	eventDB *eventdb.EventDB,
	unbondingDelay time.Duration,
	instanceDir string,
) error {
	stopMetrics := startMetricsServer(ctx)
	defer func() { logger.Info("stopping metrics server..."); stopMetrics() }()

	stakingSvc := staking.NewSoloService(poolCfg.Self, unbondingDelay)

	p, err := pool.New(poolCfg, st, stakingSvc, &logSender{logger: log.WithContext("pkg", "sender")}, eventDB)
	if err != nil {
		fatal(err)
	}

	handler := api.New(p, eventDB, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})

	apiURL, stopAPI := startAPIServer(ctx, handler)
	defer func() { logger.Info("stopping API server..."); stopAPI() }()

	printStartupMessage(poolCfg, unbondingDelay, instanceDir, apiURL)

	return handleExitSignal()
}

func printStartupMessage(poolCfg pool.Config, delay time.Duration, instanceDir, apiURL string) {
	fmt.Printf(`Starting Collective %v
    Self          [ %v ]
    Target        [ %v ]
    Threshold     [ %v ]
    Unbond delay  [ %v ]
    Instance dir  [ %v ]
    API portal    [ %v ]
`,
		fullVersion(),
		poolCfg.Self,
		poolCfg.Target,
		poolCfg.ActivationThreshold,
		delay,
		instanceDir,
		apiURL)
}

// soloGenesis is a throwaway pool setup for local development.
func soloGenesis() pool.Config {
	admin := collective.BytesToAddress([]byte("solo-admin"))
	members := []collective.Address{
		collective.BytesToAddress([]byte("solo-member-1")),
		collective.BytesToAddress([]byte("solo-member-2")),
		collective.BytesToAddress([]byte("solo-member-3")),
	}
	return pool.Config{
		Self:                collective.BytesToAddress([]byte("solo-pool")),
		Target:              collective.BytesToAddress([]byte("solo-candidate")),
		ActivationThreshold: big.NewInt(1000),
		Admins:              []collective.Address{admin},
		Members:             members,
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func handleExitSignal() error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	sig := <-ch
	logger.Info("exit signal received", "signal", sig)
	return nil
}
