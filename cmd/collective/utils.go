// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/collectivefund/collective/co"
	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/eventdb"
	"github.com/collectivefund/collective/kv"
	"github.com/collectivefund/collective/log"
	"github.com/collectivefund/collective/metrics"
)

func fatal(args ...any) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) {
	verbosity := ctx.Int(verbosityFlag.Name)
	if ctx.Bool(jsonLogsFlag.Name) || !isatty.IsTerminal(os.Stderr.Fd()) {
		log.InitJSON(os.Stderr, verbosity)
	} else {
		log.Init(os.Stderr, verbosity)
	}
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify one", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func openMainDB(dataDir string) *kv.LevelDB {
	db, err := kv.NewLevelDB(filepath.Join(dataDir, "pool.db"), kv.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 512,
	})
	if err != nil {
		fatal(fmt.Sprintf("open pool database: %v", err))
	}
	return db
}

func openEventDB(dataDir string) *eventdb.EventDB {
	db, err := eventdb.New(filepath.Join(dataDir, "events.db"))
	if err != nil {
		fatal(fmt.Sprintf("open event database: %v", err))
	}
	return db
}

func openMemEventDB() *eventdb.EventDB {
	db, err := eventdb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open event database: %v", err))
	}
	return db
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (string, func()) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen API addr [%v]: %v", addr, err))
	}
	srv := &http.Server{Handler: handler}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		goes.Wait()
	}
}

func startMetricsServer(ctx *cli.Context) func() {
	if !ctx.Bool(enableMetricsFlag.Name) {
		return func() {}
	}
	metrics.InitializePrometheusMetrics()

	addr := ctx.String(metricsAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen metrics addr [%v]: %v", addr, err))
	}
	srv := &http.Server{Handler: metrics.HTTPHandler()}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return func() {
		srv.Close()
		goes.Wait()
	}
}

// logSender releases funds by recording the transfer; solo deployments have
// no external transfer rail.
type logSender struct {
	logger log.Logger
}

func (s *logSender) Send(to collective.Address, amount *big.Int) error {
	s.logger.Info("funds released", "to", to, "amount", amount)
	return nil
}
