// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the REST router.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/collectivefund/collective/api/events"
	"github.com/collectivefund/collective/api/pools"
	"github.com/collectivefund/collective/api/proposals"
	"github.com/collectivefund/collective/eventdb"
	"github.com/collectivefund/collective/log"
	"github.com/collectivefund/collective/pool"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
	EnableMetrics   bool
}

// New returns the api handler.
func New(p *pool.Pool, eventDB *eventdb.EventDB, opts Options) http.Handler {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	pools.New(p).
		Mount(router, "/pool")
	proposals.New(p).
		Mount(router, "/proposals")
	events.New(eventDB).
		Mount(router, "/events")

	if opts.EnableMetrics {
		router.Use(metricsHandler)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler
}
