// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics is a singleton service providing global access to a set of
// meters. It defaults to a no-op implementation; InitializePrometheusMetrics
// switches it to prometheus-backed meters.
package metrics

import "net/http"

var svc Service = noop{}

// Service defines the interface for metrics service implementations.
type Service interface {
	GetOrCreateCountMeter(name string) CountMeter
	GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter
	GetOrCreateGaugeMeter(name string) GaugeMeter
	GetOrCreateHandler() http.Handler
}

// CountMeter is a monotonically increasing counter.
type CountMeter interface {
	Add(int64)
}

// CountVecMeter is a counter with labels.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

// GaugeMeter is a numeric value that can go up and down.
type GaugeMeter interface {
	Set(int64)
}

// Counter returns a counter meter with the given name.
func Counter(name string) CountMeter { return svc.GetOrCreateCountMeter(name) }

// CounterVec returns a labeled counter meter with the given name.
func CounterVec(name string, labels []string) CountVecMeter {
	return svc.GetOrCreateCountVecMeter(name, labels)
}

// Gauge returns a gauge meter with the given name.
func Gauge(name string) GaugeMeter { return svc.GetOrCreateGaugeMeter(name) }

// HTTPHandler returns the http handler for scraping metrics.
func HTTPHandler() http.Handler { return svc.GetOrCreateHandler() }

type noop struct{}

type noopMeter struct{}

func (noopMeter) Add(int64)                          {}
func (noopMeter) AddWithLabel(int64, map[string]string) {}
func (noopMeter) Set(int64)                          {}

func (noop) GetOrCreateCountMeter(string) CountMeter              { return noopMeter{} }
func (noop) GetOrCreateCountVecMeter(string, []string) CountVecMeter { return noopMeter{} }
func (noop) GetOrCreateGaugeMeter(string) GaugeMeter              { return noopMeter{} }
func (noop) GetOrCreateHandler() http.Handler                     { return http.NotFoundHandler() }
