// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co provides goroutine lifecycle helpers.
package co

import "sync"

// Goes tracks spawned goroutines so they can be waited on at shutdown.
type Goes struct {
	wg sync.WaitGroup
}

// Go runs f in a new tracked goroutine.
func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f()
	}()
}

// Wait blocks until all tracked goroutines return.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done returns a channel closed when all tracked goroutines return.
func (g *Goes) Done() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(ch)
	}()
	return ch
}
