// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/kv"
	"github.com/collectivefund/collective/staking"
	"github.com/collectivefund/collective/state"
)

var (
	selfAddr   = collective.BytesToAddress([]byte("pool-self"))
	targetAddr = collective.BytesToAddress([]byte("target-1"))
	target2    = collective.BytesToAddress([]byte("target-2"))
	admin      = collective.BytesToAddress([]byte("admin"))
	alice      = collective.BytesToAddress([]byte("alice"))
	bob        = collective.BytesToAddress([]byte("bob"))
	carol      = collective.BytesToAddress([]byte("carol"))
	stranger   = collective.BytesToAddress([]byte("stranger"))
	payout     = collective.BytesToAddress([]byte("payout"))
)

type sentRecord struct {
	to     collective.Address
	amount *big.Int
}

// recordingSender is the fund transfer primitive used in tests. It can be
// told to fail to exercise rollback.
type recordingSender struct {
	sent    []sentRecord
	failing bool
}

func (s *recordingSender) Send(to collective.Address, amount *big.Int) error {
	if s.failing {
		return errors.New("transfer refused")
	}
	s.sent = append(s.sent, sentRecord{to, new(big.Int).Set(amount)})
	return nil
}

type recordedEvent struct {
	kind        string
	member      collective.Address
	destination collective.Address
	amount      *big.Int
}

type recordingEvents struct {
	events []recordedEvent
}

func (r *recordingEvents) RecordDeposit(member collective.Address, amount *big.Int) error {
	r.events = append(r.events, recordedEvent{kind: "deposit", member: member, amount: new(big.Int).Set(amount)})
	return nil
}

func (r *recordingEvents) RecordWithdrawal(member, destination collective.Address, amount *big.Int) error {
	r.events = append(r.events, recordedEvent{kind: "withdrawal", member: member, destination: destination, amount: new(big.Int).Set(amount)})
	return nil
}

// stubStaking forces IsDelegator answers, for desynchronization tests.
type stubStaking struct {
	staking.Service
	delegating bool
}

func (s *stubStaking) IsDelegator(collective.Address) (bool, error) {
	return s.delegating, nil
}

type harness struct {
	pool    *Pool
	staking *staking.SoloService
	sender  *recordingSender
	events  *recordingEvents
	state   *state.State
}

func newHarness(t *testing.T, threshold int64) *harness {
	t.Helper()
	db := kv.NewMemLevelDB()
	t.Cleanup(func() { db.Close() })
	st := state.New(db)

	svc := staking.NewSoloService(selfAddr, time.Hour)
	sender := &recordingSender{}
	events := &recordingEvents{}

	p, err := New(Config{
		Self:                selfAddr,
		Target:              targetAddr,
		ActivationThreshold: big.NewInt(threshold),
		Admins:              []collective.Address{admin},
		Members:             []collective.Address{alice, bob, carol},
	}, st, svc, sender, events)
	require.NoError(t, err)

	return &harness{pool: p, staking: svc, sender: sender, events: events, state: st}
}

// ledgerInvariant asserts sum(member stakes) == total stake.
func (h *harness) ledgerInvariant(t *testing.T) {
	t.Helper()
	entries, err := h.pool.Members()
	require.NoError(t, err)
	sum := new(big.Int)
	for _, e := range entries {
		sum.Add(sum, e.Stake)
	}
	snap, err := h.pool.Snapshot()
	require.NoError(t, err)
	require.Zero(t, sum.Cmp(snap.TotalStake), "sum of member stakes %v != total %v", sum, snap.TotalStake)
}

func (h *harness) mustStatus(t *testing.T, want Status) {
	t.Helper()
	snap, err := h.pool.Snapshot()
	require.NoError(t, err)
	require.Equal(t, StatusName(want), StatusName(snap.Status))
}

// toStaking drives a fresh pool into the STAKING state.
func (h *harness) toStaking(t *testing.T) {
	t.Helper()
	require.NoError(t, h.pool.Deposit(alice, big.NewInt(2)))
	require.NoError(t, h.pool.Deposit(bob, big.NewInt(2)))
	require.NoError(t, h.pool.Deposit(carol, big.NewInt(1)))
	h.mustStatus(t, StatusStaking)
}
