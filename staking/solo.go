// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/collectivefund/collective/collective"
)

type soloDelegation struct {
	target   collective.Address
	amount   *big.Int
	revokeAt *time.Time // nil until a revoke is scheduled
}

// SoloService is an in-memory staking service for solo mode and tests. It
// enforces a wall-clock unbonding delay; Mature forces all scheduled revokes
// to be treated as elapsed.
type SoloService struct {
	mu          sync.Mutex
	self        collective.Address
	delay       time.Duration
	delegations map[collective.Address]*soloDelegation
}

var _ Service = (*SoloService)(nil)

// NewSoloService creates a solo staking service bound to the given calling
// account, with the given unbonding delay.
func NewSoloService(self collective.Address, delay time.Duration) *SoloService {
	return &SoloService{
		self:        self,
		delay:       delay,
		delegations: make(map[collective.Address]*soloDelegation),
	}
}

func (s *SoloService) Delegate(target collective.Address, amount *big.Int, _, _ uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.delegations[s.self]; ok {
		return errors.New("delegate: already delegating")
	}
	if amount.Sign() <= 0 {
		return errors.New("delegate: zero amount")
	}
	s.delegations[s.self] = &soloDelegation{
		target: target,
		amount: new(big.Int).Set(amount),
	}
	return nil
}

func (s *SoloService) DelegatorBondMore(target collective.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	del, ok := s.delegations[s.self]
	if !ok {
		return errors.New("bond more: no active delegation")
	}
	if del.target != target {
		return errors.New("bond more: target mismatch")
	}
	if del.revokeAt != nil {
		return errors.New("bond more: revoke scheduled")
	}
	del.amount.Add(del.amount, amount)
	return nil
}

func (s *SoloService) ScheduleRevokeDelegation(target collective.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	del, ok := s.delegations[s.self]
	if !ok {
		return errors.New("schedule revoke: no active delegation")
	}
	if del.target != target {
		return errors.New("schedule revoke: target mismatch")
	}
	if del.revokeAt != nil {
		return errors.New("schedule revoke: already scheduled")
	}
	at := time.Now().Add(s.delay)
	del.revokeAt = &at
	return nil
}

func (s *SoloService) ExecuteDelegationRequest(delegator, target collective.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	del, ok := s.delegations[delegator]
	if !ok {
		return errors.New("execute revoke: no active delegation")
	}
	if del.target != target {
		return errors.New("execute revoke: target mismatch")
	}
	if del.revokeAt == nil {
		return errors.New("execute revoke: no scheduled revoke")
	}
	// not matured yet: the request is valid but has no effect
	if time.Now().Before(*del.revokeAt) {
		return nil
	}
	delete(s.delegations, delegator)
	return nil
}

func (s *SoloService) IsDelegator(delegator collective.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.delegations[delegator]
	return ok, nil
}

func (s *SoloService) CandidateDelegationCount(target collective.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n uint64
	for _, del := range s.delegations {
		if del.target == target {
			n++
		}
	}
	return n, nil
}

func (s *SoloService) DelegatorDelegationCount(delegator collective.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.delegations[delegator]; ok {
		return 1, nil
	}
	return 0, nil
}

// Mature marks every scheduled revoke as elapsed, regardless of wall clock.
func (s *SoloService) Mature() {
	s.mu.Lock()
	defer s.mu.Unlock()
	past := time.Now().Add(-time.Second)
	for _, del := range s.delegations {
		if del.revokeAt != nil {
			at := past
			del.revokeAt = &at
		}
	}
}

// BondedAmount returns the currently bonded amount for the calling account,
// or zero if none.
func (s *SoloService) BondedAmount() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if del, ok := s.delegations[s.self]; ok {
		return new(big.Int).Set(del.amount)
	}
	return new(big.Int)
}
