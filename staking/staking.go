// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking defines the boundary to the external staking service that
// holds bonded pool funds. Calls are synchronous, but unbonding effects
// mature only after a delay the service enforces; the only way to observe
// maturity is polling IsDelegator.
package staking

import (
	"math/big"

	"github.com/collectivefund/collective/collective"
)

// Service is the external staking service consumed by the pool. A Service
// instance is bound to one calling account: Delegate, DelegatorBondMore and
// ScheduleRevokeDelegation act on that account's delegation.
type Service interface {
	// Delegate bonds amount against target. The two count hints are the
	// service's own concurrency-safe bonding protocol; fetch them via
	// CandidateDelegationCount and DelegatorDelegationCount right before
	// the call.
	Delegate(target collective.Address, amount *big.Int, candidateDelegationCount, delegatorDelegationCount uint64) error

	// DelegatorBondMore increases the existing bond against target.
	DelegatorBondMore(target collective.Address, amount *big.Int) error

	// ScheduleRevokeDelegation starts the unbonding delay for the
	// delegation against target.
	ScheduleRevokeDelegation(target collective.Address) error

	// ExecuteDelegationRequest attempts to finalize a scheduled revoke for
	// the given delegator. If the delay has not elapsed the call succeeds
	// without effect; the delegation stays observable via IsDelegator.
	ExecuteDelegationRequest(delegator, target collective.Address) error

	// IsDelegator reports whether the given account currently has an
	// active delegation.
	IsDelegator(delegator collective.Address) (bool, error)

	// CandidateDelegationCount returns the number of delegations currently
	// held against target.
	CandidateDelegationCount(target collective.Address) (uint64, error)

	// DelegatorDelegationCount returns the number of delegations the given
	// account currently holds.
	DelegatorDelegationCount(delegator collective.Address) (uint64, error)
}
