// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/pool"
)

// PoolView is the JSON shape of the pool snapshot.
type PoolView struct {
	Status     string             `json:"status"`
	Target     collective.Address `json:"target"`
	Reserve    string             `json:"reserve"`
	Bonded     string             `json:"bonded"`
	TotalStake string             `json:"totalStake"`
	Paused     bool               `json:"paused"`
}

func convertSnapshot(s *pool.Snapshot) *PoolView {
	return &PoolView{
		Status:     pool.StatusName(s.Status),
		Target:     s.Target,
		Reserve:    s.Reserve.String(),
		Bonded:     s.Bonded.String(),
		TotalStake: s.TotalStake.String(),
		Paused:     s.Paused,
	}
}

// MemberView is one ledger entry.
type MemberView struct {
	Member collective.Address `json:"member"`
	Stake  string             `json:"stake"`
}

// DepositRequest is the body of a deposit.
type DepositRequest struct {
	Caller collective.Address `json:"caller"`
	Amount string             `json:"amount"`
}

// WithdrawRequest is the body of a withdrawal.
type WithdrawRequest struct {
	Caller      collective.Address `json:"caller"`
	Destination collective.Address `json:"destination"`
}

// WithdrawResponse carries the paid out share.
type WithdrawResponse struct {
	Amount string `json:"amount"`
}

// CallerRequest is the body of operations that only identify the caller.
type CallerRequest struct {
	Caller collective.Address `json:"caller"`
}

// TargetRequest is the body of a target change.
type TargetRequest struct {
	Caller collective.Address `json:"caller"`
	Target collective.Address `json:"target"`
}

// EmergencyRequest is the body of an emergency withdrawal.
type EmergencyRequest struct {
	Caller      collective.Address `json:"caller"`
	Destination collective.Address `json:"destination"`
	Amount      string             `json:"amount"`
}

// GrantRequest is the body of a role grant.
type GrantRequest struct {
	Caller  collective.Address `json:"caller"`
	Account collective.Address `json:"account"`
	Role    string             `json:"role"`
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return amount, nil
}
