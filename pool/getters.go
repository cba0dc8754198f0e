// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/gov"
	"github.com/collectivefund/collective/pool/ledger"
	"github.com/collectivefund/collective/roles"
)

// Snapshot is a read-only view of the pool record and ledger total.
type Snapshot struct {
	Status     Status
	Target     collective.Address
	Reserve    *big.Int
	Bonded     *big.Int
	TotalStake *big.Int
	Paused     bool
}

// Snapshot returns the current pool view.
func (p *Pool) Snapshot() (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := p.loadBody()
	if err != nil {
		return nil, err
	}
	total, err := p.ledger.TotalStake()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Status:     b.Status,
		Target:     b.Target,
		Reserve:    b.Reserve,
		Bonded:     b.Bonded,
		TotalStake: total,
		Paused:     b.Paused,
	}, nil
}

// MemberStake returns the member's recorded contribution.
func (p *Pool) MemberStake(member collective.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.Stake(member)
}

// Members lists all ledger entries, zeroed ones included.
func (p *Pool) Members() ([]ledger.Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.Members()
}

// Proposal returns the proposal at the given index.
func (p *Pool) Proposal(id uint64) (*gov.Proposal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gov.Get(id)
}

// ProposalCount returns the number of proposals created so far.
func (p *Pool) ProposalCount() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gov.Count()
}

// HasRole reports whether the account holds the given role.
func (p *Pool) HasRole(role roles.Role, account collective.Address) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roles.Has(role, account)
}
