// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gov implements the proposal sequence that votes on moving the
// pool's delegation target. Proposals are append-only and index-keyed;
// tallies are the only mutable part. Execution requires a strict majority,
// ties fail.
//
// Unlike the tallies-only scheme this module descends from, a voter may
// cast at most one vote per proposal; the per-voter guard is persisted
// alongside the proposal.
package gov

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/pool/reject"
	"github.com/collectivefund/collective/state"
)

var keyProposalCount = []byte("gov:count")

// Proposal is one target-change proposal with its running tallies.
type Proposal struct {
	ProposedTarget collective.Address
	VotesFor       uint64
	VotesAgainst   uint64
}

// Encode implements state.StorageEncoder.
func (p *Proposal) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(p)
}

// Decode implements state.StorageDecoder.
func (p *Proposal) Decode(data []byte) error {
	if len(data) == 0 {
		*p = Proposal{}
		return nil
	}
	return rlp.DecodeBytes(data, p)
}

type counter struct {
	value uint64
}

func (c *counter) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(c.value)
}

func (c *counter) Decode(data []byte) error {
	if len(data) == 0 {
		c.value = 0
		return nil
	}
	return rlp.DecodeBytes(data, &c.value)
}

type voteMark struct {
	cast bool
}

func (v *voteMark) Encode() ([]byte, error) {
	if !v.cast {
		return nil, nil
	}
	return rlp.EncodeToBytes(true)
}

func (v *voteMark) Decode(data []byte) error {
	v.cast = len(data) > 0
	return nil
}

// Service owns the proposal sequence of one pool.
type Service struct {
	state *state.State
}

// New creates a governance service over the given state.
func New(st *state.State) *Service {
	return &Service{state: st}
}

func proposalKey(id uint64) []byte {
	key := []byte("gov:proposal:")
	return binary.BigEndian.AppendUint64(key, id)
}

func voteKey(id uint64, voter collective.Address) []byte {
	key := []byte("gov:voted:")
	key = binary.BigEndian.AppendUint64(key, id)
	return append(key, voter.Bytes()...)
}

// Count returns the number of proposals created so far.
func (s *Service) Count() (uint64, error) {
	var c counter
	if err := s.state.DecodeStorage(keyProposalCount, &c); err != nil {
		return 0, errors.Wrap(err, "get proposal count")
	}
	return c.value, nil
}

// Get returns the proposal at the given index.
func (s *Service) Get(id uint64) (*Proposal, error) {
	count, err := s.Count()
	if err != nil {
		return nil, err
	}
	if id >= count {
		return nil, reject.NotFound(fmt.Sprintf("no proposal at index %d", id))
	}
	var p Proposal
	if err := s.state.DecodeStorage(proposalKey(id), &p); err != nil {
		return nil, errors.Wrap(err, "get proposal")
	}
	return &p, nil
}

// Create appends a new proposal with zero tallies and returns its index.
// There is no deduplication; any number of proposals may exist.
func (s *Service) Create(target collective.Address) (uint64, error) {
	id, err := s.Count()
	if err != nil {
		return 0, err
	}
	if err := s.state.EncodeStorage(proposalKey(id), &Proposal{ProposedTarget: target}); err != nil {
		return 0, errors.Wrap(err, "set proposal")
	}
	if err := s.state.EncodeStorage(keyProposalCount, &counter{id + 1}); err != nil {
		return 0, errors.Wrap(err, "set proposal count")
	}
	return id, nil
}

// Vote adds the voter's tally to the proposal at the given index. A voter
// may vote at most once per proposal.
func (s *Service) Vote(voter collective.Address, id uint64, support bool) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}

	var mark voteMark
	if err := s.state.DecodeStorage(voteKey(id, voter), &mark); err != nil {
		return errors.Wrap(err, "get vote mark")
	}
	if mark.cast {
		return reject.State(fmt.Sprintf("%s already voted on proposal %d", voter, id))
	}

	if support {
		p.VotesFor++
	} else {
		p.VotesAgainst++
	}
	if err := s.state.EncodeStorage(proposalKey(id), p); err != nil {
		return errors.Wrap(err, "set proposal")
	}
	if err := s.state.EncodeStorage(voteKey(id, voter), &voteMark{cast: true}); err != nil {
		return errors.Wrap(err, "set vote mark")
	}
	return nil
}

// Tally checks the proposal at the given index for a strict majority and
// returns its proposed target. There is no re-execution guard beyond the
// caller's choice of index.
func (s *Service) Tally(id uint64) (*collective.Address, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if p.VotesFor <= p.VotesAgainst {
		return nil, reject.State(fmt.Sprintf(
			"proposal %d lacks strict majority: %d for, %d against", id, p.VotesFor, p.VotesAgainst))
	}
	target := p.ProposedTarget
	return &target, nil
}
