// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package proposals exposes governance over REST.
package proposals

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/collectivefund/collective/api/restutil"
	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/pool"
)

// ProposalView is the JSON shape of one proposal.
type ProposalView struct {
	ID             uint64             `json:"id"`
	ProposedTarget collective.Address `json:"proposedTarget"`
	VotesFor       uint64             `json:"votesFor"`
	VotesAgainst   uint64             `json:"votesAgainst"`
}

// CreateRequest is the body of a proposal creation.
type CreateRequest struct {
	Proposer collective.Address `json:"proposer"`
	Target   collective.Address `json:"target"`
}

// VoteRequest is the body of a vote.
type VoteRequest struct {
	Voter   collective.Address `json:"voter"`
	Support bool               `json:"support"`
}

// ExecuteRequest is the body of a proposal execution.
type ExecuteRequest struct {
	Caller collective.Address `json:"caller"`
}

type Proposals struct {
	pool *pool.Pool
}

func New(p *pool.Pool) *Proposals {
	return &Proposals{pool: p}
}

func (ps *Proposals) parseID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func (ps *Proposals) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req CreateRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	id, err := ps.pool.CreateProposal(req.Proposer, req.Target)
	if err != nil {
		return restutil.RejectionError(err)
	}
	return restutil.WriteJSON(w, map[string]uint64{"id": id})
}

func (ps *Proposals) handleGet(w http.ResponseWriter, r *http.Request) error {
	id, err := ps.parseID(r)
	if err != nil {
		return err
	}
	proposal, err := ps.pool.Proposal(id)
	if err != nil {
		return restutil.RejectionError(err)
	}
	return restutil.WriteJSON(w, &ProposalView{
		ID:             id,
		ProposedTarget: proposal.ProposedTarget,
		VotesFor:       proposal.VotesFor,
		VotesAgainst:   proposal.VotesAgainst,
	})
}

func (ps *Proposals) handleCount(w http.ResponseWriter, _ *http.Request) error {
	count, err := ps.pool.ProposalCount()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, map[string]uint64{"count": count})
}

func (ps *Proposals) handleVote(w http.ResponseWriter, r *http.Request) error {
	id, err := ps.parseID(r)
	if err != nil {
		return err
	}
	var req VoteRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := ps.pool.VoteProposal(req.Voter, id, req.Support); err != nil {
		return restutil.RejectionError(err)
	}
	return ps.handleGet(w, r)
}

func (ps *Proposals) handleExecute(w http.ResponseWriter, r *http.Request) error {
	id, err := ps.parseID(r)
	if err != nil {
		return err
	}
	var req ExecuteRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := ps.pool.ExecuteProposal(req.Caller, id); err != nil {
		return restutil.RejectionError(err)
	}
	return ps.handleGet(w, r)
}

func (ps *Proposals) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /proposals").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleCount))
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /proposals").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleCreate))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /proposals/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleGet))
	sub.Path("/{id}/votes").
		Methods(http.MethodPost).
		Name("POST /proposals/{id}/votes").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleVote))
	sub.Path("/{id}/execution").
		Methods(http.MethodPost).
		Name("POST /proposals/{id}/execution").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleExecute))
}
