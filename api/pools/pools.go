// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pools exposes the pool operations over REST.
package pools

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/collectivefund/collective/api/restutil"
	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/pool"
	"github.com/collectivefund/collective/roles"
)

type Pools struct {
	pool *pool.Pool
}

func New(p *pool.Pool) *Pools {
	return &Pools{pool: p}
}

func (ps *Pools) handleGetPool(w http.ResponseWriter, _ *http.Request) error {
	snap, err := ps.pool.Snapshot()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, convertSnapshot(snap))
}

func (ps *Pools) handleDeposit(w http.ResponseWriter, r *http.Request) error {
	var req DepositRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "amount"))
	}
	if err := ps.pool.Deposit(req.Caller, amount); err != nil {
		return restutil.RejectionError(err)
	}
	return ps.handleGetPool(w, r)
}

func (ps *Pools) handleWithdraw(w http.ResponseWriter, r *http.Request) error {
	var req WithdrawRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	share, err := ps.pool.Withdraw(req.Caller, req.Destination)
	if err != nil {
		return restutil.RejectionError(err)
	}
	return restutil.WriteJSON(w, &WithdrawResponse{Amount: share.String()})
}

func (ps *Pools) handleScheduleRevoke(w http.ResponseWriter, r *http.Request) error {
	var req CallerRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := ps.pool.ScheduleRevoke(req.Caller); err != nil {
		return restutil.RejectionError(err)
	}
	return ps.handleGetPool(w, r)
}

func (ps *Pools) handleReset(w http.ResponseWriter, r *http.Request) error {
	var req CallerRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := ps.pool.Reset(req.Caller); err != nil {
		return restutil.RejectionError(err)
	}
	return ps.handleGetPool(w, r)
}

func (ps *Pools) handleChangeTarget(w http.ResponseWriter, r *http.Request) error {
	var req TargetRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := ps.pool.ChangeTarget(req.Caller, req.Target); err != nil {
		return restutil.RejectionError(err)
	}
	return ps.handleGetPool(w, r)
}

func (ps *Pools) handlePause(w http.ResponseWriter, r *http.Request) error {
	var req CallerRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := ps.pool.Pause(req.Caller); err != nil {
		return restutil.RejectionError(err)
	}
	return ps.handleGetPool(w, r)
}

func (ps *Pools) handleResume(w http.ResponseWriter, r *http.Request) error {
	var req CallerRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := ps.pool.Resume(req.Caller); err != nil {
		return restutil.RejectionError(err)
	}
	return ps.handleGetPool(w, r)
}

func (ps *Pools) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request) error {
	var req EmergencyRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "amount"))
	}
	if err := ps.pool.EmergencyWithdraw(req.Caller, req.Destination, amount); err != nil {
		return restutil.RejectionError(err)
	}
	return ps.handleGetPool(w, r)
}

func (ps *Pools) handleGetMembers(w http.ResponseWriter, _ *http.Request) error {
	entries, err := ps.pool.Members()
	if err != nil {
		return err
	}
	views := make([]*MemberView, 0, len(entries))
	for _, e := range entries {
		views = append(views, &MemberView{Member: e.Member, Stake: e.Stake.String()})
	}
	return restutil.WriteJSON(w, views)
}

func (ps *Pools) handleGetMember(w http.ResponseWriter, r *http.Request) error {
	addr, err := collective.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	stake, err := ps.pool.MemberStake(*addr)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &MemberView{Member: *addr, Stake: stake.String()})
}

func (ps *Pools) handleGrantRole(w http.ResponseWriter, r *http.Request) error {
	var req GrantRequest
	if err := restutil.ParseJSON(r, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	var err error
	switch req.Role {
	case "admin":
		err = ps.pool.AddAdmin(req.Caller, req.Account)
	case "member":
		err = ps.pool.AddMember(req.Caller, req.Account)
	default:
		return restutil.BadRequest(errors.Errorf("unknown role %q", req.Role))
	}
	if err != nil {
		return restutil.RejectionError(err)
	}
	has, err := ps.pool.HasRole(roleOf(req.Role), req.Account)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, map[string]bool{"granted": has})
}

func roleOf(name string) roles.Role {
	if name == "admin" {
		return roles.Admin
	}
	return roles.Member
}

func (ps *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pool").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleGetPool))
	sub.Path("/deposits").
		Methods(http.MethodPost).
		Name("POST /pool/deposits").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleDeposit))
	sub.Path("/withdrawals").
		Methods(http.MethodPost).
		Name("POST /pool/withdrawals").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleWithdraw))
	sub.Path("/revocation").
		Methods(http.MethodPost).
		Name("POST /pool/revocation").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleScheduleRevoke))
	sub.Path("/reset").
		Methods(http.MethodPost).
		Name("POST /pool/reset").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleReset))
	sub.Path("/target").
		Methods(http.MethodPost).
		Name("POST /pool/target").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleChangeTarget))
	sub.Path("/pause").
		Methods(http.MethodPost).
		Name("POST /pool/pause").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handlePause))
	sub.Path("/resume").
		Methods(http.MethodPost).
		Name("POST /pool/resume").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleResume))
	sub.Path("/emergency").
		Methods(http.MethodPost).
		Name("POST /pool/emergency").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleEmergencyWithdraw))
	sub.Path("/members").
		Methods(http.MethodGet).
		Name("GET /pool/members").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleGetMembers))
	sub.Path("/members").
		Methods(http.MethodPost).
		Name("POST /pool/members").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleGrantRole))
	sub.Path("/members/{address}").
		Methods(http.MethodGet).
		Name("GET /pool/members/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(ps.handleGetMember))
}
