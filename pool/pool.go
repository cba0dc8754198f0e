// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pool implements the pooled staking fund: the lifecycle state
// machine gating every fund-moving operation, the proportional-share
// accounting, and the interaction protocol with the external staking
// service.
//
// Every public operation is serialized by one mutex per Pool instance and is
// all-or-nothing: it runs against a state checkpoint and either commits as a
// single batch or reverts with no partial effect. A failed staking-service
// call aborts the enclosing operation; nothing is retried automatically.
package pool

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/gov"
	"github.com/collectivefund/collective/log"
	"github.com/collectivefund/collective/metrics"
	"github.com/collectivefund/collective/pool/ledger"
	"github.com/collectivefund/collective/pool/reject"
	"github.com/collectivefund/collective/roles"
	"github.com/collectivefund/collective/staking"
	"github.com/collectivefund/collective/state"
)

var (
	logger = log.WithContext("pkg", "pool")

	metricDeposits    = metrics.Counter("pool_deposit_count")
	metricWithdrawals = metrics.Counter("pool_withdrawal_count")
	metricRejections  = metrics.CounterVec("pool_rejection_count", []string{"kind"})
	metricStatus      = metrics.Gauge("pool_lifecycle_status")
	metricReserve     = metrics.Gauge("pool_reserve_amount")
	metricBonded      = metrics.Gauge("pool_bonded_amount")
)

// Sender is the fund transfer primitive used to release funds to an
// account. It must fail loudly; a partial transfer is never reported as
// success.
type Sender interface {
	Send(to collective.Address, amount *big.Int) error
}

// EventRecorder receives the observable events of the pool, after the state
// mutation of the corresponding operation has committed.
type EventRecorder interface {
	RecordDeposit(member collective.Address, amount *big.Int) error
	RecordWithdrawal(member, destination collective.Address, amount *big.Int) error
}

// Config carries the pool's genesis parameters. Target, Admins and Members
// are applied only when the backing store holds no pool record yet.
type Config struct {
	// Self is the account under which the pool delegates.
	Self collective.Address
	// Target is the initial delegation target.
	Target collective.Address
	// ActivationThreshold is the minimum total stake that triggers bonding.
	ActivationThreshold *big.Int

	Admins  []collective.Address
	Members []collective.Address
}

// Pool is one pooled staking fund instance.
type Pool struct {
	mu sync.Mutex

	self      collective.Address
	threshold *big.Int

	state   *state.State
	ledger  *ledger.Service
	gov     *gov.Service
	roles   *roles.Service
	staking staking.Service
	sender  Sender
	events  EventRecorder

	// emissions queued by the running operation, flushed after commit
	pendingEvents []func()
}

// New creates a pool over the given state, initializing the persisted
// record from cfg on first use. events may be nil.
func New(cfg Config, st *state.State, stakingSvc staking.Service, sender Sender, events EventRecorder) (*Pool, error) {
	if cfg.ActivationThreshold == nil || cfg.ActivationThreshold.Sign() <= 0 {
		return nil, fmt.Errorf("pool: activation threshold must be positive")
	}

	p := &Pool{
		self:      cfg.Self,
		threshold: new(big.Int).Set(cfg.ActivationThreshold),
		state:     st,
		ledger:    ledger.New(st),
		gov:       gov.New(st),
		roles:     roles.New(st),
		staking:   stakingSvc,
		sender:    sender,
		events:    events,
	}

	var b body
	if err := st.DecodeStorage(keyPoolBody, &b); err != nil {
		return nil, err
	}
	if b.Status == 0 {
		if err := p.saveBody(&body{
			Status:  StatusCollecting,
			Target:  cfg.Target,
			Reserve: new(big.Int),
			Bonded:  new(big.Int),
		}); err != nil {
			return nil, err
		}
		for _, admin := range cfg.Admins {
			if err := p.roles.Grant(roles.Admin, admin); err != nil {
				return nil, err
			}
		}
		for _, member := range cfg.Members {
			if err := p.roles.Grant(roles.Member, member); err != nil {
				return nil, err
			}
		}
		if err := st.Commit(); err != nil {
			return nil, err
		}
		logger.Info("pool initialized",
			"target", cfg.Target, "threshold", cfg.ActivationThreshold,
			"admins", len(cfg.Admins), "members", len(cfg.Members))
	}
	p.publishGauges()
	return p, nil
}

// run serializes op, runs it against a checkpoint, and commits on success.
// Any error reverts every staged write. Consistency-fatal errors are raised
// as operator-visible alarms.
func (p *Pool) run(name string, op func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chk := p.state.NewCheckpoint()
	p.pendingEvents = nil
	if err := op(); err != nil {
		p.state.RevertTo(chk)
		p.pendingEvents = nil
		var rej *reject.Error
		if errors.As(err, &rej) {
			metricRejections.AddWithLabel(1, map[string]string{"kind": rej.Kind().String()})
		}
		if reject.IsFatal(err) {
			logger.Error("FATAL: local lifecycle state contradicts staking service", "op", name, "err", err)
		} else {
			logger.Debug("operation refused", "op", name, "err", err)
		}
		return err
	}
	if err := p.state.Commit(); err != nil {
		return err
	}
	for _, emit := range p.pendingEvents {
		emit()
	}
	p.pendingEvents = nil
	p.publishGauges()
	return nil
}

func (p *Pool) requireRole(role roles.Role, account collective.Address) error {
	has, err := p.roles.Has(role, account)
	if err != nil {
		return err
	}
	if !has {
		return reject.Permission(fmt.Sprintf("%s is not %s", account, role))
	}
	return nil
}

func (p *Pool) requireRunning(b *body) error {
	if b.Paused {
		return reject.Paused("pool is paused")
	}
	return nil
}

// Deposit records the member's contribution and, depending on the lifecycle
// state, forwards funds to the staking service. Reaching the activation
// threshold inside a deposit bonds the full reserve and moves the pool to
// STAKING.
func (p *Pool) Deposit(member collective.Address, amount *big.Int) error {
	return p.run("deposit", func() error {
		if err := p.requireRole(roles.Member, member); err != nil {
			return err
		}
		b, err := p.loadBody()
		if err != nil {
			return err
		}
		if err := p.requireRunning(b); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return reject.State("deposit amount must be positive")
		}

		switch b.Status {
		case StatusCollecting:
			if err := p.ledger.Deposit(member, amount); err != nil {
				return err
			}
			b.Reserve = new(big.Int).Add(b.Reserve, amount)

			total, err := p.ledger.TotalStake()
			if err != nil {
				return err
			}
			if total.Cmp(p.threshold) >= 0 {
				if err := p.bondReserve(b); err != nil {
					return err
				}
			}
			if err := p.saveBody(b); err != nil {
				return err
			}

		case StatusStaking:
			delegating, err := p.staking.IsDelegator(p.self)
			if err != nil {
				return err
			}
			if !delegating {
				return reject.Consistency("pool is STAKING but the staking service reports no delegation")
			}
			if err := p.staking.DelegatorBondMore(b.Target, amount); err != nil {
				return err
			}
			if err := p.ledger.Deposit(member, amount); err != nil {
				return err
			}
			b.Bonded = new(big.Int).Add(b.Bonded, amount)
			if err := p.saveBody(b); err != nil {
				return err
			}

		default:
			return reject.State(fmt.Sprintf("deposits are closed while %s", StatusName(b.Status)))
		}

		p.emitDeposit(member, amount)
		return nil
	})
}

// bondReserve issues the one-time bonding call for the full reserve,
// passing the service's delegation-count hints required by its
// concurrency-safe bonding protocol.
func (p *Pool) bondReserve(b *body) error {
	candidateCount, err := p.staking.CandidateDelegationCount(b.Target)
	if err != nil {
		return err
	}
	ownCount, err := p.staking.DelegatorDelegationCount(p.self)
	if err != nil {
		return err
	}
	if err := p.staking.Delegate(b.Target, b.Reserve, candidateCount, ownCount); err != nil {
		return err
	}

	b.Bonded = new(big.Int).Add(b.Bonded, b.Reserve)
	b.Reserve = new(big.Int)
	b.Status = StatusStaking
	logger.Info("activation threshold reached, reserve bonded",
		"target", b.Target, "bonded", b.Bonded)
	return nil
}

// Withdraw fully exits the member: it pays out
// floor(balance * memberStake / totalStake) to destination, zeroes the
// member's ledger entry and decreases the total. While REVOKING it first
// attempts to finalize the scheduled revoke; if the unbonding delay has not
// elapsed the withdrawal fails and the state stays REVOKING.
func (p *Pool) Withdraw(member, destination collective.Address) (*big.Int, error) {
	var share *big.Int
	err := p.run("withdraw", func() error {
		if err := p.requireRole(roles.Member, member); err != nil {
			return err
		}
		b, err := p.loadBody()
		if err != nil {
			return err
		}
		if err := p.requireRunning(b); err != nil {
			return err
		}

		switch b.Status {
		case StatusStaking:
			return reject.State("pool funds are bonded, schedule a revoke first")

		case StatusRevoking:
			if err := p.finalizeRevoke(b); err != nil {
				return err
			}

		case StatusCollecting, StatusRevoked:
			delegating, err := p.staking.IsDelegator(p.self)
			if err != nil {
				return err
			}
			if delegating {
				return reject.Consistency(fmt.Sprintf(
					"pool is %s but the staking service reports an active delegation", StatusName(b.Status)))
			}
		}

		balance := new(big.Int).Add(b.Reserve, b.Bonded)
		share, err = p.ledger.Share(member, balance)
		if err != nil {
			return err
		}
		if b.Reserve.Cmp(share) < 0 {
			return reject.Insufficiency(fmt.Sprintf(
				"share %v exceeds free balance %v", share, b.Reserve))
		}

		if _, err := p.ledger.Exit(member); err != nil {
			return err
		}
		b.Reserve = new(big.Int).Sub(b.Reserve, share)
		if err := p.saveBody(b); err != nil {
			return err
		}
		if err := p.sender.Send(destination, share); err != nil {
			return err
		}

		p.emitWithdrawal(member, destination, share)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// finalizeRevoke performs the lazy REVOKING -> REVOKED transition. The
// execute call is valid before the delay elapses but has no effect; the
// transition happens only once the service stops reporting a delegation.
// Idempotent on the external side: if the service already dropped the
// delegation (a previous attempt executed the unbond but the enclosing
// operation reverted locally), the execute call is skipped.
func (p *Pool) finalizeRevoke(b *body) error {
	delegating, err := p.staking.IsDelegator(p.self)
	if err != nil {
		return err
	}
	if delegating {
		if err := p.staking.ExecuteDelegationRequest(p.self, b.Target); err != nil {
			return err
		}
		if delegating, err = p.staking.IsDelegator(p.self); err != nil {
			return err
		}
		if delegating {
			return reject.State("unbonding delay has not elapsed")
		}
	}
	b.Status = StatusRevoked
	b.Reserve = new(big.Int).Add(b.Reserve, b.Bonded)
	b.Bonded = new(big.Int)
	logger.Info("unbonding finalized, funds released", "reserve", b.Reserve)
	return nil
}

// ScheduleRevoke starts unbonding the pool's delegation. Admin only; fails
// unless the pool is STAKING.
func (p *Pool) ScheduleRevoke(caller collective.Address) error {
	return p.run("schedule-revoke", func() error {
		if err := p.requireRole(roles.Admin, caller); err != nil {
			return err
		}
		b, err := p.loadBody()
		if err != nil {
			return err
		}
		if b.Status != StatusStaking {
			return reject.State(fmt.Sprintf("cannot revoke while %s", StatusName(b.Status)))
		}
		if err := p.staking.ScheduleRevokeDelegation(b.Target); err != nil {
			return err
		}
		b.Status = StatusRevoking
		if err := p.saveBody(b); err != nil {
			return err
		}
		logger.Info("revoke scheduled", "target", b.Target, "caller", caller)
		return nil
	})
}

// Reset returns the pool to COLLECTING. Admin only; permitted from
// COLLECTING or REVOKED and idempotent, the ledger is untouched.
func (p *Pool) Reset(caller collective.Address) error {
	return p.run("reset", func() error {
		if err := p.requireRole(roles.Admin, caller); err != nil {
			return err
		}
		b, err := p.loadBody()
		if err != nil {
			return err
		}
		if b.Status != StatusCollecting && b.Status != StatusRevoked {
			return reject.State(fmt.Sprintf("cannot reset while %s", StatusName(b.Status)))
		}
		b.Status = StatusCollecting
		return p.saveBody(b)
	})
}

// ChangeTarget reassigns the delegation target directly. Admin only;
// permitted only while no funds are bonded (COLLECTING or REVOKED).
func (p *Pool) ChangeTarget(caller, target collective.Address) error {
	return p.run("change-target", func() error {
		if err := p.requireRole(roles.Admin, caller); err != nil {
			return err
		}
		b, err := p.loadBody()
		if err != nil {
			return err
		}
		if err := p.applyTarget(b, target); err != nil {
			return err
		}
		logger.Info("delegation target changed", "target", target, "caller", caller)
		return nil
	})
}

func (p *Pool) applyTarget(b *body, target collective.Address) error {
	if b.Status != StatusCollecting && b.Status != StatusRevoked {
		return reject.State(fmt.Sprintf("cannot change target while %s", StatusName(b.Status)))
	}
	b.Target = target
	return p.saveBody(b)
}

// EmergencyWithdraw moves up to the free reserve out of the pool without
// touching the ledger. Admin only; allowed even while paused.
func (p *Pool) EmergencyWithdraw(caller, destination collective.Address, amount *big.Int) error {
	return p.run("emergency-withdraw", func() error {
		if err := p.requireRole(roles.Admin, caller); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return reject.State("emergency amount must be positive")
		}
		b, err := p.loadBody()
		if err != nil {
			return err
		}
		if b.Reserve.Cmp(amount) < 0 {
			return reject.Insufficiency(fmt.Sprintf(
				"emergency amount %v exceeds free balance %v", amount, b.Reserve))
		}
		b.Reserve = new(big.Int).Sub(b.Reserve, amount)
		if err := p.saveBody(b); err != nil {
			return err
		}
		if err := p.sender.Send(destination, amount); err != nil {
			return err
		}
		logger.Warn("emergency withdrawal", "destination", destination, "amount", amount, "caller", caller)
		return nil
	})
}

// Pause stops deposits, withdrawals and governance execution. Admin only.
func (p *Pool) Pause(caller collective.Address) error {
	return p.setPaused(caller, true)
}

// Resume lifts a pause. Admin only.
func (p *Pool) Resume(caller collective.Address) error {
	return p.setPaused(caller, false)
}

func (p *Pool) setPaused(caller collective.Address, paused bool) error {
	return p.run("set-paused", func() error {
		if err := p.requireRole(roles.Admin, caller); err != nil {
			return err
		}
		b, err := p.loadBody()
		if err != nil {
			return err
		}
		b.Paused = paused
		if err := p.saveBody(b); err != nil {
			return err
		}
		logger.Warn("pause toggled", "paused", paused, "caller", caller)
		return nil
	})
}

// AddMember grants the member role. Admin only.
func (p *Pool) AddMember(caller, account collective.Address) error {
	return p.grantRole(caller, roles.Member, account)
}

// AddAdmin grants the admin role. Admin only.
func (p *Pool) AddAdmin(caller, account collective.Address) error {
	return p.grantRole(caller, roles.Admin, account)
}

func (p *Pool) grantRole(caller collective.Address, role roles.Role, account collective.Address) error {
	return p.run("grant-role", func() error {
		if err := p.requireRole(roles.Admin, caller); err != nil {
			return err
		}
		return p.roles.Grant(role, account)
	})
}

// CreateProposal appends a target-change proposal. Member only.
func (p *Pool) CreateProposal(proposer, target collective.Address) (uint64, error) {
	var id uint64
	err := p.run("create-proposal", func() error {
		if err := p.requireRole(roles.Member, proposer); err != nil {
			return err
		}
		var err error
		id, err = p.gov.Create(target)
		return err
	})
	return id, err
}

// VoteProposal adds the voter's tally to a proposal. Member only; one vote
// per voter per proposal.
func (p *Pool) VoteProposal(voter collective.Address, id uint64, support bool) error {
	return p.run("vote-proposal", func() error {
		if err := p.requireRole(roles.Member, voter); err != nil {
			return err
		}
		return p.gov.Vote(voter, id, support)
	})
}

// ExecuteProposal applies a passed proposal's target to the pool. Admin
// only; requires a strict majority and, like ChangeTarget, is permitted
// only while no funds are bonded.
func (p *Pool) ExecuteProposal(caller collective.Address, id uint64) error {
	return p.run("execute-proposal", func() error {
		if err := p.requireRole(roles.Admin, caller); err != nil {
			return err
		}
		b, err := p.loadBody()
		if err != nil {
			return err
		}
		if err := p.requireRunning(b); err != nil {
			return err
		}
		target, err := p.gov.Tally(id)
		if err != nil {
			return err
		}
		if err := p.applyTarget(b, *target); err != nil {
			return err
		}
		logger.Info("proposal executed", "id", id, "target", target, "caller", caller)
		return nil
	})
}

func (p *Pool) emitDeposit(member collective.Address, amount *big.Int) {
	// queue against commit: events are recorded by run only after Commit
	p.pendingEvents = append(p.pendingEvents, func() {
		if p.events != nil {
			if err := p.events.RecordDeposit(member, amount); err != nil {
				logger.Error("failed to record deposit event", "err", err)
			}
		}
		metricDeposits.Add(1)
		logger.Info("deposit accepted", "member", member, "amount", amount)
	})
}

func (p *Pool) emitWithdrawal(member, destination collective.Address, amount *big.Int) {
	p.pendingEvents = append(p.pendingEvents, func() {
		if p.events != nil {
			if err := p.events.RecordWithdrawal(member, destination, amount); err != nil {
				logger.Error("failed to record withdrawal event", "err", err)
			}
		}
		metricWithdrawals.Add(1)
		logger.Info("withdrawal paid", "member", member, "destination", destination, "amount", amount)
	})
}

func (p *Pool) publishGauges() {
	b, err := p.loadBody()
	if err != nil {
		return
	}
	metricStatus.Set(int64(b.Status))
	metricReserve.Set(gaugeValue(b.Reserve))
	metricBonded.Set(gaugeValue(b.Bonded))
}

// gaugeValue clamps an amount into the int64 range the gauge accepts.
func gaugeValue(amount *big.Int) int64 {
	if !amount.IsInt64() {
		return math.MaxInt64
	}
	return amount.Int64()
}
