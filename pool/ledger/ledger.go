// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger tracks per-member contributed stake and the aggregate
// total. It is the arithmetic source of truth for proportional withdrawal.
// The invariant sum(member stakes) == total holds at every commit point.
package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/pool/reject"
	"github.com/collectivefund/collective/state"
)

var (
	keyTotalStake   = []byte("ledger:total")
	keyMemberPrefix = []byte("ledger:member:")
)

// Entry is one member's recorded contribution.
type Entry struct {
	Member collective.Address
	Stake  *big.Int
}

// Service owns the stake records of one pool.
type Service struct {
	state *state.State
}

// New creates a ledger service over the given state.
func New(st *state.State) *Service {
	return &Service{state: st}
}

func memberKey(member collective.Address) []byte {
	return append(append([]byte(nil), keyMemberPrefix...), member.Bytes()...)
}

// amount is the storage codec for a non-negative integer amount.
// A zeroed entry still encodes to one byte, so a fully withdrawn member
// stays present and its record is reused on re-deposit.
type amount struct {
	value *big.Int
}

func (a *amount) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(a.value)
}

func (a *amount) Decode(data []byte) error {
	if len(data) == 0 {
		a.value = nil
		return nil
	}
	a.value = new(big.Int)
	return rlp.DecodeBytes(data, a.value)
}

// Stake returns the member's recorded stake, zero if the member never
// deposited.
func (s *Service) Stake(member collective.Address) (*big.Int, error) {
	var a amount
	if err := s.state.DecodeStorage(memberKey(member), &a); err != nil {
		return nil, errors.Wrap(err, "get member stake")
	}
	if a.value == nil {
		return new(big.Int), nil
	}
	return a.value, nil
}

// TotalStake returns the aggregate recorded stake.
func (s *Service) TotalStake() (*big.Int, error) {
	var a amount
	if err := s.state.DecodeStorage(keyTotalStake, &a); err != nil {
		return nil, errors.Wrap(err, "get total stake")
	}
	if a.value == nil {
		return new(big.Int), nil
	}
	return a.value, nil
}

// Deposit increases the member stake and the total by amount. Pure
// addition, no rounding.
func (s *Service) Deposit(member collective.Address, value *big.Int) error {
	if value == nil || value.Sign() <= 0 {
		return reject.State("deposit amount must be positive")
	}
	stake, err := s.Stake(member)
	if err != nil {
		return err
	}
	total, err := s.TotalStake()
	if err != nil {
		return err
	}

	if err := s.state.EncodeStorage(memberKey(member), &amount{new(big.Int).Add(stake, value)}); err != nil {
		return errors.Wrap(err, "set member stake")
	}
	if err := s.state.EncodeStorage(keyTotalStake, &amount{new(big.Int).Add(total, value)}); err != nil {
		return errors.Wrap(err, "set total stake")
	}
	return nil
}

// Share returns floor(poolBalance * memberStake / totalStake).
func (s *Service) Share(member collective.Address, poolBalance *big.Int) (*big.Int, error) {
	total, err := s.TotalStake()
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 {
		return nil, reject.Arithmetic("share computation against empty pool")
	}
	stake, err := s.Stake(member)
	if err != nil {
		return nil, err
	}
	share := new(big.Int).Mul(poolBalance, stake)
	return share.Quo(share, total), nil
}

// Exit zeroes the member's entry and decreases the total by the member's
// full stake. The prior stake is returned. No partial exit is supported.
func (s *Service) Exit(member collective.Address) (*big.Int, error) {
	stake, err := s.Stake(member)
	if err != nil {
		return nil, err
	}
	total, err := s.TotalStake()
	if err != nil {
		return nil, err
	}
	if total.Cmp(stake) < 0 {
		return nil, errors.Errorf("ledger corrupted: member stake %v exceeds total %v", stake, total)
	}

	if err := s.state.EncodeStorage(memberKey(member), &amount{new(big.Int)}); err != nil {
		return nil, errors.Wrap(err, "zero member stake")
	}
	if err := s.state.EncodeStorage(keyTotalStake, &amount{new(big.Int).Sub(total, stake)}); err != nil {
		return nil, errors.Wrap(err, "set total stake")
	}
	return stake, nil
}

// Members lists all committed member entries, zeroed ones included.
func (s *Service) Members() ([]Entry, error) {
	var entries []Entry
	err := s.state.Iterate(keyMemberPrefix, func(key, value []byte) error {
		if len(key) != len(keyMemberPrefix)+collective.AddressLength {
			return fmt.Errorf("ledger: malformed member key %x", key)
		}
		var a amount
		if err := a.Decode(value); err != nil {
			return err
		}
		entries = append(entries, Entry{
			Member: collective.BytesToAddress(key[len(keyMemberPrefix):]),
			Stake:  a.value,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list members")
	}
	return entries, nil
}
