// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package roles persists the pool's membership sets. Admin covers
// governance execution, pausing, membership grants and emergency fund
// movement; Member covers deposits, withdrawals, proposing and voting.
package roles

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/state"
)

// Role names a capability set.
type Role uint8

const (
	Admin Role = iota + 1
	Member
)

func (r Role) String() string {
	switch r {
	case Admin:
		return "admin"
	case Member:
		return "member"
	default:
		return "unknown"
	}
}

// Service owns the role sets of one pool.
type Service struct {
	state *state.State
}

// New creates a roles service over the given state.
func New(st *state.State) *Service {
	return &Service{state: st}
}

func roleKey(role Role, account collective.Address) []byte {
	return append(fmt.Appendf(nil, "roles:%d:", role), account.Bytes()...)
}

func rolePrefix(role Role) []byte {
	return fmt.Appendf(nil, "roles:%d:", role)
}

type membership struct {
	granted bool
}

func (m *membership) Encode() ([]byte, error) {
	if !m.granted {
		return nil, nil // deletes the entry
	}
	return rlp.EncodeToBytes(true)
}

func (m *membership) Decode(data []byte) error {
	if len(data) == 0 {
		m.granted = false
		return nil
	}
	return rlp.DecodeBytes(data, &m.granted)
}

// Has reports whether the account holds the role.
func (s *Service) Has(role Role, account collective.Address) (bool, error) {
	var m membership
	if err := s.state.DecodeStorage(roleKey(role, account), &m); err != nil {
		return false, errors.Wrapf(err, "get %s role", role)
	}
	return m.granted, nil
}

// Grant adds the account to the role set. Granting twice is a no-op.
func (s *Service) Grant(role Role, account collective.Address) error {
	if err := s.state.EncodeStorage(roleKey(role, account), &membership{granted: true}); err != nil {
		return errors.Wrapf(err, "grant %s role", role)
	}
	return nil
}

// Revoke removes the account from the role set.
func (s *Service) Revoke(role Role, account collective.Address) error {
	if err := s.state.EncodeStorage(roleKey(role, account), &membership{}); err != nil {
		return errors.Wrapf(err, "revoke %s role", role)
	}
	return nil
}

// List returns all committed accounts holding the role.
func (s *Service) List(role Role) ([]collective.Address, error) {
	prefix := rolePrefix(role)
	var accounts []collective.Address
	err := s.state.Iterate(prefix, func(key, _ []byte) error {
		if len(key) != len(prefix)+collective.AddressLength {
			return fmt.Errorf("roles: malformed key %x", key)
		}
		accounts = append(accounts, collective.BytesToAddress(key[len(prefix):]))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s role", role)
	}
	return accounts, nil
}
