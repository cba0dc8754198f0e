// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

// Status is the lifecycle state of a pool.
type Status = uint8

const (
	// StatusCollecting - accepting deposits, nothing bonded yet.
	StatusCollecting = Status(iota + 1)
	// StatusStaking - the pool balance is bonded with the staking service;
	// only top-up deposits are allowed.
	StatusStaking
	// StatusRevoking - an unbonding request is inside its mandatory delay
	// window.
	StatusRevoking
	// StatusRevoked - the staking service confirms no outstanding
	// delegation; funds are free to withdraw.
	StatusRevoked
)

// StatusName returns the lowercase name of a lifecycle status.
func StatusName(s Status) string {
	switch s {
	case StatusCollecting:
		return "collecting"
	case StatusStaking:
		return "staking"
	case StatusRevoking:
		return "revoking"
	case StatusRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}
