// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reject defines the typed errors raised when a pool operation is
// refused. Every rejection aborts its enclosing operation with no partial
// effect; consistency rejections are additionally fatal and must reach the
// operator.
package reject

import "errors"

// Kind classifies a rejection.
type Kind uint8

const (
	// KindPermission - the caller lacks the required role.
	KindPermission Kind = iota + 1
	// KindState - the lifecycle state forbids the operation.
	KindState
	// KindConsistency - local state contradicts the staking service; fatal.
	KindConsistency
	// KindArithmetic - share computation against a zero total stake.
	KindArithmetic
	// KindInsufficiency - requested amount exceeds the available balance.
	KindInsufficiency
	// KindPaused - the pool is paused.
	KindPaused
	// KindNotFound - a referenced record does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindPermission:
		return "permission"
	case KindState:
		return "state"
	case KindConsistency:
		return "consistency"
	case KindArithmetic:
		return "arithmetic"
	case KindInsufficiency:
		return "insufficiency"
	case KindPaused:
		return "paused"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is a typed operation rejection.
type Error struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string {
	return e.message
}

// Kind returns the rejection classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// Permission creates a caller-lacks-role rejection.
func Permission(message string) *Error { return New(KindPermission, message) }

// State creates a lifecycle-precondition rejection.
func State(message string) *Error { return New(KindState, message) }

// Consistency creates a fatal local-vs-external desynchronization error.
func Consistency(message string) *Error { return New(KindConsistency, message) }

// Arithmetic creates a zero-total-stake rejection.
func Arithmetic(message string) *Error { return New(KindArithmetic, message) }

// Insufficiency creates an insufficient-balance rejection.
func Insufficiency(message string) *Error { return New(KindInsufficiency, message) }

// Paused creates a pool-paused rejection.
func Paused(message string) *Error { return New(KindPaused, message) }

// NotFound creates a missing-record rejection.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Is reports whether err is a rejection of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == kind
}

// IsRejection reports whether err is any typed rejection.
func IsRejection(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// IsFatal reports whether err signals a non-recoverable condition that must
// be surfaced as an operational alarm.
func IsFatal(err error) bool {
	return Is(err, KindConsistency)
}
