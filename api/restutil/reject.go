// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package restutil

import (
	"net/http"

	"github.com/collectivefund/collective/pool/reject"
)

// RejectionError maps a pool rejection onto an http status. Non-rejection
// errors pass through unchanged and respond 500.
func RejectionError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case reject.Is(err, reject.KindPermission):
		return HTTPError(err, http.StatusForbidden)
	case reject.Is(err, reject.KindNotFound):
		return HTTPError(err, http.StatusNotFound)
	case reject.Is(err, reject.KindPaused):
		return HTTPError(err, http.StatusServiceUnavailable)
	case reject.Is(err, reject.KindState),
		reject.Is(err, reject.KindArithmetic),
		reject.Is(err, reject.KindInsufficiency):
		return HTTPError(err, http.StatusConflict)
	default:
		return err
	}
}
