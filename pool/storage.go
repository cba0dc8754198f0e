// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/collectivefund/collective/collective"
)

var keyPoolBody = []byte("pool:body")

// body is the persisted singleton pool record.
type body struct {
	Status  Status
	Target  collective.Address
	Reserve *big.Int // free, unbonded funds held by the pool
	Bonded  *big.Int // funds locked with the staking service
	Paused  bool
}

// Encode implements state.StorageEncoder.
func (b *body) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(b)
}

// Decode implements state.StorageDecoder.
func (b *body) Decode(data []byte) error {
	if len(data) == 0 {
		*b = body{}
		return nil
	}
	return rlp.DecodeBytes(data, b)
}

func (p *Pool) loadBody() (*body, error) {
	var b body
	if err := p.state.DecodeStorage(keyPoolBody, &b); err != nil {
		return nil, errors.Wrap(err, "get pool record")
	}
	if b.Status == 0 {
		return nil, errors.New("pool record not initialized")
	}
	return &b, nil
}

func (p *Pool) saveBody(b *body) error {
	if err := p.state.EncodeStorage(keyPoolBody, b); err != nil {
		return errors.Wrap(err, "set pool record")
	}
	return nil
}
