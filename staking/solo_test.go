// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectivefund/collective/collective"
)

var (
	self   = collective.BytesToAddress([]byte("pool"))
	target = collective.BytesToAddress([]byte("target"))
)

func TestSoloDelegateLifecycle(t *testing.T) {
	svc := NewSoloService(self, time.Hour)

	ok, err := svc.IsDelegator(self)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Delegate(target, big.NewInt(5), 0, 0))
	assert.Error(t, svc.Delegate(target, big.NewInt(5), 0, 0), "double delegate")

	ok, err = svc.IsDelegator(self)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := svc.CandidateDelegationCount(target)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	count, err = svc.DelegatorDelegationCount(self)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	require.NoError(t, svc.DelegatorBondMore(target, big.NewInt(3)))
	assert.Equal(t, big.NewInt(8), svc.BondedAmount())
}

func TestSoloRevokeDelay(t *testing.T) {
	svc := NewSoloService(self, time.Hour)
	require.NoError(t, svc.Delegate(target, big.NewInt(5), 0, 0))

	assert.Error(t, svc.ExecuteDelegationRequest(self, target), "no scheduled revoke")

	require.NoError(t, svc.ScheduleRevokeDelegation(target))
	assert.Error(t, svc.ScheduleRevokeDelegation(target), "double schedule")
	assert.Error(t, svc.DelegatorBondMore(target, big.NewInt(1)), "bond more after schedule")

	// delay not elapsed: the call succeeds but the delegation stays
	require.NoError(t, svc.ExecuteDelegationRequest(self, target))
	ok, err := svc.IsDelegator(self)
	require.NoError(t, err)
	assert.True(t, ok)

	svc.Mature()
	require.NoError(t, svc.ExecuteDelegationRequest(self, target))
	ok, err = svc.IsDelegator(self)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, big.NewInt(0).String(), svc.BondedAmount().String())
}

func TestSoloZeroDelay(t *testing.T) {
	svc := NewSoloService(self, 0)
	require.NoError(t, svc.Delegate(target, big.NewInt(5), 0, 0))
	require.NoError(t, svc.ScheduleRevokeDelegation(target))
	require.NoError(t, svc.ExecuteDelegationRequest(self, target))

	ok, err := svc.IsDelegator(self)
	require.NoError(t, err)
	assert.False(t, ok)
}
