// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectivefund/collective/api"
	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/eventdb"
	"github.com/collectivefund/collective/kv"
	"github.com/collectivefund/collective/log"
	"github.com/collectivefund/collective/pool"
	"github.com/collectivefund/collective/staking"
	"github.com/collectivefund/collective/state"
)

var (
	selfAddr   = collective.BytesToAddress([]byte("self"))
	targetAddr = collective.BytesToAddress([]byte("target"))
	target2    = collective.BytesToAddress([]byte("target-2"))
	admin      = collective.BytesToAddress([]byte("admin"))
	alice      = collective.BytesToAddress([]byte("alice"))
	bob        = collective.BytesToAddress([]byte("bob"))
	stranger   = collective.BytesToAddress([]byte("stranger"))
	payout     = collective.BytesToAddress([]byte("payout"))
)

type nopSender struct{}

func (nopSender) Send(collective.Address, *big.Int) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	st := state.New(kv.NewMemLevelDB())
	edb, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { edb.Close() })

	p, err := pool.New(pool.Config{
		Self:                selfAddr,
		Target:              targetAddr,
		ActivationThreshold: big.NewInt(5),
		Admins:              []collective.Address{admin},
		Members:             []collective.Address{alice, bob},
	}, st, staking.NewSoloService(selfAddr, time.Hour), nopSender{}, edb)
	require.NoError(t, err)

	ts := httptest.NewServer(api.New(p, edb, api.Options{AllowedOrigins: "*"}))
	t.Cleanup(ts.Close)
	return ts
}

func httpGet(t *testing.T, url string) (int, []byte) {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

func httpPost(t *testing.T, url string, reqBody any) (int, []byte) {
	data, err := json.Marshal(reqBody)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

func deposit(t *testing.T, ts *httptest.Server, caller collective.Address, amount string) (int, []byte) {
	return httpPost(t, ts.URL+"/pool/deposits", map[string]string{
		"caller": caller.String(),
		"amount": amount,
	})
}

func TestGetPool(t *testing.T) {
	ts := newTestServer(t)

	status, body := httpGet(t, ts.URL+"/pool")
	require.Equal(t, http.StatusOK, status)

	var view map[string]any
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "collecting", view["status"])
	assert.Equal(t, targetAddr.String(), view["target"])
	assert.Equal(t, "0", view["reserve"])
	assert.Equal(t, false, view["paused"])
}

func TestDepositActivation(t *testing.T) {
	ts := newTestServer(t)

	status, _ := deposit(t, ts, alice, "3")
	require.Equal(t, http.StatusOK, status)

	status, body := deposit(t, ts, bob, "2")
	require.Equal(t, http.StatusOK, status)

	var view map[string]any
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "staking", view["status"])
	assert.Equal(t, "5", view["bonded"])
	assert.Equal(t, "0", view["reserve"])

	status, body = httpGet(t, ts.URL+"/pool/members")
	require.Equal(t, http.StatusOK, status)
	var members []map[string]string
	require.NoError(t, json.Unmarshal(body, &members))
	assert.Len(t, members, 2)

	status, body = httpGet(t, fmt.Sprintf("%s/pool/members/%s", ts.URL, alice))
	require.Equal(t, http.StatusOK, status)
	var member map[string]string
	require.NoError(t, json.Unmarshal(body, &member))
	assert.Equal(t, "3", member["stake"])
}

func TestDepositBadAmount(t *testing.T) {
	ts := newTestServer(t)

	status, _ := deposit(t, ts, alice, "five")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWithdraw(t *testing.T) {
	ts := newTestServer(t)

	status, _ := deposit(t, ts, alice, "2")
	require.Equal(t, http.StatusOK, status)

	status, body := httpPost(t, ts.URL+"/pool/withdrawals", map[string]string{
		"caller":      alice.String(),
		"destination": payout.String(),
	})
	require.Equal(t, http.StatusOK, status)

	var res map[string]string
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "2", res["amount"])
}

func TestRejectionStatusCodes(t *testing.T) {
	ts := newTestServer(t)

	// non-member deposit
	status, _ := deposit(t, ts, stranger, "1")
	assert.Equal(t, http.StatusForbidden, status)

	// revoke while still collecting
	status, _ = httpPost(t, ts.URL+"/pool/revocation", map[string]string{"caller": admin.String()})
	assert.Equal(t, http.StatusConflict, status)

	// unknown proposal
	status, _ = httpGet(t, ts.URL+"/proposals/9")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPausedStatusCode(t *testing.T) {
	ts := newTestServer(t)

	status, _ := httpPost(t, ts.URL+"/pool/pause", map[string]string{"caller": admin.String()})
	require.Equal(t, http.StatusOK, status)

	status, _ = deposit(t, ts, alice, "1")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = httpPost(t, ts.URL+"/pool/resume", map[string]string{"caller": admin.String()})
	require.Equal(t, http.StatusOK, status)

	status, _ = deposit(t, ts, alice, "1")
	assert.Equal(t, http.StatusOK, status)
}

func TestGrantRole(t *testing.T) {
	ts := newTestServer(t)

	status, _ := deposit(t, ts, stranger, "1")
	require.Equal(t, http.StatusForbidden, status)

	status, body := httpPost(t, ts.URL+"/pool/members", map[string]string{
		"caller":  admin.String(),
		"account": stranger.String(),
		"role":    "member",
	})
	require.Equal(t, http.StatusOK, status)
	var res map[string]bool
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res["granted"])

	status, _ = deposit(t, ts, stranger, "1")
	assert.Equal(t, http.StatusOK, status)

	status, _ = httpPost(t, ts.URL+"/pool/members", map[string]string{
		"caller":  admin.String(),
		"account": stranger.String(),
		"role":    "owner",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProposalFlow(t *testing.T) {
	ts := newTestServer(t)

	status, body := httpPost(t, ts.URL+"/proposals", map[string]string{
		"proposer": alice.String(),
		"target":   target2.String(),
	})
	require.Equal(t, http.StatusOK, status)
	var created map[string]uint64
	require.NoError(t, json.Unmarshal(body, &created))
	id := created["id"]

	status, _ = httpPost(t, fmt.Sprintf("%s/proposals/%d/votes", ts.URL, id), map[string]any{
		"voter":   alice.String(),
		"support": true,
	})
	require.Equal(t, http.StatusOK, status)

	// double vote
	status, _ = httpPost(t, fmt.Sprintf("%s/proposals/%d/votes", ts.URL, id), map[string]any{
		"voter":   alice.String(),
		"support": true,
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = httpPost(t, fmt.Sprintf("%s/proposals/%d/votes", ts.URL, id), map[string]any{
		"voter":   bob.String(),
		"support": true,
	})
	require.Equal(t, http.StatusOK, status)

	status, body = httpPost(t, fmt.Sprintf("%s/proposals/%d/execution", ts.URL, id), map[string]string{
		"caller": admin.String(),
	})
	require.Equal(t, http.StatusOK, status)
	var proposal map[string]any
	require.NoError(t, json.Unmarshal(body, &proposal))
	assert.Equal(t, float64(2), proposal["votesFor"])

	status, body = httpGet(t, ts.URL+"/pool")
	require.Equal(t, http.StatusOK, status)
	var view map[string]any
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, target2.String(), view["target"])

	status, body = httpGet(t, ts.URL+"/proposals")
	require.Equal(t, http.StatusOK, status)
	var count map[string]uint64
	require.NoError(t, json.Unmarshal(body, &count))
	assert.Equal(t, uint64(1), count["count"])
}

func TestEventsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	status, _ := deposit(t, ts, alice, "2")
	require.Equal(t, http.StatusOK, status)
	status, _ = deposit(t, ts, bob, "1")
	require.Equal(t, http.StatusOK, status)

	status, body := httpGet(t, ts.URL+"/events?kind=deposit")
	require.Equal(t, http.StatusOK, status)
	var evs []map[string]any
	require.NoError(t, json.Unmarshal(body, &evs))
	require.Len(t, evs, 2)
	// newest first
	assert.Equal(t, bob.String(), evs[0]["member"])
	assert.Equal(t, "1", evs[0]["amount"])

	status, body = httpGet(t, ts.URL+"/events?member="+alice.String())
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &evs))
	require.Len(t, evs, 1)
	assert.Equal(t, "2", evs[0]["amount"])

	status, _ = httpGet(t, ts.URL+"/events?limit=nope")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log.Init(&buf, 2)
	defer log.Init(os.Stderr, 2)

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such thing", http.StatusNotFound)
	})
	handler := api.RequestLoggerHandler(inner, log.WithContext("pkg", "api"))

	req := httptest.NewRequest(http.MethodPost, "/pool/deposits", strings.NewReader(`{"amount":"1"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	logged := buf.String()
	assert.Contains(t, logged, "status=404")
	assert.Contains(t, logged, "method=POST")
	assert.Contains(t, logged, `{\"amount\":\"1\"}`)
}
