// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events exposes the recorded pool events over REST.
package events

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/collectivefund/collective/api/restutil"
	"github.com/collectivefund/collective/collective"
	"github.com/collectivefund/collective/eventdb"
)

// EventView is the JSON shape of one event.
type EventView struct {
	Seq         uint64              `json:"seq"`
	Time        int64               `json:"time"`
	Kind        string              `json:"kind"`
	Member      collective.Address  `json:"member"`
	Destination *collective.Address `json:"destination,omitempty"`
	Amount      string              `json:"amount"`
}

type Events struct {
	db *eventdb.EventDB
}

func New(db *eventdb.EventDB) *Events {
	return &Events{db: db}
}

func (es *Events) handleFilter(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	filter := &eventdb.Filter{Kind: query.Get("kind")}
	if s := query.Get("member"); s != "" {
		member, err := collective.ParseAddress(s)
		if err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "member"))
		}
		filter.Member = member
	}
	if s := query.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return restutil.BadRequest(errors.Errorf("invalid limit %q", s))
		}
		filter.Limit = limit
	}

	recorded, err := es.db.FilterEvents(r.Context(), filter)
	if err != nil {
		return err
	}
	views := make([]*EventView, 0, len(recorded))
	for _, ev := range recorded {
		views = append(views, &EventView{
			Seq:         ev.Seq,
			Time:        ev.Time.Unix(),
			Kind:        ev.Kind,
			Member:      ev.Member,
			Destination: ev.Destination,
			Amount:      ev.Amount.String(),
		})
	}
	return restutil.WriteJSON(w, views)
}

func (es *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(restutil.WrapHandlerFunc(es.handleFilter))
}
