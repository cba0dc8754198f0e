// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb records the pool's observable events, one row per
// successful deposit or withdrawal, for external monitoring. Rows are
// append-only; the pool writes them only after its state mutation commits.
package eventdb

import (
	"context"
	"database/sql"
	"math/big"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/collectivefund/collective/collective"
)

// event kinds
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
)

const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	ts integer not null,
	kind text not null,
	member blob(20) not null,
	destination blob(20),
	amount text not null
);

CREATE INDEX if not exists kindIndex on event(kind);
CREATE INDEX if not exists memberIndex on event(member);
`

// Event is one recorded pool event.
type Event struct {
	Seq         uint64
	Time        time.Time
	Kind        string
	Member      collective.Address
	Destination *collective.Address // nil for deposits
	Amount      *big.Int
}

// Filter selects events; zero fields match everything.
type Filter struct {
	Kind   string
	Member *collective.Address
	Limit  int
}

// EventDB is an append-only store of pool events.
type EventDB struct {
	path string
	db   *sql.DB
}

// New creates or opens an event db at the given path.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open event db")
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create event table")
	}
	return &EventDB{path, db}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close closes the event db.
func (e *EventDB) Close() error {
	return e.db.Close()
}

// Path returns the db file path.
func (e *EventDB) Path() string {
	return e.path
}

// RecordDeposit appends a deposit row.
func (e *EventDB) RecordDeposit(member collective.Address, amount *big.Int) error {
	_, err := e.db.Exec(
		"insert into event(ts, kind, member, destination, amount) values(?,?,?,?,?)",
		time.Now().Unix(), KindDeposit, member.Bytes(), nil, amount.String())
	return errors.Wrap(err, "record deposit")
}

// RecordWithdrawal appends a withdrawal row.
func (e *EventDB) RecordWithdrawal(member, destination collective.Address, amount *big.Int) error {
	_, err := e.db.Exec(
		"insert into event(ts, kind, member, destination, amount) values(?,?,?,?,?)",
		time.Now().Unix(), KindWithdrawal, member.Bytes(), destination.Bytes(), amount.String())
	return errors.Wrap(err, "record withdrawal")
}

// FilterEvents queries recorded events, newest first.
func (e *EventDB) FilterEvents(ctx context.Context, filter *Filter) ([]*Event, error) {
	stmt := "select seq, ts, kind, member, destination, amount from event where 1"
	var args []any
	if filter != nil {
		if filter.Kind != "" {
			stmt += " and kind = ?"
			args = append(args, filter.Kind)
		}
		if filter.Member != nil {
			stmt += " and member = ?"
			args = append(args, filter.Member.Bytes())
		}
	}
	stmt += " order by seq desc"
	if filter != nil && filter.Limit > 0 {
		stmt += " limit ?"
		args = append(args, filter.Limit)
	}

	rows, err := e.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			ev     Event
			ts     int64
			member []byte
			dest   []byte
			amount string
		)
		if err := rows.Scan(&ev.Seq, &ts, &ev.Kind, &member, &dest, &amount); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		ev.Time = time.Unix(ts, 0)
		ev.Member = collective.BytesToAddress(member)
		if len(dest) > 0 {
			d := collective.BytesToAddress(dest)
			ev.Destination = &d
		}
		value, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return nil, errors.Errorf("event db corrupted: bad amount %q", amount)
		}
		ev.Amount = value
		events = append(events, &ev)
	}
	return events, rows.Err()
}
