// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"database/sql"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/metrics"
)

var logger = log.WithContext("pkg", "eventdb")

var (
	metricWritten     = metrics.LazyLoadCounter("eventdb_written_count")
	metricQueryOrder  = metrics.LazyLoadCounterVec("eventdb_query_order", []string{"order"})
	metricQueryMillis = metrics.LazyLoadHistogram("eventdb_query_duration_ms", metrics.BucketBlockMillis)
)

const insertEvent = "INSERT OR REPLACE INTO event(blockNumber, eventIndex, kind, data) VALUES (?, ?, ?, ?)"
const insertAccount = "INSERT INTO account(blockNumber, eventIndex, account) VALUES (?, ?, ?)"

// EventDB stores staking events in sqlite.
type EventDB struct {
	path          string
	db            *sql.DB
	stmts         *stmtCache
	driverVersion string
}

// New creates or opens the event db at path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if path == ":memory:" {
		// every connection to :memory: is a distinct database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema + accountTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("event db opened", "path", path, "sqlite", driverVer)
	return &EventDB{
		path:          path,
		db:            db,
		stmts:         newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close closes the event db.
func (db *EventDB) Close() error {
	db.stmts.Clear()
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// NewestBlock returns the highest block with events.
func (db *EventDB) NewestBlock() (uint32, bool, error) {
	var n sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(blockNumber) FROM event").Scan(&n); err != nil {
		return 0, false, err
	}
	return uint32(n.Int64), n.Valid, nil
}

// Truncate deletes the events of blockNum and later blocks.
func (db *EventDB) Truncate(blockNum uint32) error {
	return db.execInTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM event WHERE blockNumber >= ?", blockNum); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM account WHERE blockNumber >= ?", blockNum)
		return err
	})
}

func (db *EventDB) execInTx(proc func(*sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Filter returns the events matching filter in block order.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		filter = &Filter{}
	}
	var args []any
	stmt := "SELECT e.blockNumber, e.eventIndex, e.kind, e.data FROM event e WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND e.blockNumber >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND e.blockNumber <= ?"
		}
	}
	if len(filter.Kinds) > 0 {
		stmt += " AND e.kind IN (?" + strings.Repeat(", ?", len(filter.Kinds)-1) + ")"
		for _, k := range filter.Kinds {
			args = append(args, k)
		}
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND EXISTS (SELECT 1 FROM account a WHERE a.blockNumber = e.blockNumber AND a.eventIndex = e.eventIndex AND a.account = ?)"
	}

	if filter.Order == DESC {
		metricQueryOrder().AddWithLabel(1, map[string]string{"order": "desc"})
		stmt += " ORDER BY e.blockNumber DESC, e.eventIndex DESC"
	} else {
		metricQueryOrder().AddWithLabel(1, map[string]string{"order": "asc"})
		stmt += " ORDER BY e.blockNumber ASC, e.eventIndex ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	start := nowMillis()
	defer func() { metricQueryMillis().Observe(nowMillis() - start) }()

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			ev   Event
			data []byte
		)
		if err := rows.Scan(&ev.BlockNumber, &ev.Index, &ev.Kind, &data); err != nil {
			return nil, err
		}
		ev.Data = data
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
