// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"database/sql"
	"time"

	"github.com/eden-network/eden/eden"
)

type pending struct {
	kind     string
	accounts []eden.Address
	data     []byte
}

// BlockBatch collects the events of one block.
type BlockBatch struct {
	db     *EventDB
	number uint32
	events []pending
}

// Prepare starts a batch for block number. Committing it replaces any events
// stored for that block.
func (db *EventDB) Prepare(number uint32) *BlockBatch {
	return &BlockBatch{db: db, number: number}
}

// Add appends an encoded event.
func (bb *BlockBatch) Add(kind string, accounts []eden.Address, data []byte) *BlockBatch {
	bb.events = append(bb.events, pending{kind, accounts, data})
	return bb
}

// Len returns the number of uncommitted events.
func (bb *BlockBatch) Len() int {
	return len(bb.events)
}

// Commit writes the batch in one transaction.
func (bb *BlockBatch) Commit() error {
	insEvent, err := bb.db.stmts.Prepare(insertEvent)
	if err != nil {
		return err
	}
	insAccount, err := bb.db.stmts.Prepare(insertAccount)
	if err != nil {
		return err
	}
	err = bb.db.execInTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM event WHERE blockNumber = ?", bb.number); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM account WHERE blockNumber = ?", bb.number); err != nil {
			return err
		}
		evStmt, accStmt := tx.Stmt(insEvent), tx.Stmt(insAccount)
		for i, ev := range bb.events {
			if _, err := evStmt.Exec(bb.number, i, ev.kind, ev.data); err != nil {
				return err
			}
			for _, a := range ev.accounts {
				if _, err := accStmt.Exec(bb.number, i, a.Bytes()); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	metricWritten().Add(int64(len(bb.events)))
	bb.events = nil
	return nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
