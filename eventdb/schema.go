// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

const eventTableSchema = `
create table if not exists event (
	blockNumber integer not null,
	eventIndex integer not null,
	kind text not null,
	data blob,
	primary key (blockNumber, eventIndex)
);

CREATE INDEX if not exists kindIndex on event(kind);
`

// one row per account an event concerns
const accountTableSchema = `
create table if not exists account (
	blockNumber integer not null,
	eventIndex integer not null,
	account blob(20) not null
);

CREATE INDEX if not exists accountIndex on account(account);
CREATE INDEX if not exists accountBlockIndex on account(blockNumber);
`
