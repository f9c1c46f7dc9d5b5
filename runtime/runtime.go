// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/balances"
	"github.com/eden-network/eden/builtin/staker"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/eventdb"
	"github.com/eden-network/eden/genesis"
	"github.com/eden-network/eden/kv"
	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/metrics"
	"github.com/eden-network/eden/state"
)

var logger = log.WithContext("pkg", "runtime")

var (
	metricBlockDuration = metrics.LazyLoadHistogram("runtime_block_duration_ms", metrics.BucketBlockMillis)
	metricTxs           = metrics.LazyLoadCounterVec("runtime_txs_count", []string{"status"})
	metricHead          = metrics.LazyLoadGauge("runtime_head_block")
)

// Address is the account owning the runtime bookkeeping.
var Address = eden.BytesToAddress([]byte("runtime"))

var (
	slotHead    = storage.Slot("head")
	slotGenesis = storage.Slot("genesis")
)

// Tx is a call and the origin dispatching it.
type Tx struct {
	Origin staker.Origin
	Call   staker.Call
}

// Receipt is the outcome of one tx.
type Receipt struct {
	Call     string       `json:"call"`
	Signer   eden.Address `json:"signer"`
	Reverted bool         `json:"reverted"`
	Error    string       `json:"error,omitempty"`
}

// Block summarizes an executed block.
type Block struct {
	Number   uint32       `json:"number"`
	Receipts []Receipt    `json:"receipts"`
	Events   int          `json:"events"`
	Changes  eden.Bytes32 `json:"changes"`
}

// Runtime executes blocks against the staking state. It is safe for
// concurrent use.
type Runtime struct {
	lock     sync.Mutex
	state    *state.State
	staker   *staker.Staker
	balances *balances.Balances
	head     *storage.Uint64
	genesis  *storage.Value[eden.Bytes32]
	sink     *eventdb.Sink
	events   *eventdb.EventDB
	current  uint32
	feed     feed
}

var _ staker.Clock = (*Runtime)(nil)

// New opens the runtime over db. events may be nil to drop events.
func New(db kv.Store, cfg staker.Config, events *eventdb.EventDB, gov staker.Governance) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "staking config")
	}
	st := state.New(db)
	sctx := storage.NewContext(Address, st)
	rt := &Runtime{
		state:    st,
		balances: balances.New(st),
		head:     storage.NewUint64(sctx, slotHead),
		genesis:  storage.NewValue[eden.Bytes32](sctx, slotGenesis),
		sink:     eventdb.NewSink(),
		events:   events,
	}
	rt.staker = staker.New(st, cfg, staker.Deps{
		Balances:   rt.balances,
		Clock:      rt,
		Governance: gov,
		Treasury:   balances.NewTreasury(rt.balances, cfg.TreasuryAccount),
		Sink:       rt.sink,
	})
	head, err := rt.head.Get()
	if err != nil {
		return nil, err
	}
	rt.current = uint32(head)
	return rt, nil
}

// CurrentBlock implements staker.Clock.
func (rt *Runtime) CurrentBlock() uint32 {
	return rt.current
}

// Init applies g unless it was applied already. A different stored genesis is an error.
func (rt *Runtime) Init(g *genesis.Genesis) error {
	rt.lock.Lock()
	defer rt.lock.Unlock()

	stored, err := rt.genesis.Get()
	if err != nil {
		return err
	}
	if !stored.IsZero() {
		if stored != g.ID() {
			return errors.Errorf("database initialized with genesis %v, not %v", stored, g.ID())
		}
		return nil
	}

	rt.current = 0
	checkpoint := rt.state.NewCheckpoint()
	if err := g.Apply(rt.staker, rt.balances); err != nil {
		rt.state.RevertTo(checkpoint)
		rt.sink.Discard()
		return err
	}
	if err := rt.genesis.Set(g.ID()); err != nil {
		return err
	}
	// genesis events are flushed with block 0
	return rt.state.Stage().Commit()
}

// Head returns the number of the next block to execute.
func (rt *Runtime) Head() uint32 {
	rt.lock.Lock()
	defer rt.lock.Unlock()
	return rt.current
}

// Execute runs the next block: housekeeping first, then each tx in its own
// checkpoint. The state is committed once at the end.
func (rt *Runtime) Execute(txs []Tx) (blk *Block, err error) {
	rt.lock.Lock()
	defer rt.lock.Unlock()

	start := time.Now()
	number := rt.current
	checkpoint := rt.state.NewCheckpoint()
	defer func() {
		if err != nil {
			rt.state.RevertTo(checkpoint)
			rt.sink.Discard()
			logger.Error("block failed", "number", number, "err", err)
		}
	}()

	if err := rt.staker.Housekeep(number); err != nil {
		return nil, errors.Wrapf(err, "housekeep block %d", number)
	}

	blk = &Block{Number: number, Receipts: make([]Receipt, 0, len(txs))}
	for _, tx := range txs {
		r := Receipt{Call: tx.Call.Name(), Signer: tx.Origin.Signer}
		if err := rt.staker.Dispatch(tx.Origin, tx.Call); err != nil {
			r.Reverted = true
			r.Error = err.Error()
			metricTxs().AddWithLabel(1, map[string]string{"status": "reverted"})
		} else {
			metricTxs().AddWithLabel(1, map[string]string{"status": "ok"})
		}
		blk.Receipts = append(blk.Receipts, r)
	}

	rt.head.Set(uint64(number) + 1)
	stage := rt.state.Stage()
	blk.Changes = stage.Hash()
	if err := stage.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit state")
	}
	rt.current = number + 1

	if rt.events != nil {
		if blk.Events, err = rt.sink.Flush(rt.events, number); err != nil {
			// state is committed; only the event index lags
			logger.Warn("failed to write events", "number", number, "err", err)
			err = nil
		}
	} else {
		rt.sink.Discard()
	}

	rt.feed.broadcast()

	metricHead().Set(int64(number))
	metricBlockDuration().Observe(time.Since(start).Milliseconds())
	logger.Debug("block executed", "number", number, "txs", len(txs), "events", blk.Events, "changes", blk.Changes)
	return blk, nil
}

// View runs fn with exclusive read access to the staking state.
func (rt *Runtime) View(fn func(s *staker.Staker, b *balances.Balances) error) error {
	rt.lock.Lock()
	defer rt.lock.Unlock()
	return fn(rt.staker, rt.balances)
}

// NewBlocks returns a channel closed once the next block is committed and
// its events are written. Call it again after each wake up.
func (rt *Runtime) NewBlocks() <-chan struct{} {
	return rt.feed.wait()
}

// Events returns the event db, nil when events are dropped.
func (rt *Runtime) Events() *eventdb.EventDB {
	return rt.events
}
