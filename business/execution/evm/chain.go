// Package evm provides an in-memory ledger with transactional semantics:
// token balances, swap pools and the flash loan provider all mutate state
// through a chain that can snapshot and revert, so a failed flash loan
// leaves no trace, matching on-chain atomicity.
package evm

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Gas costs charged per primitive, loosely modeled on mainnet costs.
const (
	GasBaseTx        uint64 = 21000
	GasTransfer      uint64 = 25000
	GasApprove       uint64 = 24000
	GasSwap          uint64 = 60000
	GasFlashOverhead uint64 = 40000
)

// Journaled is implemented by every stateful object registered on a chain.
// Snapshot returns an opaque copy of the object's state; Restore rolls the
// object back to a previously returned snapshot.
type Journaled interface {
	Snapshot() any
	Restore(snap any)
}

// Chain coordinates transactional state changes across registered objects.
// One transaction runs at a time.
type Chain struct {
	mu        sync.Mutex
	objects   []Journaled
	timestamp atomic.Uint64
	inTx      bool
	gasUsed   uint64
}

// NewChain creates a chain with the timestamp set to the current wall clock.
func NewChain() *Chain {
	c := &Chain{}
	c.timestamp.Store(uint64(time.Now().Unix()))
	return c
}

// Register adds a stateful object to the chain's journal. Objects must be
// registered before the first transaction touches them.
func (c *Chain) Register(obj Journaled) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects = append(c.objects, obj)
}

// Timestamp returns the current block timestamp in unix seconds. The read
// is atomic, not lock-guarded: deadline checks run inside a transaction
// while Transact holds the chain lock.
func (c *Chain) Timestamp() uint64 {
	return c.timestamp.Load()
}

// AdvanceTime moves the block timestamp forward.
func (c *Chain) AdvanceTime(seconds uint64) {
	c.timestamp.Add(seconds)
}

// UseGas charges gas against the running transaction. Outside a transaction
// the charge is dropped, which keeps read paths free.
func (c *Chain) UseGas(units uint64) {
	if c.inTx {
		c.gasUsed += units
	}
}

// Transact runs fn as a single atomic transaction. If fn returns an error
// every registered object is rolled back to its pre-transaction state. The
// gas consumed is returned either way, mirroring how a reverted transaction
// still burns gas.
func (c *Chain) Transact(fn func() error) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snaps := make([]any, len(c.objects))
	for i, obj := range c.objects {
		snaps[i] = obj.Snapshot()
	}

	c.inTx = true
	c.gasUsed = GasBaseTx
	err := fn()
	gas := c.gasUsed
	c.inTx = false
	c.gasUsed = 0

	if err != nil {
		for i, obj := range c.objects {
			obj.Restore(snaps[i])
		}
	}
	return gas, err
}

// NewAddress derives a deterministic address from a seed label. Used to
// assign identities to tokens, pools and contracts in the ledger.
func NewAddress(seed string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(seed))[12:])
}
