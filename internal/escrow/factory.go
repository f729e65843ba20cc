package escrow

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tokenseikyu/escrow-node/internal/interfaces"
	"github.com/tokenseikyu/escrow-node/internal/ledger"
	"github.com/tokenseikyu/escrow-node/internal/lib"
	"go.uber.org/atomic"
)

// InvoiceFactory places invoice instances as clones of a single
// implementation template and keeps the append-only registry. Creation and
// registration are atomic: a failed Init leaves no observable state.
type InvoiceFactory struct {
	addr                common.Address
	implementation      *Invoice
	wrappedNative       *ledger.WrappedNativeToken
	requireVerification bool
	maxDuration         time.Duration

	ledger *ledger.Ledger
	clock  lib.Clock
	feed   *Feed
	log    interfaces.ILogger

	mutex     sync.RWMutex
	invoices  []common.Address // registry, index -> address
	instances *lib.Collection[*Invoice]
	count     *atomic.Uint64
}

func NewInvoiceFactory(
	addr common.Address,
	implementation *Invoice,
	wrappedNative *ledger.WrappedNativeToken,
	requireVerification bool,
	maxDuration time.Duration,
	led *ledger.Ledger,
	clock lib.Clock,
	feed *Feed,
	log interfaces.ILogger,
) (*InvoiceFactory, error) {
	if implementation == nil || implementation.Address() == (common.Address{}) {
		return nil, ErrInvalidImplementation
	}
	if wrappedNative == nil || wrappedNative.Address() == (common.Address{}) {
		return nil, ErrInvalidWrappedToken
	}
	if maxDuration == 0 {
		maxDuration = MaxTerminationDuration
	}

	return &InvoiceFactory{
		addr:                addr,
		implementation:      implementation,
		wrappedNative:       wrappedNative,
		requireVerification: requireVerification,
		maxDuration:         maxDuration,
		ledger:              led,
		clock:               clock,
		feed:                feed,
		log:                 log,
		instances:           lib.NewCollection[*Invoice](),
		count:               atomic.NewUint64(0),
	}, nil
}

func (f *InvoiceFactory) Address() common.Address {
	return f.addr
}

func (f *InvoiceFactory) Implementation() common.Address {
	return f.implementation.Address()
}

func (f *InvoiceFactory) WrappedNativeToken() common.Address {
	return f.wrappedNative.Address()
}

// Create places a new invoice at an address derived from the factory address
// and the registry counter.
func (f *InvoiceFactory) Create(
	client, provider, token common.Address,
	price *big.Int,
	terminationTime time.Time,
	details common.Hash,
) (*Invoice, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	addr := crypto.CreateAddress(f.addr, f.count.Load())
	return f.create(addr, client, provider, token, price, terminationTime, details)
}

// CreateDeterministic places the invoice at the address
// PredictDeterministicAddress(salt) would return, so callers can compute it
// before the call executes.
func (f *InvoiceFactory) CreateDeterministic(
	client, provider, token common.Address,
	price *big.Int,
	terminationTime time.Time,
	details common.Hash,
	salt [32]byte,
) (*Invoice, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	addr := f.PredictDeterministicAddress(salt)
	if _, ok := f.instances.Load(addr.Hex()); ok {
		return nil, ErrAlreadyDeployed
	}
	return f.create(addr, client, provider, token, price, terminationTime, details)
}

func (f *InvoiceFactory) create(
	addr, client, provider, token common.Address,
	price *big.Int,
	terminationTime time.Time,
	details common.Hash,
) (*Invoice, error) {
	invoice := NewInvoice(addr, f.maxDuration, f.ledger, f.wrappedNative, f.clock, f.feed, f.log.Named("INVOICE "+lib.ShortAddr(addr)))

	err := invoice.Init(client, provider, token, price, terminationTime, details, f.wrappedNative.Address(), f.requireVerification)
	if err != nil {
		return nil, err
	}

	index := f.count.Load()
	f.invoices = append(f.invoices, addr)
	f.instances.Store(invoice)
	f.count.Inc()

	f.feed.Publish(f.addr, NewInvoiceEvent{Index: index, Invoice: addr, Price: new(big.Int).Set(price)}, f.clock.Now())
	f.log.Infof("invoice %d created at %s price %s", index, addr.Hex(), price.String())

	return invoice, nil
}

// PredictDeterministicAddress derives the clone address from the factory
// identity, the salt and the EIP-1167 proxy code of the implementation.
// Pure computation, no state change.
func (f *InvoiceFactory) PredictDeterministicAddress(salt [32]byte) common.Address {
	initCodeHash := crypto.Keccak256(proxyCreationCode(f.implementation.Address()))
	return crypto.CreateAddress2(f.addr, salt, initCodeHash)
}

// proxyCreationCode builds the EIP-1167 minimal proxy creation bytecode
// pointing at the given implementation.
func proxyCreationCode(implementation common.Address) []byte {
	code := make([]byte, 0, 55)
	code = append(code, common.FromHex("3d602d80600a3d3981f3363d3d373d3d3d363d73")...)
	code = append(code, implementation.Bytes()...)
	code = append(code, common.FromHex("5af43d82803e903d91602b57fd5bf3")...)
	return code
}

func (f *InvoiceFactory) InvoiceCount() uint64 {
	return f.count.Load()
}

func (f *InvoiceFactory) GetInvoiceAddress(index uint64) (common.Address, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	if index >= uint64(len(f.invoices)) {
		return common.Address{}, ErrOutOfRange
	}
	return f.invoices[index], nil
}

func (f *InvoiceFactory) GetInvoice(addr common.Address) (*Invoice, error) {
	invoice, ok := f.instances.Load(addr.Hex())
	if !ok {
		return nil, ErrUnknownInvoice
	}
	return invoice, nil
}

func (f *InvoiceFactory) Range(fn func(invoice *Invoice) bool) {
	f.instances.Range(fn)
}
