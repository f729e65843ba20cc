package escrow

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tokenseikyu/escrow-node/internal/interfaces"
	"github.com/tokenseikyu/escrow-node/internal/ledger"
	"github.com/tokenseikyu/escrow-node/internal/lib"
)

// MaxTerminationDuration is the default upper bound for the safety-valve
// window, counted from initialization. Matches the on-chain constant (~2 years).
const MaxTerminationDuration = 63113904 * time.Second

type InvoiceState uint8

const (
	InvoiceStateActive InvoiceState = iota
	InvoiceStateLocked
	InvoiceStateCanceled
)

func (s InvoiceState) String() string {
	switch s {
	case InvoiceStateActive:
		return "active"
	case InvoiceStateLocked:
		return "locked"
	case InvoiceStateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Invoice is the escrow agreement between a paying client and a receiving
// provider, denominated in a single fungible token. Funds held under the
// invoice address move only through the guarded operations below; every
// successful transition publishes exactly one event, failed calls publish
// nothing and mutate nothing.
type Invoice struct {
	// deps
	ledger        *ledger.Ledger
	wrappedNative *ledger.WrappedNativeToken
	clock         lib.Clock
	feed          *Feed
	log           interfaces.ILogger

	addr        common.Address
	maxDuration time.Duration

	mutex sync.RWMutex

	// set once by Init
	initialized         bool
	client              common.Address
	provider            common.Address
	token               common.Address
	price               *big.Int
	terminationTime     time.Time
	details             common.Hash
	wrappedNativeToken  common.Address
	requireVerification bool

	// lifecycle
	state    InvoiceState
	verified bool
	released *big.Int
}

func NewInvoice(
	addr common.Address,
	maxDuration time.Duration,
	led *ledger.Ledger,
	wrappedNative *ledger.WrappedNativeToken,
	clock lib.Clock,
	feed *Feed,
	log interfaces.ILogger,
) *Invoice {
	if maxDuration == 0 {
		maxDuration = MaxTerminationDuration
	}
	return &Invoice{
		ledger:        led,
		wrappedNative: wrappedNative,
		clock:         clock,
		feed:          feed,
		log:           log,
		addr:          addr,
		maxDuration:   maxDuration,
		state:         InvoiceStateActive,
		released:      big.NewInt(0),
	}
}

func (i *Invoice) ID() string {
	return i.addr.Hex()
}

func (i *Invoice) Address() common.Address {
	return i.addr
}

// Init configures the invoice. Callable exactly once per instance; the
// factory calls it right after placing the clone.
func (i *Invoice) Init(
	client, provider, token common.Address,
	price *big.Int,
	terminationTime time.Time,
	details common.Hash,
	wrappedNativeToken common.Address,
	requireVerification bool,
) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.initialized {
		return ErrAlreadyInitialized
	}
	if client == (common.Address{}) {
		return ErrInvalidClient
	}
	if provider == (common.Address{}) {
		return ErrInvalidProvider
	}
	if token == (common.Address{}) {
		return ErrInvalidToken
	}
	if wrappedNativeToken == (common.Address{}) {
		return ErrInvalidWrappedToken
	}

	now := i.clock.Now()
	if !terminationTime.After(now) {
		return ErrDurationEnded
	}
	if terminationTime.After(now.Add(i.maxDuration)) {
		return ErrDurationTooLong
	}

	i.initialized = true
	i.client = client
	i.provider = provider
	i.token = token
	i.price = new(big.Int).Set(price)
	i.terminationTime = terminationTime
	i.details = details
	i.wrappedNativeToken = wrappedNativeToken
	i.requireVerification = requireVerification

	if !requireVerification {
		i.verified = true
		i.feed.Publish(i.addr, VerifiedEvent{Client: client, Invoice: i.addr}, now)
	}

	i.log.Infof("invoice initialized: client %s provider %s price %s termination %s",
		lib.ShortAddr(client), lib.ShortAddr(provider), price.String(), terminationTime.UTC().Format(time.RFC3339))
	return nil
}

// InitLock permanently sets the one-shot guard. Called on the shared
// implementation template so it can never be used as a live instance.
func (i *Invoice) InitLock() error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.initialized {
		return ErrAlreadyInitialized
	}
	i.initialized = true
	return nil
}

// Deposit is the native-currency receive path. The invoice must be
// denominated in the wrapped native token; the sent amount is converted 1:1
// through the adapter and credited to the invoice's own balance.
func (i *Invoice) Deposit(sender common.Address, amount *big.Int) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if !i.initialized {
		return ErrNotInitialized
	}
	if i.token != i.wrappedNativeToken {
		return ErrWrongToken
	}

	err := i.ledger.TransferNative(sender, i.addr, amount)
	if err != nil {
		return err
	}
	// cannot fail: the invoice holds the native amount just received
	err = i.wrappedNative.Deposit(i.addr, amount)
	if err != nil {
		return err
	}

	i.feed.Publish(i.addr, DepositEvent{Sender: sender, Amount: new(big.Int).Set(amount)}, i.clock.Now())
	return nil
}

// Verify records the client's explicit confirmation of the agreement terms.
func (i *Invoice) Verify(caller common.Address) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if !i.initialized {
		return ErrNotInitialized
	}
	if caller != i.client {
		return ErrNotClient
	}

	i.verified = true
	i.feed.Publish(i.addr, VerifiedEvent{Client: i.client, Invoice: i.addr}, i.clock.Now())
	return nil
}

// Lock puts the invoice into dispute: releases are suspended until the
// client settles with PayByClient.
func (i *Invoice) Lock(caller common.Address) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if !i.initialized {
		return ErrNotInitialized
	}
	if caller != i.client && caller != i.provider {
		return ErrNotParty
	}
	if i.state == InvoiceStateCanceled {
		return ErrAlreadyCanceled
	}
	if i.state == InvoiceStateLocked {
		return ErrAlreadyLocked
	}

	now := i.clock.Now()
	if !now.Before(i.terminationTime) {
		return ErrTerminated
	}
	if i.ledger.BalanceOf(i.token, i.addr).Sign() == 0 {
		return ErrBalanceZero
	}

	i.state = InvoiceStateLocked
	i.feed.Publish(i.addr, LockEvent{Sender: caller}, now)
	return nil
}

// Release pays the outstanding amount (price minus released) to the provider.
func (i *Invoice) Release(caller common.Address) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.release(caller)
}

func (i *Invoice) release(caller common.Address) error {
	if !i.initialized {
		return ErrNotInitialized
	}
	if caller != i.client {
		return ErrNotClient
	}
	if i.state == InvoiceStateLocked {
		return ErrLocked
	}
	if i.state == InvoiceStateCanceled {
		return ErrAlreadyCanceled
	}

	// checked subtraction, nothing owed when released >= price
	outstanding := new(big.Int).Sub(i.price, i.released)
	if outstanding.Sign() < 0 {
		outstanding.SetInt64(0)
	}

	balance := i.ledger.BalanceOf(i.token, i.addr)
	if balance.Cmp(outstanding) < 0 {
		return ErrInsufficientBalance
	}

	err := i.ledger.Transfer(i.token, i.addr, i.provider, outstanding)
	if err != nil {
		return lib.WrapError(ErrInsufficientBalance, err)
	}

	i.released.Add(i.released, outstanding)
	i.feed.Publish(i.addr, ReleaseEvent{Amount: outstanding}, i.clock.Now())
	return nil
}

// ReleaseTokens behaves as Release for the invoice's own token. Any other
// token held by the invoice is swept to the provider in full, with no price
// or lock checks.
func (i *Invoice) ReleaseTokens(caller, token common.Address) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if token == i.token {
		return i.release(caller)
	}

	if !i.initialized {
		return ErrNotInitialized
	}
	if caller != i.client {
		return ErrNotClient
	}

	balance := i.ledger.BalanceOf(token, i.addr)
	err := i.ledger.Transfer(token, i.addr, i.provider, balance)
	if err != nil {
		return err
	}

	i.feed.Publish(i.addr, ReleaseEvent{Amount: balance}, i.clock.Now())
	return nil
}

// Withdraw is the safety valve: after the termination time anyone may sweep
// the remaining balance back to the client.
func (i *Invoice) Withdraw() error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.withdraw(i.token)
}

// WithdrawTokens is Withdraw for an arbitrary token held by the invoice.
func (i *Invoice) WithdrawTokens(token common.Address) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.withdraw(token)
}

func (i *Invoice) withdraw(token common.Address) error {
	if !i.initialized {
		return ErrNotInitialized
	}
	if i.clock.Now().Before(i.terminationTime) {
		return ErrNotTerminated
	}
	if i.state == InvoiceStateLocked {
		return ErrLocked
	}

	balance := i.ledger.BalanceOf(token, i.addr)
	if balance.Sign() == 0 {
		return ErrBalanceZero
	}

	err := i.ledger.Transfer(token, i.addr, i.client, balance)
	if err != nil {
		return err
	}

	i.feed.Publish(i.addr, WithdrawEvent{Amount: balance}, i.clock.Now())
	return nil
}

// Cancel terminates the agreement early. Never checks the balance: a party
// can always walk away from an unfunded invoice.
func (i *Invoice) Cancel(caller common.Address) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if !i.initialized {
		return ErrNotInitialized
	}
	if caller != i.client && caller != i.provider {
		return ErrNotParty
	}
	if i.state == InvoiceStateCanceled {
		return ErrAlreadyCanceled
	}
	if i.state == InvoiceStateLocked {
		return ErrLocked
	}

	i.state = InvoiceStateCanceled
	i.feed.Publish(i.addr, CancelEvent{Sender: caller}, i.clock.Now())
	return nil
}

// Deny is the client's refusal to pay. Same guards as Cancel; afterwards the
// invoice is non-payable, only the withdraw paths remain.
func (i *Invoice) Deny(caller common.Address) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if !i.initialized {
		return ErrNotInitialized
	}
	if caller != i.client {
		return ErrNotParty
	}
	if i.state == InvoiceStateCanceled {
		return ErrAlreadyCanceled
	}
	if i.state == InvoiceStateLocked {
		return ErrLocked
	}

	i.state = InvoiceStateCanceled
	i.feed.Publish(i.addr, DenyEvent{Sender: caller}, i.clock.Now())
	return nil
}

// PayByClient is the client's voluntary settlement while a dispute lock is
// in effect. Pays the given amount to the provider and lifts the lock.
func (i *Invoice) PayByClient(caller common.Address, amount *big.Int) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if !i.initialized {
		return ErrNotInitialized
	}
	if caller != i.client {
		return ErrNotClient
	}
	if i.state != InvoiceStateLocked {
		return ErrNotLocked
	}

	err := i.ledger.Transfer(i.token, i.addr, i.provider, amount)
	if err != nil {
		return lib.WrapError(ErrInsufficientBalance, err)
	}

	i.released.Add(i.released, amount)
	i.state = InvoiceStateActive
	i.feed.Publish(i.addr, PayByClientEvent{Amount: new(big.Int).Set(amount)}, i.clock.Now())
	return nil
}

// read surface

func (i *Invoice) Client() common.Address {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.client
}

func (i *Invoice) Provider() common.Address {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.provider
}

func (i *Invoice) Token() common.Address {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.token
}

func (i *Invoice) Price() *big.Int {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	if i.price == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(i.price)
}

func (i *Invoice) TerminationTime() time.Time {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.terminationTime
}

func (i *Invoice) Details() common.Hash {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.details
}

func (i *Invoice) WrappedNativeToken() common.Address {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.wrappedNativeToken
}

func (i *Invoice) Released() *big.Int {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return new(big.Int).Set(i.released)
}

func (i *Invoice) State() InvoiceState {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.state
}

func (i *Invoice) Locked() bool {
	return i.State() == InvoiceStateLocked
}

func (i *Invoice) Canceled() bool {
	return i.State() == InvoiceStateCanceled
}

func (i *Invoice) Verified() bool {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.verified
}

func (i *Invoice) Balance() *big.Int {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.ledger.BalanceOf(i.token, i.addr)
}
