package escrow

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenseikyu/escrow-node/internal/ledger"
	"github.com/tokenseikyu/escrow-node/internal/lib"
)

type factoryFixture struct {
	*fixture
	factory *InvoiceFactory
}

func newFactoryFixture(t *testing.T) *factoryFixture {
	t.Helper()
	f := newFixture(t)
	log := lib.NewTestLogger()

	implementation := NewInvoice(lib.GetRandomAddr(), 0, f.ledger, f.wrapped, f.clock, f.feed, log)
	require.NoError(t, implementation.InitLock())

	factory, err := NewInvoiceFactory(lib.GetRandomAddr(), implementation, f.wrapped, false, 0, f.ledger, f.clock, f.feed, log)
	require.NoError(t, err)

	return &factoryFixture{fixture: f, factory: factory}
}

func (f *factoryFixture) create(t *testing.T) *Invoice {
	t.Helper()
	invoice, err := f.factory.Create(f.client, f.provider, f.token, f.price, f.clock.Now().Add(termIn), common.Hash{})
	require.NoError(t, err)
	return invoice
}

func TestFactoryStartsEmpty(t *testing.T) {
	f := newFactoryFixture(t)
	assert.Equal(t, uint64(0), f.factory.InvoiceCount())

	_, err := f.factory.GetInvoiceAddress(0)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestFactoryConstructorValidation(t *testing.T) {
	f := newFixture(t)
	log := lib.NewTestLogger()

	_, err := NewInvoiceFactory(lib.GetRandomAddr(), nil, f.wrapped, false, 0, f.ledger, f.clock, f.feed, log)
	require.ErrorIs(t, err, ErrInvalidImplementation)

	zeroImpl := NewInvoice(common.Address{}, 0, f.ledger, f.wrapped, f.clock, f.feed, log)
	_, err = NewInvoiceFactory(lib.GetRandomAddr(), zeroImpl, f.wrapped, false, 0, f.ledger, f.clock, f.feed, log)
	require.ErrorIs(t, err, ErrInvalidImplementation)

	implementation := NewInvoice(lib.GetRandomAddr(), 0, f.ledger, f.wrapped, f.clock, f.feed, log)
	zeroWrapped := ledger.NewWrappedNativeToken(common.Address{}, f.ledger)
	_, err = NewInvoiceFactory(lib.GetRandomAddr(), implementation, zeroWrapped, false, 0, f.ledger, f.clock, f.feed, log)
	require.ErrorIs(t, err, ErrInvalidWrappedToken)
}

func TestFactoryCreate(t *testing.T) {
	f := newFactoryFixture(t)

	invoice := f.create(t)

	assert.Equal(t, f.client, invoice.Client())
	assert.Equal(t, f.provider, invoice.Provider())
	assert.Equal(t, f.token, invoice.Token())
	assert.Equal(t, int64(10), invoice.Price().Int64())
	assert.Equal(t, f.wrapped.Address(), invoice.WrappedNativeToken())
	assert.False(t, invoice.Canceled())

	assert.Equal(t, uint64(1), f.factory.InvoiceCount())
	addr, err := f.factory.GetInvoiceAddress(0)
	require.NoError(t, err)
	assert.Equal(t, invoice.Address(), addr)

	got, err := f.factory.GetInvoice(invoice.Address())
	require.NoError(t, err)
	assert.Same(t, invoice, got)

	logs := f.feed.History(f.factory.Address())
	require.Len(t, logs, 1)
	assert.Equal(t, NewInvoiceTopic, logs[0].Topic)
	event := logs[0].Event.(NewInvoiceEvent)
	assert.Equal(t, uint64(0), event.Index)
	assert.Equal(t, invoice.Address(), event.Invoice)
	assert.Equal(t, int64(10), event.Price.Int64())
}

func TestFactoryCreateRejectsBadTerms(t *testing.T) {
	f := newFactoryFixture(t)

	_, err := f.factory.Create(common.Address{}, f.provider, f.token, f.price, f.clock.Now().Add(termIn), common.Hash{})
	require.ErrorIs(t, err, ErrInvalidClient)

	_, err = f.factory.Create(f.client, f.provider, f.token, f.price, f.clock.Now().Add(-time.Hour), common.Hash{})
	require.ErrorIs(t, err, ErrDurationEnded)

	// no partial state after a failed creation
	assert.Equal(t, uint64(0), f.factory.InvoiceCount())
	assert.Empty(t, f.feed.History(f.factory.Address()))
}

func TestFactoryCountAndRegistryOrder(t *testing.T) {
	f := newFactoryFixture(t)

	first := f.create(t)
	assert.Equal(t, uint64(1), f.factory.InvoiceCount())
	second := f.create(t)
	assert.Equal(t, uint64(2), f.factory.InvoiceCount())

	addr0, err := f.factory.GetInvoiceAddress(0)
	require.NoError(t, err)
	addr1, err := f.factory.GetInvoiceAddress(1)
	require.NoError(t, err)

	assert.Equal(t, first.Address(), addr0)
	assert.Equal(t, second.Address(), addr1)
	assert.NotEqual(t, addr0, addr1)

	_, err = f.factory.GetInvoiceAddress(2)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestFactoryDeterministicRoundTrip(t *testing.T) {
	f := newFactoryFixture(t)
	salt := common.HexToHash("0x01")

	predicted := f.factory.PredictDeterministicAddress(salt)

	invoice, err := f.factory.CreateDeterministic(f.client, f.provider, f.token, f.price, f.clock.Now().Add(termIn), common.Hash{}, salt)
	require.NoError(t, err)
	assert.Equal(t, predicted, invoice.Address())

	// prediction is pure: same salt, same address
	assert.Equal(t, predicted, f.factory.PredictDeterministicAddress(salt))

	// the slot is taken now
	_, err = f.factory.CreateDeterministic(f.client, f.provider, f.token, f.price, f.clock.Now().Add(termIn), common.Hash{}, salt)
	require.ErrorIs(t, err, ErrAlreadyDeployed)

	// a different salt maps elsewhere
	other := f.factory.PredictDeterministicAddress(common.HexToHash("0x02"))
	assert.NotEqual(t, predicted, other)
}

func TestFactoryClonesShareNothing(t *testing.T) {
	f := newFactoryFixture(t)

	first := f.create(t)
	second := f.create(t)

	require.NoError(t, f.ledger.Mint(f.token, first.Address(), big.NewInt(10)))
	require.NoError(t, first.Lock(f.client))

	assert.True(t, first.Locked())
	assert.False(t, second.Locked())
	assert.Equal(t, int64(0), second.Balance().Int64())
}

func TestFactoryRequireVerificationPropagates(t *testing.T) {
	f := newFixture(t)
	log := lib.NewTestLogger()

	implementation := NewInvoice(lib.GetRandomAddr(), 0, f.ledger, f.wrapped, f.clock, f.feed, log)
	require.NoError(t, implementation.InitLock())

	factory, err := NewInvoiceFactory(lib.GetRandomAddr(), implementation, f.wrapped, true, 0, f.ledger, f.clock, f.feed, log)
	require.NoError(t, err)

	invoice, err := factory.Create(f.client, f.provider, f.token, f.price, f.clock.Now().Add(termIn), common.Hash{})
	require.NoError(t, err)
	assert.False(t, invoice.Verified())
}
