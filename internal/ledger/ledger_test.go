package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenseikyu/escrow-node/internal/lib"
)

func TestTransfer(t *testing.T) {
	led := NewLedger(lib.NewTestLogger())
	token := lib.GetRandomAddr()
	alice := lib.GetRandomAddr()
	bob := lib.GetRandomAddr()

	require.NoError(t, led.Mint(token, alice, big.NewInt(100)))

	err := led.Transfer(token, alice, bob, big.NewInt(30))
	require.NoError(t, err)

	assert.Equal(t, int64(70), led.BalanceOf(token, alice).Int64())
	assert.Equal(t, int64(30), led.BalanceOf(token, bob).Int64())
}

func TestTransferInsufficient(t *testing.T) {
	led := NewLedger(lib.NewTestLogger())
	token := lib.GetRandomAddr()
	alice := lib.GetRandomAddr()
	bob := lib.GetRandomAddr()

	require.NoError(t, led.Mint(token, alice, big.NewInt(10)))

	err := led.Transfer(token, alice, bob, big.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// nothing moved
	assert.Equal(t, int64(10), led.BalanceOf(token, alice).Int64())
	assert.Equal(t, int64(0), led.BalanceOf(token, bob).Int64())
}

func TestTransferNegative(t *testing.T) {
	led := NewLedger(lib.NewTestLogger())
	token := lib.GetRandomAddr()
	alice := lib.GetRandomAddr()

	require.ErrorIs(t, led.Transfer(token, alice, alice, big.NewInt(-1)), ErrNegativeAmount)
	require.ErrorIs(t, led.Mint(token, alice, big.NewInt(-1)), ErrNegativeAmount)
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	led := NewLedger(lib.NewTestLogger())
	token := lib.GetRandomAddr()
	alice := lib.GetRandomAddr()

	require.NoError(t, led.Mint(token, alice, big.NewInt(5)))

	balance := led.BalanceOf(token, alice)
	balance.SetInt64(9999)
	assert.Equal(t, int64(5), led.BalanceOf(token, alice).Int64())
}

func TestNativeTransfer(t *testing.T) {
	led := NewLedger(lib.NewTestLogger())
	alice := lib.GetRandomAddr()
	bob := lib.GetRandomAddr()

	led.CreditNative(alice, big.NewInt(50))

	require.NoError(t, led.TransferNative(alice, bob, big.NewInt(20)))
	assert.Equal(t, int64(30), led.NativeBalanceOf(alice).Int64())
	assert.Equal(t, int64(20), led.NativeBalanceOf(bob).Int64())

	require.ErrorIs(t, led.TransferNative(alice, bob, big.NewInt(31)), ErrInsufficientFunds)
}

func TestWrappedNativeTokenDeposit(t *testing.T) {
	led := NewLedger(lib.NewTestLogger())
	wrapped := NewWrappedNativeToken(lib.GetRandomAddr(), led)
	alice := lib.GetRandomAddr()

	led.CreditNative(alice, big.NewInt(100))

	require.NoError(t, wrapped.Deposit(alice, big.NewInt(40)))

	// 1:1 conversion, no fee
	assert.Equal(t, int64(60), led.NativeBalanceOf(alice).Int64())
	assert.Equal(t, int64(40), led.BalanceOf(wrapped.Address(), alice).Int64())
}

func TestWrappedNativeTokenDepositInsufficient(t *testing.T) {
	led := NewLedger(lib.NewTestLogger())
	wrapped := NewWrappedNativeToken(lib.GetRandomAddr(), led)
	alice := lib.GetRandomAddr()

	err := wrapped.Deposit(alice, big.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(0), led.BalanceOf(wrapped.Address(), alice).Int64())
}
