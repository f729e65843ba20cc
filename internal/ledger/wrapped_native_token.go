package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WrappedNativeToken converts native currency into an equal balance of a
// fungible token, 1:1 with no fee, so escrows account in token units only.
type WrappedNativeToken struct {
	addr   common.Address
	ledger *Ledger
}

func NewWrappedNativeToken(addr common.Address, ledger *Ledger) *WrappedNativeToken {
	return &WrappedNativeToken{
		addr:   addr,
		ledger: ledger,
	}
}

func (w *WrappedNativeToken) Address() common.Address {
	return w.addr
}

// Deposit burns `amount` of the holder's native balance and mints the same
// amount of the wrapped token to the holder. Fails without side effect if
// the native balance is short.
func (w *WrappedNativeToken) Deposit(holder common.Address, amount *big.Int) error {
	err := w.ledger.TransferNative(holder, w.addr, amount)
	if err != nil {
		return err
	}
	return w.ledger.Mint(w.addr, holder, amount)
}
