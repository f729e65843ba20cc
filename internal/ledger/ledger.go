package ledger

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tokenseikyu/escrow-node/internal/interfaces"
	"github.com/tokenseikyu/escrow-node/internal/lib"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeAmount    = errors.New("negative amount")
)

// Ledger keeps fungible token and native currency balances for the whole
// node. It stands in for the chain itself: every transfer is serialized
// under one mutex and either commits fully or not at all.
type Ledger struct {
	mutex  sync.RWMutex
	native map[common.Address]*big.Int
	tokens map[common.Address]map[common.Address]*big.Int

	log interfaces.ILogger
}

func NewLedger(log interfaces.ILogger) *Ledger {
	return &Ledger{
		native: make(map[common.Address]*big.Int),
		tokens: make(map[common.Address]map[common.Address]*big.Int),
		log:    log,
	}
}

// BalanceOf returns a copy of the holder's balance of the given token.
func (l *Ledger) BalanceOf(token, holder common.Address) *big.Int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return new(big.Int).Set(l.balanceOf(token, holder))
}

func (l *Ledger) balanceOf(token, holder common.Address) *big.Int {
	holders, ok := l.tokens[token]
	if !ok {
		return big.NewInt(0)
	}
	balance, ok := holders[holder]
	if !ok {
		return big.NewInt(0)
	}
	return balance
}

func (l *Ledger) Transfer(token, from, to common.Address, amount *big.Int) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	balance := l.balanceOf(token, from)
	if balance.Cmp(amount) < 0 {
		return lib.WrapError(ErrInsufficientFunds, errors.New("token "+lib.ShortAddr(token)+" holder "+lib.ShortAddr(from)))
	}

	l.credit(token, from, new(big.Int).Neg(amount))
	l.credit(token, to, amount)

	l.log.Debugf("transfer %s of token %s: %s -> %s", amount.String(), lib.ShortAddr(token), lib.ShortAddr(from), lib.ShortAddr(to))
	return nil
}

// Mint credits freshly issued token units to the holder. Used by the wrapped
// native token adapter and by test fixtures.
func (l *Ledger) Mint(token, to common.Address, amount *big.Int) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.credit(token, to, amount)
	return nil
}

func (l *Ledger) credit(token, holder common.Address, delta *big.Int) {
	holders, ok := l.tokens[token]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		l.tokens[token] = holders
	}
	balance, ok := holders[holder]
	if !ok {
		balance = big.NewInt(0)
		holders[holder] = balance
	}
	balance.Add(balance, delta)
}

func (l *Ledger) NativeBalanceOf(addr common.Address) *big.Int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	balance, ok := l.native[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

func (l *Ledger) TransferNative(from, to common.Address, amount *big.Int) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	balance, ok := l.native[from]
	if !ok || balance.Cmp(amount) < 0 {
		return lib.WrapError(ErrInsufficientFunds, errors.New("native holder "+lib.ShortAddr(from)))
	}

	balance.Sub(balance, amount)
	l.creditNative(to, amount)
	return nil
}

// CreditNative issues native currency out of thin air. Genesis allocations
// and tests only.
func (l *Ledger) CreditNative(addr common.Address, amount *big.Int) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.creditNative(addr, amount)
}

func (l *Ledger) creditNative(addr common.Address, amount *big.Int) {
	balance, ok := l.native[addr]
	if !ok {
		balance = big.NewInt(0)
		l.native[addr] = balance
	}
	balance.Add(balance, amount)
}
