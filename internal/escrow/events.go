package escrow

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	depositSig     = "Deposit(address,uint256)"
	verifiedSig    = "Verified(address,address)"
	lockSig        = "Lock(address)"
	releaseSig     = "Release(uint256)"
	withdrawSig    = "Withdraw(uint256)"
	cancelSig      = "Cancel(address)"
	denySig        = "Deny(address)"
	payByClientSig = "PayByClient(uint256)"
	newInvoiceSig  = "LogNewInvoice(uint256,address,uint256)"
)

var (
	DepositTopic     = crypto.Keccak256Hash([]byte(depositSig))
	VerifiedTopic    = crypto.Keccak256Hash([]byte(verifiedSig))
	LockTopic        = crypto.Keccak256Hash([]byte(lockSig))
	ReleaseTopic     = crypto.Keccak256Hash([]byte(releaseSig))
	WithdrawTopic    = crypto.Keccak256Hash([]byte(withdrawSig))
	CancelTopic      = crypto.Keccak256Hash([]byte(cancelSig))
	DenyTopic        = crypto.Keccak256Hash([]byte(denySig))
	PayByClientTopic = crypto.Keccak256Hash([]byte(payByClientSig))
	NewInvoiceTopic  = crypto.Keccak256Hash([]byte(newInvoiceSig))
)

// Log is the record of one successful state transition. Exactly one log is
// published per transition, none on failure.
type Log struct {
	Seq       uint64
	Address   common.Address // emitter: invoice or factory
	Topic     common.Hash
	Timestamp time.Time
	Event     interface{}
}

type DepositEvent struct {
	Sender common.Address
	Amount *big.Int
}

type VerifiedEvent struct {
	Client  common.Address
	Invoice common.Address
}

type LockEvent struct {
	Sender common.Address
}

type ReleaseEvent struct {
	Amount *big.Int
}

type WithdrawEvent struct {
	Amount *big.Int
}

type CancelEvent struct {
	Sender common.Address
}

type DenyEvent struct {
	Sender common.Address
}

type PayByClientEvent struct {
	Amount *big.Int
}

type NewInvoiceEvent struct {
	Index   uint64
	Invoice common.Address
	Price   *big.Int
}

func topicOf(event interface{}) common.Hash {
	switch event.(type) {
	case DepositEvent:
		return DepositTopic
	case VerifiedEvent:
		return VerifiedTopic
	case LockEvent:
		return LockTopic
	case ReleaseEvent:
		return ReleaseTopic
	case WithdrawEvent:
		return WithdrawTopic
	case CancelEvent:
		return CancelTopic
	case DenyEvent:
		return DenyTopic
	case PayByClientEvent:
		return PayByClientTopic
	case NewInvoiceEvent:
		return NewInvoiceTopic
	default:
		return common.Hash{}
	}
}
