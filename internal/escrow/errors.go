package escrow

import "errors"

// Guard errors of the invoice state machine and the factory. The messages
// mirror the revert strings of the on-chain contract so off-chain consumers
// built against it keep working.
var (
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotInitialized     = errors.New("not initialized")

	ErrInvalidClient       = errors.New("invalid client")
	ErrInvalidProvider     = errors.New("invalid provider")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidWrappedToken = errors.New("invalid wrappedNativeToken")
	ErrDurationEnded       = errors.New("duration ended")
	ErrDurationTooLong     = errors.New("duration too long")

	ErrNotParty  = errors.New("!party")
	ErrNotClient = errors.New("!client")

	ErrAlreadyLocked   = errors.New("already locked")
	ErrLocked          = errors.New("locked")
	ErrNotLocked       = errors.New("!locked")
	ErrAlreadyCanceled = errors.New("canceled")

	ErrTerminated    = errors.New("terminated")
	ErrNotTerminated = errors.New("!terminated")

	ErrBalanceZero         = errors.New("balance is 0")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWrongToken          = errors.New("!wrappedNativeToken")

	ErrOutOfRange            = errors.New("index out of range")
	ErrInvalidImplementation = errors.New("invalid implementation")
	ErrAlreadyDeployed       = errors.New("already deployed")
	ErrUnknownInvoice        = errors.New("unknown invoice")
)
