package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/tokenseikyu/escrow-node/internal/lib"
)

// EthereumWallet is the operator identity of the node. It supplies the
// default caller address for write operations issued over the HTTP surface.
type EthereumWallet struct {
	address    common.Address
	privateKey string
}

func NewEthereumWalletFromMnemonic(mnemonic string, accountIndex int) (*EthereumWallet, error) {
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	path := hdwallet.MustParseDerivationPath(fmt.Sprintf("m/44'/60'/0'/0/%d", accountIndex))

	account, err := wallet.Derive(path, false)
	if err != nil {
		return nil, err
	}

	address, err := wallet.Address(account)
	if err != nil {
		return nil, err
	}

	privateKey, err := wallet.PrivateKeyHex(account)
	if err != nil {
		return nil, err
	}

	return &EthereumWallet{
		address:    address,
		privateKey: privateKey,
	}, nil
}

func NewEthereumWalletFromPrivateKey(privateKey string) (*EthereumWallet, error) {
	address, err := lib.PrivKeyStringToAddr(privateKey)
	if err != nil {
		return nil, err
	}

	return &EthereumWallet{
		address:    address,
		privateKey: privateKey,
	}, nil
}

func (w *EthereumWallet) GetAccountAddress() common.Address {
	return w.address
}

func (w *EthereumWallet) GetPrivateKey() string {
	return w.privateKey
}
