package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet signs transactions for a single account
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	signer  ethtypes.Signer
}

// NewWallet creates a wallet from a hex encoded private key
func NewWallet(privateKeyHex string, chainID *big.Int) (*Wallet, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("%w: chain id must be positive", types.ErrConfiguration)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key", types.ErrConfiguration)
	}
	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		signer:  ethtypes.LatestSignerForChainID(chainID),
	}, nil
}

// Address returns the account address
func (w *Wallet) Address() common.Address {
	return w.address
}

// SignTx signs tx for the wallet's chain
func (w *Wallet) SignTx(tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	signed, err := ethtypes.SignTx(tx, w.signer, w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// EnsureFunded fails with ErrConfiguration when the account holds no
// native balance
func (w *Wallet) EnsureFunded(ctx context.Context, client Client) (*big.Int, error) {
	balance, err := client.BalanceAt(ctx, w.address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet balance: %w", err)
	}
	if balance == nil || balance.Sign() == 0 {
		return nil, fmt.Errorf("%w: wallet %s has no balance", types.ErrConfiguration, w.address.Hex())
	}
	return balance, nil
}

// GenerateKey creates a new random account and returns its hex encoded
// private key
func GenerateKey() (string, common.Address, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", common.Address{}, fmt.Errorf("failed to generate key: %w", err)
	}
	return hexutil.Encode(crypto.FromECDSA(key)), crypto.PubkeyToAddress(key.PublicKey), nil
}
