package types

import (
	"fmt"
	"strconv"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
)

// DefaultHDPath is the BIP-44 derivation path used when a wallet argument does not name one.
const DefaultHDPath = "m/44'/118'/0'/0/0"

// WalletName identifies a signing agent.
type WalletName string

const (
	WalletName_Keplr       WalletName = "Keplr"
	WalletName_Leap        WalletName = "Leap"
	WalletName_Metamask    WalletName = "Metamask"
	WalletName_Address     WalletName = "Address"
	WalletName_NameService WalletName = "Nameservice"
)

func (w WalletName) String() string {
	return string(w)
}

// BroadcastMode is the gateway broadcast mode sent alongside tx bytes.
type BroadcastMode string

const (
	BroadcastMode_Sync  BroadcastMode = "BROADCAST_MODE_SYNC"
	BroadcastMode_Block BroadcastMode = "BROADCAST_MODE_BLOCK"
	BroadcastMode_Async BroadcastMode = "BROADCAST_MODE_ASYNC"
)

func (m BroadcastMode) String() string {
	return string(m)
}

// ParseBroadcastMode accepts either the short form ("sync") or the full enum name.
func ParseBroadcastMode(s string) (BroadcastMode, error) {
	switch s {
	case "sync", "SYNC", string(BroadcastMode_Sync):
		return BroadcastMode_Sync, nil
	case "block", "BLOCK", string(BroadcastMode_Block):
		return BroadcastMode_Block, nil
	case "async", "ASYNC", string(BroadcastMode_Async):
		return BroadcastMode_Async, nil
	default:
		return "", fmt.Errorf("unsupported broadcast mode: %s", s)
	}
}

type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type Fee struct {
	Amount  []Coin `json:"amount"`
	Gas     string `json:"gas"`
	Granter string `json:"granter,omitempty"`
	Payer   string `json:"payer,omitempty"`
}

// GasLimit parses the decimal gas string.
func (f Fee) GasLimit() (uint64, error) {
	gas, err := strconv.ParseUint(f.Gas, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid gas limit %q: %w", f.Gas, err)
	}
	return gas, nil
}

type SignerData struct {
	ChainID       string `json:"chain_id"`
	AccountNumber uint64 `json:"account_number"`
	Sequence      uint64 `json:"sequence"`
}

// Transaction is the caller-supplied unsigned transaction. Signers treat it as read-only.
type Transaction struct {
	Messages      []*codectypes.Any
	Memo          string
	Fee           Fee
	SignerData    SignerData
	SignerAddress string
}

// Account is a signing account reported by an agent.
type Account struct {
	Address    string `json:"address"`
	Algo       string `json:"algo"`
	PubKey     []byte `json:"pubkey"`
	EthAddress string `json:"ethAddress,omitempty"`
}

// SignedEnvelope carries the exact bytes that were signed plus one signature per signer.
type SignedEnvelope struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	Signatures    [][]byte
}

// ConnectedIdentity is the persisted record of the last connected agent.
type ConnectedIdentity struct {
	Agent   WalletName `json:"agent"`
	Address string     `json:"address"`
	HDPath  string     `json:"hdPath"`
}

// WalletArgument is construction-time configuration for a wallet.
type WalletArgument struct {
	ChainID   string
	HDPath    string
	Prefix    string
	Transport string

	// Address and Name are only read by the watch-only identities.
	Address string
	Name    string
}

// GetHDPath returns the configured derivation path or DefaultHDPath.
func (a WalletArgument) GetHDPath() string {
	if a.HDPath == "" {
		return DefaultHDPath
	}
	return a.HDPath
}
