package agent

import (
	"context"
	"encoding/json"

	txtypes "github.com/cosmos/cosmos-sdk/types/tx"

	"github.com/Layr-Labs/uniclient-go/pkg/amino"
)

// Ethereum-style provider methods used by the bridge wallet.
const (
	Method_RequestAccounts = "eth_requestAccounts"
	Method_Accounts        = "eth_accounts"
	Method_PersonalSign    = "personal_sign"
	Method_SignTypedDataV4 = "eth_signTypedData_v4"
)

const (
	Algo_Secp256k1    = "secp256k1"
	Algo_EthSecp256k1 = "ethsecp256k1"

	PubKeyType_Secp256k1Amino = "tendermint/PubKeySecp256k1"
)

// AccountData is an account as a Cosmos-style agent reports it.
type AccountData struct {
	Address string `json:"address"`
	Algo    string `json:"algo"`
	PubKey  []byte `json:"pubkey"`
}

// PubKey is the amino JSON public key attached to a signature.
type PubKey struct {
	Type  string `json:"type"`
	Value []byte `json:"value"`
}

type StdSignature struct {
	PubKey    PubKey `json:"pub_key"`
	Signature []byte `json:"signature"`
}

// DirectSignResponse carries the sign doc the agent actually signed, which may
// differ from the one it was given.
type DirectSignResponse struct {
	Signed    *txtypes.SignDoc
	Signature StdSignature
}

// AminoSignResponse carries the legacy sign doc the agent actually signed.
type AminoSignResponse struct {
	Signed    *amino.StdSignDoc `json:"signed"`
	Signature StdSignature      `json:"signature"`
}

// IOfflineSigner signs for the accounts of one chain.
type IOfflineSigner interface {
	GetAccounts(ctx context.Context) ([]AccountData, error)
	SignDirect(ctx context.Context, signerAddress string, signDoc *txtypes.SignDoc) (*DirectSignResponse, error)
	SignAmino(ctx context.Context, signerAddress string, signDoc *amino.StdSignDoc) (*AminoSignResponse, error)
}

// ICosmosProvider is a Cosmos-style signing agent.
type ICosmosProvider interface {
	Enable(ctx context.Context, chainID string) error
	GetOfflineSigner(ctx context.Context, chainID string) (IOfflineSigner, error)
}

// IEthereumProvider is an EIP-1193 style agent. Params are JSON encoded by the
// implementation; the raw JSON result is returned.
type IEthereumProvider interface {
	Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
}

type Currency struct {
	CoinDenom        string `json:"coinDenom"`
	CoinMinimalDenom string `json:"coinMinimalDenom"`
	CoinDecimals     int    `json:"coinDecimals"`
}

type FeeCurrency struct {
	Currency
	GasPriceStep GasPriceStep `json:"gasPriceStep"`
}

type GasPriceStep struct {
	Low     float64 `json:"low"`
	Average float64 `json:"average"`
	High    float64 `json:"high"`
}

type Bech32Config struct {
	AccountAddr   string `json:"bech32PrefixAccAddr"`
	AccountPub    string `json:"bech32PrefixAccPub"`
	ValidatorAddr string `json:"bech32PrefixValAddr"`
	ValidatorPub  string `json:"bech32PrefixValPub"`
	ConsensusAddr string `json:"bech32PrefixConsAddr"`
	ConsensusPub  string `json:"bech32PrefixConsPub"`
}

// NewBech32Config derives the standard prefix family from an account prefix.
func NewBech32Config(prefix string) Bech32Config {
	return Bech32Config{
		AccountAddr:   prefix,
		AccountPub:    prefix + "pub",
		ValidatorAddr: prefix + "valoper",
		ValidatorPub:  prefix + "valoperpub",
		ConsensusAddr: prefix + "valcons",
		ConsensusPub:  prefix + "valconspub",
	}
}

// ChainInfo describes a chain an agent does not know yet.
type ChainInfo struct {
	ChainID       string        `json:"chainId"`
	ChainName     string        `json:"chainName"`
	RPC           string        `json:"rpc"`
	REST          string        `json:"rest"`
	CoinType      uint32        `json:"coinType"`
	Bech32Config  Bech32Config  `json:"bech32Config"`
	Currencies    []Currency    `json:"currencies"`
	FeeCurrencies []FeeCurrency `json:"feeCurrencies"`
	StakeCurrency Currency      `json:"stakeCurrency"`
	Features      []string      `json:"features,omitempty"`
}

// IChainSuggester is implemented by agents that accept new chain definitions.
type IChainSuggester interface {
	SuggestChain(ctx context.Context, info *ChainInfo) error
}
