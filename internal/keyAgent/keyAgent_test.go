package keyAgent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator/localKeyGenerator"
	"github.com/Layr-Labs/uniclient-go/pkg/address"
	"github.com/Layr-Labs/uniclient-go/pkg/agent"
	"github.com/Layr-Labs/uniclient-go/pkg/amino"
	"github.com/Layr-Labs/uniclient-go/pkg/eip712"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testChainID  = "cosmoshub-4"
)

func newAgent(t *testing.T, coinType uint32, prefix string) *KeyAgent {
	t.Helper()
	logger := zaptest.NewLogger(t)
	generator := localKeyGenerator.NewLocalKeyGenerator(logger)
	hdPath := "m/44'/118'/0'/0/0"
	if coinType == CoinType_Ethereum {
		hdPath = "m/44'/60'/0'/0/0"
	}
	require.NoError(t, generator.LoadMnemonic("k0", testMnemonic, "", hdPath))

	a, err := NewKeyAgent(&KeyAgentConfig{
		KeyGenerator: generator,
		KeyIds:       []string{"k0"},
		Prefix:       prefix,
		CoinType:     coinType,
	}, logger)
	require.NoError(t, err)
	return a
}

func offline(t *testing.T, a *KeyAgent, chainID string) agent.IOfflineSigner {
	t.Helper()
	require.NoError(t, a.Enable(context.Background(), chainID))
	signer, err := a.GetOfflineSigner(context.Background(), chainID)
	require.NoError(t, err)
	return signer
}

func Test_NewKeyAgentValidation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	generator := localKeyGenerator.NewLocalKeyGenerator(logger)

	tests := []struct {
		name        string
		config      *KeyAgentConfig
		expectedErr string
	}{
		{name: "nil config", config: nil, expectedErr: "config cannot be nil"},
		{name: "missing generator", config: &KeyAgentConfig{KeyIds: []string{"a"}, Prefix: "cosmos"}, expectedErr: "key generator is required"},
		{name: "missing keys", config: &KeyAgentConfig{KeyGenerator: generator, Prefix: "cosmos"}, expectedErr: "at least one key id is required"},
		{name: "missing prefix", config: &KeyAgentConfig{KeyGenerator: generator, KeyIds: []string{"a"}}, expectedErr: "prefix is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKeyAgent(tt.config, logger)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}

	_, err := NewKeyAgent(&KeyAgentConfig{KeyGenerator: generator, KeyIds: []string{"a"}, Prefix: "cosmos"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger is required")
}

func Test_OfflineSignerRequiresEnable(t *testing.T) {
	a := newAgent(t, CoinType_Cosmos, "cosmos")
	_, err := a.GetOfflineSigner(context.Background(), testChainID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enabled")
}

func Test_CosmosAccounts(t *testing.T) {
	a := newAgent(t, CoinType_Cosmos, "cosmos")
	accounts, err := offline(t, a, testChainID).GetAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	acc := accounts[0]
	assert.Equal(t, agent.Algo_Secp256k1, acc.Algo)
	assert.Len(t, acc.PubKey, 33)
	assert.True(t, strings.HasPrefix(acc.Address, "cosmos1"))

	expected, err := address.Encode("cosmos", (&secp256k1.PubKey{Key: acc.PubKey}).Address().Bytes())
	require.NoError(t, err)
	assert.Equal(t, expected, acc.Address)
}

func Test_SignDirectVerifies(t *testing.T) {
	a := newAgent(t, CoinType_Cosmos, "cosmos")
	signer := offline(t, a, testChainID)
	accounts, err := signer.GetAccounts(context.Background())
	require.NoError(t, err)

	doc := &txtypes.SignDoc{BodyBytes: []byte{1, 2}, AuthInfoBytes: []byte{3}, ChainId: testChainID, AccountNumber: 9}
	resp, err := signer.SignDirect(context.Background(), accounts[0].Address, doc)
	require.NoError(t, err)
	assert.Equal(t, doc, resp.Signed)
	require.Len(t, resp.Signature.Signature, 64)
	assert.Equal(t, agent.PubKeyType_Secp256k1Amino, resp.Signature.PubKey.Type)

	bz, err := doc.Marshal()
	require.NoError(t, err)
	pub := secp256k1.PubKey{Key: accounts[0].PubKey}
	assert.True(t, pub.VerifySignature(bz, resp.Signature.Signature))

	t.Run("wrong chain", func(t *testing.T) {
		other := &txtypes.SignDoc{ChainId: "osmosis-1"}
		_, err := signer.SignDirect(context.Background(), accounts[0].Address, other)
		require.Error(t, err)
	})

	t.Run("unknown signer", func(t *testing.T) {
		stranger, err := address.Encode("cosmos", make([]byte, 20))
		require.NoError(t, err)
		_, err = signer.SignDirect(context.Background(), stranger, doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no key for address")
	})
}

func Test_SignAminoVerifies(t *testing.T) {
	a := newAgent(t, CoinType_Cosmos, "cosmos")
	signer := offline(t, a, testChainID)
	accounts, err := signer.GetAccounts(context.Background())
	require.NoError(t, err)

	doc := amino.MakeSignDoc(nil, types.Fee{Gas: "100000"}, testChainID, "memo", 1, 2)
	resp, err := signer.SignAmino(context.Background(), accounts[0].Address, doc)
	require.NoError(t, err)
	assert.Equal(t, doc, resp.Signed)

	bz, err := doc.SignBytes()
	require.NoError(t, err)
	pub := secp256k1.PubKey{Key: accounts[0].PubKey}
	assert.True(t, pub.VerifySignature(bz, resp.Signature.Signature))
}

func Test_EthereumCoinTypeAccounts(t *testing.T) {
	a := newAgent(t, CoinType_Ethereum, "evmos")
	accounts, err := offline(t, a, "evmos_9001-2").GetAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, agent.Algo_EthSecp256k1, accounts[0].Algo)

	eth, err := address.ToEthAddress(accounts[0].Address)
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", eth)

	doc := amino.MakeSignDoc(nil, types.Fee{Gas: "1"}, "evmos_9001-2", "", 0, 0)
	resp, err := offline(t, a, "evmos_9001-2").SignAmino(context.Background(), accounts[0].Address, doc)
	require.NoError(t, err)
	require.Len(t, resp.Signature.Signature, 65)
	assert.Equal(t, PubKeyType_EthSecp256k1Amino, resp.Signature.PubKey.Type)

	bz, err := doc.SignBytes()
	require.NoError(t, err)
	pub, err := crypto.SigToPub(crypto.Keccak256(bz), resp.Signature.Signature)
	require.NoError(t, err)
	assert.Equal(t, eth, crypto.PubkeyToAddress(*pub).Hex())
}

func Test_SuggestChainChangesPrefix(t *testing.T) {
	a := newAgent(t, CoinType_Cosmos, "cosmos")
	info := &agent.ChainInfo{ChainID: "titan_18889-1", ChainName: "Titan", Bech32Config: agent.NewBech32Config("titan")}
	require.NoError(t, a.SuggestChain(context.Background(), info))

	got, ok := a.SuggestedChain("titan_18889-1")
	require.True(t, ok)
	assert.Equal(t, "titanvaloper", got.Bech32Config.ValidatorAddr)

	accounts, err := offline(t, a, "titan_18889-1").GetAccounts(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(accounts[0].Address, "titan1"))

	require.Error(t, a.SuggestChain(context.Background(), &agent.ChainInfo{}))
}

func requestString(t *testing.T, a *KeyAgent, method string, params ...interface{}) string {
	t.Helper()
	raw, err := a.Request(context.Background(), method, params...)
	require.NoError(t, err)
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func Test_EthereumProvider(t *testing.T) {
	a := newAgent(t, CoinType_Ethereum, "evmos")
	const ethAddress = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"

	raw, err := a.Request(context.Background(), agent.Method_RequestAccounts)
	require.NoError(t, err)
	var addresses []string
	require.NoError(t, json.Unmarshal(raw, &addresses))
	assert.Equal(t, []string{ethAddress}, addresses)

	t.Run("personal_sign recovers to the account", func(t *testing.T) {
		message := []byte("Verify Public Key")
		sigHex := requestString(t, a, agent.Method_PersonalSign, hexutil.Encode(message), ethAddress)
		sig, err := hexutil.Decode(sigHex)
		require.NoError(t, err)
		require.Len(t, sig, 65)

		sig[64] -= 27
		pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
		require.NoError(t, err)
		assert.Equal(t, ethAddress, crypto.PubkeyToAddress(*pub).Hex())
	})

	t.Run("typed data recovers to the account", func(t *testing.T) {
		td, err := eip712.Build(eip712.NewAdapterTable(), &eip712.Request{
			TypeURLs: []string{"/cosmos.distribution.v1beta1.MsgWithdrawDelegatorReward"},
			Msgs: []amino.Msg{{
				Type:  "cosmos-sdk/MsgWithdrawDelegationReward",
				Value: json.RawMessage(`{"delegator_address":"evmos1a","validator_address":"evmosvaloper1b"}`),
			}},
			Fee:        types.Fee{Gas: "200000"},
			ChainID:    "evmos_9001-2",
			EVMChainID: 9001,
		})
		require.NoError(t, err)
		payload, err := json.Marshal(td)
		require.NoError(t, err)

		sigHex := requestString(t, a, agent.Method_SignTypedDataV4, ethAddress, string(payload))
		sig, err := hexutil.Decode(sigHex)
		require.NoError(t, err)

		hash, err := eip712.Hash(td)
		require.NoError(t, err)
		sig[64] -= 27
		pub, err := crypto.SigToPub(hash, sig)
		require.NoError(t, err)
		assert.Equal(t, ethAddress, crypto.PubkeyToAddress(*pub).Hex())
	})

	t.Run("unknown address", func(t *testing.T) {
		_, err := a.Request(context.Background(), agent.Method_PersonalSign, "0x00", "0x0000000000000000000000000000000000000001")
		require.Error(t, err)
	})

	t.Run("missing params", func(t *testing.T) {
		_, err := a.Request(context.Background(), agent.Method_SignTypedDataV4, ethAddress)
		require.Error(t, err)
	})

	t.Run("unsupported method", func(t *testing.T) {
		_, err := a.Request(context.Background(), "eth_sendTransaction")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not supported")
	})
}
