package eip712

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/uniclient-go/pkg/amino"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const (
	msgSendURL     = "/cosmos.bank.v1beta1.MsgSend"
	msgDelegateURL = "/cosmos.staking.v1beta1.MsgDelegate"
)

func sendMsg() amino.Msg {
	return amino.Msg{
		Type:  "cosmos-sdk/MsgSend",
		Value: json.RawMessage(`{"from_address":"titan1from","to_address":"titan1to","amount":[{"denom":"atkx","amount":"1000"}]}`),
	}
}

func baseRequest() *Request {
	return &Request{
		TypeURLs:      []string{msgSendURL},
		Msgs:          []amino.Msg{sendMsg()},
		Fee:           types.Fee{Amount: []types.Coin{{Denom: "atkx", Amount: "20"}}, Gas: "200000"},
		FeePayer:      "titan1from",
		ChainID:       "titan_18889-1",
		EVMChainID:    18889,
		Memo:          "eip712",
		AccountNumber: 12,
		Sequence:      4,
	}
}

func Test_Build(t *testing.T) {
	td, err := Build(NewAdapterTable(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, PrimaryType, td.PrimaryType)
	assert.Equal(t, DomainName, td.Domain.Name)
	assert.Equal(t, int64(18889), (*big.Int)(td.Domain.ChainId).Int64())
	assert.Equal(t, "12", td.Message["account_number"])
	assert.Equal(t, "4", td.Message["sequence"])
	assert.Contains(t, td.Types, "MsgValue")
	assert.Contains(t, td.Types, "TypeAmount")

	fee := td.Message["fee"].(map[string]interface{})
	assert.Equal(t, "titan1from", fee["feePayer"])
	assert.Equal(t, "200000", fee["gas"])

	hash, err := Hash(td)
	require.NoError(t, err)
	assert.Len(t, hash, 32)
}

func Test_BuildDomainChainIDKeepsFullUint64(t *testing.T) {
	tests := []struct {
		name       string
		evmChainID uint64
	}{
		{name: "small", evmChainID: 9001},
		{name: "high bit set", evmChainID: 1 << 63},
		{name: "max", evmChainID: ^uint64(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			req.EVMChainID = tt.evmChainID
			td, err := Build(NewAdapterTable(), req)
			require.NoError(t, err)

			chainID := (*big.Int)(td.Domain.ChainId)
			assert.Equal(t, 1, chainID.Sign())
			assert.True(t, chainID.IsUint64())
			assert.Equal(t, tt.evmChainID, chainID.Uint64())

			_, err = Hash(td)
			require.NoError(t, err)
		})
	}
}

func Test_BuildJSONRoundTripHashesEqual(t *testing.T) {
	td, err := Build(NewAdapterTable(), baseRequest())
	require.NoError(t, err)

	bz, err := json.Marshal(td)
	require.NoError(t, err)

	var decoded apitypes.TypedData
	require.NoError(t, json.Unmarshal(bz, &decoded))

	want, err := Hash(td)
	require.NoError(t, err)
	got, err := Hash(&decoded)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func Test_BuildUnsupportedMessage(t *testing.T) {
	req := baseRequest()
	req.TypeURLs = []string{"/cosmwasm.wasm.v1.MsgExecuteContract"}

	_, err := Build(NewAdapterTable(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedMessageType))
}

func Test_BuildMixedSchemas(t *testing.T) {
	req := baseRequest()
	req.TypeURLs = []string{msgSendURL, msgDelegateURL}
	req.Msgs = []amino.Msg{sendMsg(), {
		Type:  "cosmos-sdk/MsgDelegate",
		Value: json.RawMessage(`{"delegator_address":"a","validator_address":"b","amount":{"denom":"atkx","amount":"1"}}`),
	}}

	_, err := Build(NewAdapterTable(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedMessageType))
}

func Test_BuildFillsOmittedFields(t *testing.T) {
	req := baseRequest()
	req.TypeURLs = []string{msgDelegateURL}
	req.Msgs = []amino.Msg{{
		Type:  "cosmos-sdk/MsgDelegate",
		Value: json.RawMessage(`{"delegator_address":"a","validator_address":"b"}`),
	}}

	td, err := Build(NewAdapterTable(), req)
	require.NoError(t, err)

	msgs := td.Message["msgs"].([]interface{})
	value := msgs[0].(map[string]interface{})["value"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"denom": "", "amount": ""}, value["amount"])

	_, err = Hash(td)
	require.NoError(t, err)
}

func Test_BuildRejectsUndeclaredFields(t *testing.T) {
	req := baseRequest()
	req.Msgs = []amino.Msg{{
		Type:  "cosmos-sdk/MsgSend",
		Value: json.RawMessage(`{"from_address":"a","to_address":"b","amount":[],"surprise":"x"}`),
	}}

	_, err := Build(NewAdapterTable(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surprise")
}

func Test_AdapterTableRegister(t *testing.T) {
	table := NewAdapterTable()
	_, err := table.Lookup("/titan.custom.v1.MsgPing")
	require.Error(t, err)

	table.Register("/titan.custom.v1.MsgPing", Adapter{Types: apitypes.Types{
		"MsgValue": {{Name: "payload", Type: "string"}},
	}})

	req := baseRequest()
	req.TypeURLs = []string{"/titan.custom.v1.MsgPing"}
	req.Msgs = []amino.Msg{{Type: "titan/MsgPing", Value: json.RawMessage(`{"payload":"hi"}`)}}

	td, err := Build(table, req)
	require.NoError(t, err)
	_, err = Hash(td)
	require.NoError(t, err)
}

func Test_BuildValidation(t *testing.T) {
	_, err := Build(NewAdapterTable(), &Request{})
	require.Error(t, err)

	req := baseRequest()
	req.TypeURLs = nil
	_, err = Build(NewAdapterTable(), req)
	require.Error(t, err)
}
