package txcodec

import (
	"testing"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RegistryPackUnpack(t *testing.T) {
	r := newTestRegistry(t)

	msg := &wasmtypes.MsgExecuteContract{
		Sender:   testAddress(t, 1),
		Contract: testAddress(t, 2),
		Msg:      wasmtypes.RawContractMessage(`{"ping":{}}`),
	}
	anyMsg, err := r.PackMsg(msg)
	require.NoError(t, err)
	assert.Equal(t, "/cosmwasm.wasm.v1.MsgExecuteContract", anyMsg.TypeUrl)

	unpacked, err := r.UnpackMsg(anyMsg)
	require.NoError(t, err)
	exec, ok := unpacked.(*wasmtypes.MsgExecuteContract)
	require.True(t, ok)
	assert.Equal(t, msg.Sender, exec.Sender)

	_, err = r.UnpackMsg(nil)
	require.Error(t, err)
}

func Test_RegistryMsgJSON(t *testing.T) {
	r := newTestRegistry(t)

	anyMsg, err := r.PackMsg(&banktypes.MsgSend{
		FromAddress: testAddress(t, 1),
		ToAddress:   testAddress(t, 2),
		Amount:      sdk.NewCoins(sdk.NewInt64Coin("uatom", 10)),
	})
	require.NoError(t, err)

	bz, err := r.EncodeMsgJSON(anyMsg)
	require.NoError(t, err)
	assert.Contains(t, string(bz), `"@type":"/cosmos.bank.v1beta1.MsgSend"`)

	decoded, err := r.DecodeMsgJSON(bz)
	require.NoError(t, err)
	assert.Equal(t, anyMsg.TypeUrl, decoded.TypeUrl)
	assert.Equal(t, anyMsg.Value, decoded.Value)

	t.Run("unknown type url", func(t *testing.T) {
		_, err := r.DecodeMsgJSON([]byte(`{"@type":"/titan.unknown.MsgNothing"}`))
		require.Error(t, err)
	})
}

func Test_RegisterModule(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.DecodeMsgJSON([]byte(`{"@type":"/cosmos.bank.v1beta1.MsgSend","from_address":"a","to_address":"b","amount":[]}`))
	require.Error(t, err)

	r.RegisterModule(Module{
		Name:                     "bank",
		RegisterInterfaces:       banktypes.RegisterInterfaces,
		RegisterLegacyAminoCodec: banktypes.RegisterLegacyAminoCodec,
	})

	decoded, err := r.DecodeMsgJSON([]byte(`{"@type":"/cosmos.bank.v1beta1.MsgSend","from_address":"a","to_address":"b","amount":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "/cosmos.bank.v1beta1.MsgSend", decoded.TypeUrl)
}
