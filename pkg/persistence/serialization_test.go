package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

func TestMarshalConnectedIdentity_WireShape(t *testing.T) {
	data, err := MarshalConnectedIdentity(&types.ConnectedIdentity{
		Agent:   types.WalletName_Keplr,
		Address: "cosmos1abc",
		HDPath:  types.DefaultHDPath,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"agent":"Keplr","address":"cosmos1abc","hdPath":"m/44'/118'/0'/0/0"}`, string(data))

	restored, err := UnmarshalConnectedIdentity(data)
	require.NoError(t, err)
	assert.Equal(t, "cosmos1abc", restored.Address)
}

func TestMarshalConnectedIdentity_NilInput(t *testing.T) {
	_, err := MarshalConnectedIdentity(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil ConnectedIdentity")
}

func TestUnmarshal_EmptyAndInvalid(t *testing.T) {
	_, err := UnmarshalConnectedIdentity(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty data")

	_, err = UnmarshalAccounts([]byte(`{"address": 1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestMarshalAccounts_NilIsEmptyArray(t *testing.T) {
	data, err := MarshalAccounts(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	accounts, err := UnmarshalAccounts(data)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
