package chainid

import (
	"errors"
	"testing"

	"github.com/Layr-Labs/uniclient-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_KeyType(t *testing.T) {
	tests := []struct {
		chainID  string
		expected string
	}{
		{chainID: "name_12345-1", expected: KeyType_EthermintSecp256k1},
		{chainID: "evmos_9001-2", expected: KeyType_EthermintSecp256k1},
		{chainID: Titan_Mainnet, expected: KeyType_EthermintSecp256k1},
		{chainID: "injective-1", expected: KeyType_InjectiveSecp256k1},
		{chainID: "injective-888", expected: KeyType_InjectiveSecp256k1},
		{chainID: "cosmoshub-4", expected: KeyType_Secp256k1},
		{chainID: "osmosis-1", expected: KeyType_Secp256k1},
		{chainID: "", expected: KeyType_Secp256k1},
	}
	for _, tt := range tests {
		t.Run(tt.chainID, func(t *testing.T) {
			assert.Equal(t, tt.expected, KeyType(tt.chainID))
		})
	}
}

func Test_IsEthermint(t *testing.T) {
	assert.True(t, IsEthermint(Titan_Testnet))
	assert.True(t, IsEthermint("dymension_1100-1"))
	assert.False(t, IsEthermint("cosmoshub-4"))
	assert.False(t, IsEthermint("x_-5"))
}

func Test_ExtractEVMChainID(t *testing.T) {
	tests := []struct {
		chainID  string
		expected uint64
	}{
		{chainID: "evmos_9001-2", expected: 9001},
		{chainID: Titan_Mainnet, expected: 18888},
		{chainID: "cosmoshub-4", expected: 0},
		{chainID: "x_-5", expected: 0},
		{chainID: "_9001-2", expected: 0},
		{chainID: "evmos-9001_2", expected: 0},
		{chainID: "evmos_abc-1", expected: 0},
		{chainID: "", expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.chainID, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractEVMChainID(tt.chainID))
		})
	}
}

func Test_ParseEVMChainID(t *testing.T) {
	id, err := ParseEVMChainID("evmos_9001-2")
	require.NoError(t, err)
	assert.Equal(t, uint64(9001), id)

	for _, malformed := range []string{"cosmoshub-4", "_1-1", "evmos_abc-1"} {
		t.Run(malformed, func(t *testing.T) {
			_, err := ParseEVMChainID(malformed)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrMalformedChainID))
		})
	}

	t.Run("empty digit run parses to zero", func(t *testing.T) {
		id, err := ParseEVMChainID("x_-5")
		require.NoError(t, err)
		assert.Equal(t, uint64(0), id)
	})
}
