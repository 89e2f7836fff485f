package address

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EIP-55 reference vector
const checksummedEthAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func Test_EncodeDecode(t *testing.T) {
	raw := bytes.Repeat([]byte{0xab}, 20)

	bech, err := Encode("cosmos", raw)
	require.NoError(t, err)
	assert.Contains(t, bech, "cosmos1")

	hrp, decoded, err := Decode(bech)
	require.NoError(t, err)
	assert.Equal(t, "cosmos", hrp)
	assert.Equal(t, raw, decoded)

	t.Run("empty prefix is rejected", func(t *testing.T) {
		_, err := Encode("", raw)
		require.Error(t, err)
	})

	t.Run("garbage does not decode", func(t *testing.T) {
		_, _, err := Decode("cosmos1notanaddress")
		require.Error(t, err)
	})
}

func Test_EthAddressMapping(t *testing.T) {
	bech, err := FromEthAddress(checksummedEthAddress, "titan")
	require.NoError(t, err)
	assert.Contains(t, bech, "titan1")

	back, err := ToEthAddress(bech)
	require.NoError(t, err)
	assert.Equal(t, checksummedEthAddress, back)

	t.Run("lower case input maps to the same account", func(t *testing.T) {
		lower, err := FromEthAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "titan")
		require.NoError(t, err)
		assert.Equal(t, bech, lower)
	})

	t.Run("invalid hex", func(t *testing.T) {
		_, err := FromEthAddress("0x1234", "titan")
		require.Error(t, err)
	})

	t.Run("non 20 byte account cannot become hex", func(t *testing.T) {
		long, err := Encode("cosmos", bytes.Repeat([]byte{1}, 32))
		require.NoError(t, err)
		_, err = ToEthAddress(long)
		require.Error(t, err)
	})
}

func Test_SameAccount(t *testing.T) {
	raw := bytes.Repeat([]byte{0x42}, 20)
	cosmosAddr, err := Encode("cosmos", raw)
	require.NoError(t, err)
	titanAddr, err := Encode("titan", raw)
	require.NoError(t, err)
	other, err := Encode("cosmos", bytes.Repeat([]byte{0x43}, 20))
	require.NoError(t, err)

	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{name: "identical", a: cosmosAddr, b: cosmosAddr, expected: true},
		{name: "different prefix same bytes", a: cosmosAddr, b: titanAddr, expected: true},
		{name: "hex against bech32", a: "0x4242424242424242424242424242424242424242", b: titanAddr, expected: true},
		{name: "different bytes", a: cosmosAddr, b: other, expected: false},
		{name: "invalid input", a: "nope", b: cosmosAddr, expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SameAccount(tt.a, tt.b))
		})
	}
}
