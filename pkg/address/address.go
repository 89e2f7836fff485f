package address

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/ethereum/go-ethereum/common"
)

// Decode returns the prefix and raw account bytes of a bech32 address.
func Decode(bech string) (string, []byte, error) {
	hrp, bz, err := bech32.DecodeAndConvert(bech)
	if err != nil {
		return "", nil, fmt.Errorf("invalid bech32 address %q: %w", bech, err)
	}
	return hrp, bz, nil
}

// Encode applies prefix to raw account bytes.
func Encode(prefix string, bz []byte) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("address prefix is required")
	}
	return bech32.ConvertAndEncode(prefix, bz)
}

// FromEthAddress maps a 0x-prefixed 20-byte Ethereum address onto a bech32 address
// with the given prefix. The account bytes are the Ethereum address bytes, not a
// hash of the Cosmos public key.
func FromEthAddress(ethAddress string, prefix string) (string, error) {
	if !common.IsHexAddress(ethAddress) {
		return "", fmt.Errorf("invalid ethereum address: %s", ethAddress)
	}
	return Encode(prefix, common.HexToAddress(ethAddress).Bytes())
}

// ToEthAddress reverses FromEthAddress. The result is EIP-55 checksummed.
func ToEthAddress(bech string) (string, error) {
	_, bz, err := Decode(bech)
	if err != nil {
		return "", err
	}
	if len(bz) != common.AddressLength {
		return "", fmt.Errorf("address %s is %d bytes, expected %d", bech, len(bz), common.AddressLength)
	}
	return common.BytesToAddress(bz).Hex(), nil
}

// SameAccount reports whether two addresses name the same account. Bech32 addresses
// compare by decoded bytes so differing prefixes still match; hex addresses are
// accepted on either side.
func SameAccount(a, b string) bool {
	ab, err := accountBytes(a)
	if err != nil {
		return false
	}
	bb, err := accountBytes(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func accountBytes(addr string) ([]byte, error) {
	if strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X") {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid ethereum address: %s", addr)
		}
		return common.HexToAddress(addr).Bytes(), nil
	}
	_, bz, err := Decode(addr)
	return bz, err
}
