package localKeyGenerator

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"

	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

const hardenedOffset uint32 = 0x80000000

// DerivePrivateKeyFromMnemonic derives the secp256k1 key at hdPath from a
// BIP-39 mnemonic and optional passphrase.
func DerivePrivateKeyFromMnemonic(mnemonic, passphrase, hdPath string) (*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive seed from mnemonic")
	}
	return DerivePrivateKeyFromSeed(seed, hdPath)
}

// DerivePrivateKeyFromSeed walks hdPath from the BIP-32 master key of seed.
func DerivePrivateKeyFromSeed(seed []byte, hdPath string) (*ecdsa.PrivateKey, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	indices, err := ParseHDPath(hdPath)
	if err != nil {
		return nil, err
	}

	key := masterKey
	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	privateKey, err := crypto.ToECDSA(common.LeftPadBytes(key.Key, 32))
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert derived key to ECDSA")
	}
	return privateKey, nil
}

// ParseHDPath parses "m/44'/118'/0'/0/0" into child indices, hardened
// segments offset by 2^31.
func ParseHDPath(path string) ([]uint32, error) {
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("invalid hd path: %s", path)
	}

	parts := strings.Split(strings.TrimPrefix(path, "m/"), "/")
	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardened := strings.HasSuffix(part, "'")
		part = strings.TrimSuffix(part, "'")

		index, err := strconv.ParseUint(part, 10, 32)
		if err != nil || uint32(index) >= hardenedOffset {
			return nil, fmt.Errorf("invalid hd path segment %q in %s", part, path)
		}
		if hardened {
			index += uint64(hardenedOffset)
		}
		indices = append(indices, uint32(index))
	}
	return indices, nil
}
