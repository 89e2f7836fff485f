package keyGenerator

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

type GeneratedECDSAKey struct {
	PublicKey *ecdsa.PublicKey
	Address   string
	KeyId     string
}

// GetPublicKeyBytes returns the uncompressed 65 byte public key.
func (gek *GeneratedECDSAKey) GetPublicKeyBytes() ([]byte, error) {
	if gek.PublicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	return crypto.FromECDSAPub(gek.PublicKey), nil
}

// GetCompressedPublicKey returns the 33 byte SEC1 compressed public key, the
// form Cosmos chains carry in AuthInfo.
func (gek *GeneratedECDSAKey) GetCompressedPublicKey() ([]byte, error) {
	if gek.PublicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	return crypto.CompressPubkey(gek.PublicKey), nil
}

func (gek *GeneratedECDSAKey) GetPublicKeyHex() (string, error) {
	pubKeyBytes, err := gek.GetPublicKeyBytes()
	if err != nil {
		return "", fmt.Errorf("failed to get public key bytes: %w", err)
	}
	return hexutil.Encode(pubKeyBytes), nil
}

// IKeyGenerator is a key custody backend. SignDigest signs a 32 byte digest and
// returns r || s || v with v in {27, 28}.
type IKeyGenerator interface {
	GenerateECDSAKey(ctx context.Context, keyName string, aliasName string) (*GeneratedECDSAKey, error)
	GetECDSAKeyById(ctx context.Context, keyId string) (*GeneratedECDSAKey, error)
	SignDigest(ctx context.Context, keyId string, digest []byte) ([]byte, error)
}

// NormalizeSignature converts a 65 byte signature with v in {0, 1} to v in
// {27, 28}. Signatures already in that range are returned unchanged.
func NormalizeSignature(sig []byte) ([]byte, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	out := make([]byte, len(sig))
	copy(out, sig)
	if out[64] < 27 {
		out[64] += 27
	}
	return out, nil
}
