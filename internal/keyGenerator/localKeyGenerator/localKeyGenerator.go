package localKeyGenerator

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator"
)

type keyEntry struct {
	privateKey *ecdsa.PrivateKey
	keyName    string
	aliasName  string
	address    string
}

// LocalKeyGenerator keeps secp256k1 keys in process memory.
type LocalKeyGenerator struct {
	logger   *zap.Logger
	keyStore map[string]*keyEntry // keyId -> keyEntry
	mu       sync.RWMutex
}

var _ keyGenerator.IKeyGenerator = (*LocalKeyGenerator)(nil)

func NewLocalKeyGenerator(logger *zap.Logger) *LocalKeyGenerator {
	return &LocalKeyGenerator{
		logger:   logger,
		keyStore: make(map[string]*keyEntry),
	}
}

func newKeyId() string {
	return fmt.Sprintf("local-key-%s", uuid.New().String())
}

func (l *LocalKeyGenerator) GenerateECDSAKey(ctx context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedECDSAKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}

	keyId := newKeyId()
	if err := l.LoadPrivateKey(keyId, privateKey, keyName, aliasName); err != nil {
		return nil, err
	}
	return l.GetECDSAKeyById(ctx, keyId)
}

func (l *LocalKeyGenerator) GetECDSAKeyById(ctx context.Context, keyId string) (*keyGenerator.GeneratedECDSAKey, error) {
	entry, err := l.getEntry(keyId)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("Retrieved ECDSA key by ID",
		zap.String("keyId", keyId),
		zap.String("address", entry.address),
	)

	return &keyGenerator.GeneratedECDSAKey{
		PublicKey: &entry.privateKey.PublicKey,
		Address:   entry.address,
		KeyId:     keyId,
	}, nil
}

func (l *LocalKeyGenerator) SignDigest(ctx context.Context, keyId string, digest []byte) ([]byte, error) {
	entry, err := l.getEntry(keyId)
	if err != nil {
		return nil, err
	}
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be exactly 32 bytes, got %d", len(digest))
	}

	signature, err := crypto.Sign(digest, entry.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest with key %s: %w", keyId, err)
	}

	l.logger.Debug("Signed digest with ECDSA key", zap.String("keyId", keyId))
	return keyGenerator.NormalizeSignature(signature)
}

func (l *LocalKeyGenerator) getEntry(keyId string) (*keyEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, exists := l.keyStore[keyId]
	if !exists {
		return nil, fmt.Errorf("key with ID %s not found", keyId)
	}
	return entry, nil
}

// LoadPrivateKey adds an existing private key under keyId.
func (l *LocalKeyGenerator) LoadPrivateKey(keyId string, privateKey *ecdsa.PrivateKey, keyName string, aliasName string) error {
	if privateKey == nil {
		return fmt.Errorf("private key cannot be nil")
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.keyStore[keyId]; exists {
		return fmt.Errorf("key with ID %s already exists", keyId)
	}

	l.keyStore[keyId] = &keyEntry{
		privateKey: privateKey,
		keyName:    keyName,
		aliasName:  aliasName,
		address:    address,
	}

	l.logger.Info("Loaded private key into store",
		zap.String("keyId", keyId),
		zap.String("keyName", keyName),
		zap.String("aliasName", aliasName),
		zap.String("address", address),
	)
	return nil
}

// LoadPrivateKeyFromHex loads a hex private key, with or without "0x".
func (l *LocalKeyGenerator) LoadPrivateKeyFromHex(keyId string, privateKeyHex string, keyName string, aliasName string) error {
	if len(privateKeyHex) >= 2 && privateKeyHex[:2] == "0x" {
		privateKeyHex = privateKeyHex[2:]
	}
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return fmt.Errorf("failed to parse private key from hex: %w", err)
	}
	return l.LoadPrivateKey(keyId, privateKey, keyName, aliasName)
}

// LoadMnemonic derives the key at hdPath and stores it under keyId.
func (l *LocalKeyGenerator) LoadMnemonic(keyId, mnemonic, passphrase, hdPath string) error {
	privateKey, err := DerivePrivateKeyFromMnemonic(mnemonic, passphrase, hdPath)
	if err != nil {
		return err
	}
	return l.LoadPrivateKey(keyId, privateKey, hdPath, "")
}

func (l *LocalKeyGenerator) GetKeyCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keyStore)
}

func (l *LocalKeyGenerator) ClearKeys() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keyStore = make(map[string]*keyEntry)
	l.logger.Info("Cleared all keys from store")
}

func (l *LocalKeyGenerator) KeyExists(keyId string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, exists := l.keyStore[keyId]
	return exists
}
