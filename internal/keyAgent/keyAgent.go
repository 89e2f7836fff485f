package keyAgent

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator"
	"github.com/Layr-Labs/uniclient-go/pkg/address"
	"github.com/Layr-Labs/uniclient-go/pkg/agent"
)

const (
	CoinType_Cosmos   uint32 = 118
	CoinType_Ethereum uint32 = 60

	PubKeyType_EthSecp256k1Amino = "ethermint/PubKeyEthSecp256k1"
)

type KeyAgentConfig struct {
	KeyGenerator keyGenerator.IKeyGenerator
	// KeyIds are exposed as accounts in this order.
	KeyIds []string
	Prefix string
	// CoinType 60 derives account bytes from the Ethereum address and signs
	// keccak256 digests; anything else uses the Cosmos secp256k1 scheme.
	CoinType uint32
}

// KeyAgent exposes keys held by an IKeyGenerator as a signing agent. It serves
// both the Cosmos-style provider capability and the Ethereum-style one.
type KeyAgent struct {
	config *KeyAgentConfig
	logger *zap.Logger

	mu        sync.RWMutex
	enabled   map[string]bool
	prefixes  map[string]string
	suggested map[string]*agent.ChainInfo
}

var (
	_ agent.ICosmosProvider   = (*KeyAgent)(nil)
	_ agent.IEthereumProvider = (*KeyAgent)(nil)
	_ agent.IChainSuggester   = (*KeyAgent)(nil)
)

func NewKeyAgent(cfg *KeyAgentConfig, logger *zap.Logger) (*KeyAgent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.KeyGenerator == nil {
		return nil, fmt.Errorf("key generator is required")
	}
	if len(cfg.KeyIds) == 0 {
		return nil, fmt.Errorf("at least one key id is required")
	}
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("prefix is required")
	}
	return &KeyAgent{
		config:    cfg,
		logger:    logger,
		enabled:   make(map[string]bool),
		prefixes:  make(map[string]string),
		suggested: make(map[string]*agent.ChainInfo),
	}, nil
}

func (k *KeyAgent) isEthereum() bool {
	return k.config.CoinType == CoinType_Ethereum
}

func (k *KeyAgent) Enable(ctx context.Context, chainID string) error {
	if chainID == "" {
		return fmt.Errorf("chain id is required")
	}
	k.mu.Lock()
	k.enabled[chainID] = true
	k.mu.Unlock()

	k.logger.Sugar().Debugw("Enabled chain", "chainId", chainID)
	return nil
}

// SuggestChain registers a chain definition. Its account prefix replaces the
// configured one for that chain.
func (k *KeyAgent) SuggestChain(ctx context.Context, info *agent.ChainInfo) error {
	if info == nil || info.ChainID == "" {
		return fmt.Errorf("chain info with a chain id is required")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.suggested[info.ChainID] = info
	if info.Bech32Config.AccountAddr != "" {
		k.prefixes[info.ChainID] = info.Bech32Config.AccountAddr
	}
	k.logger.Sugar().Infow("Accepted chain suggestion", "chainId", info.ChainID, "chainName", info.ChainName)
	return nil
}

// SuggestedChain returns the chain info registered through SuggestChain.
func (k *KeyAgent) SuggestedChain(chainID string) (*agent.ChainInfo, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	info, ok := k.suggested[chainID]
	return info, ok
}

func (k *KeyAgent) GetOfflineSigner(ctx context.Context, chainID string) (agent.IOfflineSigner, error) {
	k.mu.RLock()
	enabled := k.enabled[chainID]
	prefix, ok := k.prefixes[chainID]
	k.mu.RUnlock()

	if !enabled {
		return nil, fmt.Errorf("chain %s is not enabled", chainID)
	}
	if !ok {
		prefix = k.config.Prefix
	}
	return &offlineSigner{agent: k, chainID: chainID, prefix: prefix}, nil
}

type signingKey struct {
	keyId      string
	ethAddress common.Address
	compressed []byte
	account    agent.AccountData
}

func (k *KeyAgent) loadKeys(ctx context.Context, prefix string) ([]signingKey, error) {
	keys := make([]signingKey, 0, len(k.config.KeyIds))
	for _, keyId := range k.config.KeyIds {
		key, err := k.config.KeyGenerator.GetECDSAKeyById(ctx, keyId)
		if err != nil {
			return nil, fmt.Errorf("failed to load key %s: %w", keyId, err)
		}
		compressed, err := key.GetCompressedPublicKey()
		if err != nil {
			return nil, fmt.Errorf("failed to compress public key of %s: %w", keyId, err)
		}

		ethAddress := crypto.PubkeyToAddress(*key.PublicKey)
		accountBytes := (&secp256k1.PubKey{Key: compressed}).Address().Bytes()
		algo := agent.Algo_Secp256k1
		if k.isEthereum() {
			accountBytes = ethAddress.Bytes()
			algo = agent.Algo_EthSecp256k1
		}
		bech, err := address.Encode(prefix, accountBytes)
		if err != nil {
			return nil, err
		}

		keys = append(keys, signingKey{
			keyId:      keyId,
			ethAddress: ethAddress,
			compressed: compressed,
			account:    agent.AccountData{Address: bech, Algo: algo, PubKey: compressed},
		})
	}
	return keys, nil
}

func (k *KeyAgent) findByAddress(ctx context.Context, prefix, signerAddress string) (*signingKey, error) {
	keys, err := k.loadKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		if address.SameAccount(keys[i].account.Address, signerAddress) {
			return &keys[i], nil
		}
	}
	return nil, fmt.Errorf("no key for address %s", signerAddress)
}

// signCosmos hashes bz with the scheme of the configured key type and returns
// the signature Cosmos chains expect: r || s for secp256k1, r || s || v with
// v in {0, 1} for ethsecp256k1.
func (k *KeyAgent) signCosmos(ctx context.Context, key *signingKey, bz []byte) ([]byte, error) {
	var digest []byte
	if k.isEthereum() {
		digest = crypto.Keccak256(bz)
	} else {
		sum := sha256.Sum256(bz)
		digest = sum[:]
	}

	sig, err := k.config.KeyGenerator.SignDigest(ctx, key.keyId, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to sign with key %s: %w", key.keyId, err)
	}
	if k.isEthereum() {
		out := append([]byte{}, sig...)
		out[64] -= 27
		return out, nil
	}
	return sig[:64], nil
}

func (k *KeyAgent) stdSignature(key *signingKey, sig []byte) agent.StdSignature {
	pubKeyType := agent.PubKeyType_Secp256k1Amino
	if k.isEthereum() {
		pubKeyType = PubKeyType_EthSecp256k1Amino
	}
	return agent.StdSignature{
		PubKey:    agent.PubKey{Type: pubKeyType, Value: key.compressed},
		Signature: sig,
	}
}
