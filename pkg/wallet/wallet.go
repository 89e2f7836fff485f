package wallet

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/pkg/address"
	"github.com/Layr-Labs/uniclient-go/pkg/agent"
	"github.com/Layr-Labs/uniclient-go/pkg/amino"
	"github.com/Layr-Labs/uniclient-go/pkg/eip712"
	"github.com/Layr-Labs/uniclient-go/pkg/metrics"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence/memory"
	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const (
	SignMode_Direct = "direct"
	SignMode_Amino  = "amino"
	SignMode_EIP712 = "eip712"
)

const (
	defaultNativeChainID = "cosmoshub"
	defaultEVMPrefix     = "evmos"
)

// DefaultCustomNamespaces are the message type URL prefixes, besides
// CosmWasm, that are always signed in Direct mode.
var DefaultCustomNamespaces = []string{"/titan"}

// IWallet is a signing identity. Implementations are built by CreateWallet.
type IWallet interface {
	Name() types.WalletName

	// GetAccounts queries the agent and replaces the wallet's account snapshot.
	GetAccounts(ctx context.Context) ([]types.Account, error)

	SupportCoinType(coinType string) bool

	// Sign produces a signed envelope for tx without modifying it. The signer
	// must be present in the latest GetAccounts result.
	Sign(ctx context.Context, tx *types.Transaction) (*types.SignedEnvelope, error)
}

// Providers are the agent capabilities available to the factory. A nil field
// means that agent is not installed.
type Providers struct {
	Keplr    agent.ICosmosProvider
	Leap     agent.ICosmosProvider
	Ethereum agent.IEthereumProvider
}

type FactoryConfig struct {
	Providers Providers
	// Store backs the Ethereum-bridge account cache. Defaults to an in-memory store.
	Store   persistence.IKeyValueStore
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Bridge defaults to a codec-backed bridge over the registry.
	Bridge *amino.Bridge
	// TypedData defaults to eip712.NewAdapterTable().
	TypedData *eip712.AdapterTable
	// CustomNamespaces defaults to DefaultCustomNamespaces.
	CustomNamespaces []string
}

// CreateWallet builds the wallet for name. It performs no I/O.
func CreateWallet(name types.WalletName, arg types.WalletArgument, registry *txcodec.Registry, cfg *FactoryConfig) (IWallet, error) {
	if cfg == nil {
		return nil, fmt.Errorf("factory config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch name {
	case types.WalletName_Keplr, types.WalletName_Leap,
		types.WalletName_Metamask, types.WalletName_Address, types.WalletName_NameService:
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedWallet, name)
	}

	if registry == nil {
		var err error
		if registry, err = txcodec.DefaultRegistry(); err != nil {
			return nil, fmt.Errorf("failed to build default registry: %w", err)
		}
	}
	bridge := cfg.Bridge
	if bridge == nil {
		bridge = amino.NewBridge(registry)
	}

	switch name {
	case types.WalletName_Keplr, types.WalletName_Leap:
		provider := cfg.Providers.Keplr
		if name == types.WalletName_Leap {
			provider = cfg.Providers.Leap
		}
		if provider == nil {
			return nil, fmt.Errorf("%w: %s", types.ErrExtensionNotInstalled, name)
		}
		namespaces := cfg.CustomNamespaces
		if namespaces == nil {
			namespaces = DefaultCustomNamespaces
		}
		chainID := arg.ChainID
		if chainID == "" {
			chainID = defaultNativeChainID
		}
		return &NativeWallet{
			name:       name,
			chainID:    chainID,
			provider:   provider,
			registry:   registry,
			bridge:     bridge,
			namespaces: append([]string(nil), namespaces...),
			logger:     cfg.Logger,
			metrics:    cfg.Metrics,
		}, nil

	case types.WalletName_Metamask:
		if cfg.Providers.Ethereum == nil {
			return nil, fmt.Errorf("%w: %s", types.ErrExtensionNotInstalled, name)
		}
		store := cfg.Store
		if store == nil {
			store = memory.NewMemoryPersistence()
		}
		typedData := cfg.TypedData
		if typedData == nil {
			typedData = eip712.NewAdapterTable()
		}
		prefix := arg.Prefix
		if prefix == "" {
			prefix = defaultEVMPrefix
		}
		return &EVMWallet{
			chainID:    arg.ChainID,
			prefix:     prefix,
			provider:   cfg.Providers.Ethereum,
			identities: persistence.NewIdentityStore(store),
			registry:   registry,
			bridge:     bridge,
			typedData:  typedData,
			logger:     cfg.Logger,
			metrics:    cfg.Metrics,
		}, nil

	default:
		return newWatchOnlyWallet(name, arg)
	}
}

// accountSnapshot is the latest discovered account list together with the
// signer that produced it. Both are only ever replaced whole, under one lock.
type accountSnapshot struct {
	mu       sync.RWMutex
	accounts []types.Account
	signer   agent.IOfflineSigner
}

func copyAccounts(accounts []types.Account) []types.Account {
	out := make([]types.Account, len(accounts))
	copy(out, accounts)
	return out
}

// replace publishes accounts and the signer they came from. signer may be nil
// for wallets that sign through a provider instead.
func (s *accountSnapshot) replace(accounts []types.Account, signer agent.IOfflineSigner) {
	next := copyAccounts(accounts)
	s.mu.Lock()
	s.accounts = next
	s.signer = signer
	s.mu.Unlock()
}

func (s *accountSnapshot) clear() {
	s.mu.Lock()
	s.accounts = nil
	s.signer = nil
	s.mu.Unlock()
}

func (s *accountSnapshot) find(addr string) (types.Account, bool) {
	account, _, ok := s.lookup(addr)
	return account, ok
}

// lookup returns the matching account and the signer from the same discovery.
func (s *accountSnapshot) lookup(addr string) (types.Account, agent.IOfflineSigner, bool) {
	s.mu.RLock()
	accounts, signer := s.accounts, s.signer
	s.mu.RUnlock()
	account, ok := findAccount(accounts, addr)
	return account, signer, ok
}

// findAccount compares raw address bytes so that prefix differences do not matter.
func findAccount(accounts []types.Account, signer string) (types.Account, bool) {
	for _, a := range accounts {
		if address.SameAccount(a.Address, signer) {
			return a, true
		}
	}
	return types.Account{}, false
}

func accountNotFound(signer string) error {
	return fmt.Errorf("%w: %s", types.ErrAccountNotFound, signer)
}
