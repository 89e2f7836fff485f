package uniclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/pkg/persistence"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence/memory"
	"github.com/Layr-Labs/uniclient-go/pkg/rest"
	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
	"github.com/Layr-Labs/uniclient-go/pkg/wallet"
)

type Config struct {
	Wallet   types.WalletName
	Argument types.WalletArgument
	// Registry defaults to txcodec.DefaultRegistry().
	Registry *txcodec.Registry
	// Factory supplies providers and signing options. Its Logger and Store
	// default to the client's.
	Factory *wallet.FactoryConfig
	// Store holds the connected identity and the EVM account cache.
	// Defaults to an in-memory store.
	Store persistence.IKeyValueStore
	// Rest defaults to a client without pacing.
	Rest *rest.Client
}

// UniClient is the entry point: one wallet, one message registry and one
// REST gateway client.
type UniClient struct {
	name       types.WalletName
	arg        types.WalletArgument
	wallet     wallet.IWallet
	registry   *txcodec.Registry
	rest       *rest.Client
	identities *persistence.IdentityStore
	logger     *zap.Logger
}

// accountInvalidator is implemented by wallets that cache discovered accounts.
type accountInvalidator interface {
	InvalidateAccounts(ctx context.Context) error
}

func NewUniClient(cfg *Config, logger *zap.Logger) (*UniClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	registry := cfg.Registry
	if registry == nil {
		var err error
		if registry, err = txcodec.DefaultRegistry(); err != nil {
			return nil, fmt.Errorf("failed to build default registry: %w", err)
		}
	}
	store := cfg.Store
	if store == nil {
		store = memory.NewMemoryPersistence()
	}

	factory := wallet.FactoryConfig{}
	if cfg.Factory != nil {
		factory = *cfg.Factory
	}
	if factory.Logger == nil {
		factory.Logger = logger
	}
	if factory.Store == nil {
		factory.Store = store
	}

	w, err := wallet.CreateWallet(cfg.Wallet, cfg.Argument, registry, &factory)
	if err != nil {
		return nil, err
	}

	restClient := cfg.Rest
	if restClient == nil {
		if restClient, err = rest.NewClient(&rest.ClientConfig{Metrics: factory.Metrics}, logger); err != nil {
			return nil, err
		}
	}

	return &UniClient{
		name:       cfg.Wallet,
		arg:        cfg.Argument,
		wallet:     w,
		registry:   registry,
		rest:       restClient,
		identities: persistence.NewIdentityStore(store),
		logger:     logger,
	}, nil
}

func (u *UniClient) Wallet() wallet.IWallet {
	return u.wallet
}

func (u *UniClient) Registry() *txcodec.Registry {
	return u.registry
}

func (u *UniClient) GetAccounts(ctx context.Context) ([]types.Account, error) {
	return u.wallet.GetAccounts(ctx)
}

func (u *UniClient) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedEnvelope, error) {
	return u.wallet.Sign(ctx, tx)
}

// Simulate estimates gas for tx using an unsigned envelope. No agent is involved.
func (u *UniClient) Simulate(ctx context.Context, endpoint string, tx *types.Transaction, mode types.BroadcastMode) (uint64, error) {
	env, err := u.registry.BuildSimulationEnvelope(tx)
	if err != nil {
		return 0, err
	}
	return u.rest.Simulate(ctx, endpoint, env, mode)
}

func (u *UniClient) Broadcast(ctx context.Context, endpoint string, env *types.SignedEnvelope, mode types.BroadcastMode) (*rest.BroadcastResponse, error) {
	return u.rest.Broadcast(ctx, endpoint, env, mode)
}

// SignAndBroadcast signs tx and submits the envelope. A failed broadcast is
// not retried.
func (u *UniClient) SignAndBroadcast(ctx context.Context, endpoint string, tx *types.Transaction, mode types.BroadcastMode) (*rest.BroadcastResponse, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is not set")
	}
	env, err := u.Sign(ctx, tx)
	if err != nil {
		return nil, err
	}
	return u.Broadcast(ctx, endpoint, env, mode)
}

// Connect discovers accounts and records the first one as the connected
// identity for the wallet's derivation path.
func (u *UniClient) Connect(ctx context.Context) (*types.ConnectedIdentity, error) {
	accounts, err := u.wallet.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%s reported no accounts", u.name)
	}
	identity := &types.ConnectedIdentity{
		Agent:   u.name,
		Address: accounts[0].Address,
		HDPath:  u.arg.GetHDPath(),
	}
	if err := u.identities.WriteConnectedIdentity(ctx, identity); err != nil {
		return nil, err
	}
	u.logger.Sugar().Infow("Connected wallet", "wallet", u.name, "address", identity.Address, "hdPath", identity.HDPath)
	return identity, nil
}

// ConnectedIdentity returns the stored identity, or nil when none is stored.
func (u *UniClient) ConnectedIdentity(ctx context.Context) (*types.ConnectedIdentity, error) {
	return u.identities.ReadConnectedIdentity(ctx, u.arg.GetHDPath())
}

// Disconnect removes the connected identity and any cached accounts.
func (u *UniClient) Disconnect(ctx context.Context) error {
	if err := u.identities.RemoveConnectedIdentity(ctx, u.arg.GetHDPath()); err != nil {
		return err
	}
	if inv, ok := u.wallet.(accountInvalidator); ok {
		if err := inv.InvalidateAccounts(ctx); err != nil {
			return err
		}
	}
	u.logger.Sugar().Infow("Disconnected wallet", "wallet", u.name, "hdPath", u.arg.GetHDPath())
	return nil
}
