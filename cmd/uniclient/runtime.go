package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/internal/aws"
	"github.com/Layr-Labs/uniclient-go/internal/keyAgent"
	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator"
	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator/awsKms"
	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator/localKeyGenerator"
	"github.com/Layr-Labs/uniclient-go/pkg/clients/web3signer"
	"github.com/Layr-Labs/uniclient-go/pkg/config"
	"github.com/Layr-Labs/uniclient-go/pkg/logger"
	"github.com/Layr-Labs/uniclient-go/pkg/metrics"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence/badger"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence/memory"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence/redis"
	"github.com/Layr-Labs/uniclient-go/pkg/rest"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
	"github.com/Layr-Labs/uniclient-go/pkg/uniclient"
	"github.com/Layr-Labs/uniclient-go/pkg/wallet"
)

const (
	defaultKeyID   = "default"
	kmsEnvironment = "uniclient"
)

// buildConfig reads the global flags into a validated ClientConfig.
func buildConfig(c *cli.Context) (*config.ClientConfig, error) {
	mode, err := types.ParseBroadcastMode(c.String(flagBroadcastMode))
	if err != nil {
		return nil, err
	}
	cfg := &config.ClientConfig{
		Wallet:        types.WalletName(c.String(flagWallet)),
		ChainID:       c.String(flagChainID),
		Prefix:        c.String(flagPrefix),
		HDPath:        c.String(flagHDPath),
		RestEndpoint:  c.String(flagRestEndpoint),
		BroadcastMode: mode,
		RateLimit:     c.Float64(flagRateLimit),
		Debug:         c.Bool(flagDebug),
		Persistence: &config.PersistenceConfig{
			Type:          config.PersistenceType(c.String(flagPersistence)),
			DataPath:      c.String(flagDataPath),
			RedisAddress:  c.String(flagRedisAddress),
			RedisPassword: c.String(flagRedisPassword),
			RedisDB:       c.Int(flagRedisDB),
		},
	}
	if agentType := c.String(flagAgent); agentType != "" {
		cfg.Agent = &config.AgentConfig{
			Type:       config.AgentType(agentType),
			CoinType:   uint32(c.Uint(flagCoinType)),
			Mnemonic:   c.String(flagMnemonic),
			Passphrase: c.String(flagPassphrase),
			PrivateKey: c.String(flagPrivateKey),
			KMSKeyID:   c.String(flagKMSKeyID),
			AWSRegion:  c.String(flagAWSRegion),
		}
		if cfg.Agent.Type == config.AgentType_Web3Signer {
			cfg.Agent.RemoteSigner = &config.RemoteSignerConfig{
				Url:         c.String(flagRemoteSignerURL),
				CACert:      c.String(flagRemoteSignerCA),
				Cert:        c.String(flagRemoteSignerCert),
				Key:         c.String(flagRemoteSignerKey),
				FromAddress: c.String(flagRemoteSignerAddr),
			}
		}
	}

	if err := cfg.ResolvePreset(); err != nil {
		return nil, err
	}
	if cfg.Agent != nil && cfg.Agent.CoinType == 0 {
		cfg.Agent.CoinType = keyAgent.CoinType_Cosmos
		if cfg.Wallet == types.WalletName_Metamask {
			cfg.Agent.CoinType = keyAgent.CoinType_Ethereum
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// derivationPath is the configured HD path, or the BIP-44 default for the agent's coin type.
func derivationPath(cfg *config.ClientConfig) string {
	if cfg.HDPath != "" {
		return cfg.HDPath
	}
	if cfg.Agent != nil && cfg.Agent.CoinType != 0 {
		return fmt.Sprintf("m/44'/%d'/0'/0/0", cfg.Agent.CoinType)
	}
	return types.DefaultHDPath
}

type runtime struct {
	cfg      *config.ClientConfig
	logger   *zap.Logger
	store    persistence.IKeyValueStore
	registry *prometheus.Registry
	client   *uniclient.UniClient
}

func newRuntime(c *cli.Context) (*runtime, error) {
	cfg, err := buildConfig(c)
	if err != nil {
		return nil, err
	}
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := newStore(cfg.Persistence, l)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: l, store: store, registry: prometheus.NewRegistry()}

	client, err := rt.newClient(c)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.client = client
	return rt, nil
}

func (rt *runtime) newClient(c *cli.Context) (*uniclient.UniClient, error) {
	m, err := metrics.New(rt.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	providers, err := newProviders(c.Context, rt.cfg, rt.logger)
	if err != nil {
		return nil, err
	}
	restClient, err := rest.NewClient(&rest.ClientConfig{RateLimit: rt.cfg.RateLimit, Metrics: m}, rt.logger)
	if err != nil {
		return nil, err
	}
	return uniclient.NewUniClient(&uniclient.Config{
		Wallet: rt.cfg.Wallet,
		Argument: types.WalletArgument{
			ChainID: rt.cfg.ChainID,
			HDPath:  derivationPath(rt.cfg),
			Prefix:  rt.cfg.Prefix,
			Address: c.String(flagAddress),
			Name:    c.String(flagName),
		},
		Factory: &wallet.FactoryConfig{
			Providers: providers,
			Metrics:   m,
		},
		Store: rt.store,
		Rest:  restClient,
	}, rt.logger)
}

func (rt *runtime) close() {
	if rt.cfg.Debug {
		if families, err := rt.registry.Gather(); err == nil {
			for _, mf := range families {
				rt.logger.Sugar().Debugw("Metric", "name", mf.GetName(), "series", len(mf.GetMetric()))
			}
		}
	}
	if err := rt.store.Close(); err != nil {
		rt.logger.Sugar().Warnw("Failed to close persistence", "error", err)
	}
	_ = rt.logger.Sync()
}

func newStore(cfg *config.PersistenceConfig, l *zap.Logger) (persistence.IKeyValueStore, error) {
	switch cfg.Type {
	case config.PersistenceType_Badger:
		return badger.NewBadgerPersistence(cfg.DataPath, l)
	case config.PersistenceType_Redis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, l)
	default:
		l.Sugar().Debugw("Using in-memory persistence, the connected identity is not kept between runs")
		return memory.NewMemoryPersistence(), nil
	}
}

// newProviders builds the agent behind the wallet. A key-backed agent serves
// every wallet; a Web3Signer only speaks the Ethereum interface.
func newProviders(ctx context.Context, cfg *config.ClientConfig, l *zap.Logger) (wallet.Providers, error) {
	if cfg.Agent == nil {
		return wallet.Providers{}, nil
	}
	if cfg.Agent.Type == config.AgentType_Web3Signer {
		client, err := web3signer.NewWeb3SignerClientFromRemoteSignerConfig(cfg.Agent.RemoteSigner, l)
		if err != nil {
			return wallet.Providers{}, err
		}
		return wallet.Providers{Ethereum: web3signer.NewEthereumProvider(client)}, nil
	}

	generator, keyID, err := newKeyGenerator(ctx, cfg, l)
	if err != nil {
		return wallet.Providers{}, err
	}
	a, err := keyAgent.NewKeyAgent(&keyAgent.KeyAgentConfig{
		KeyGenerator: generator,
		KeyIds:       []string{keyID},
		Prefix:       cfg.Prefix,
		CoinType:     cfg.Agent.CoinType,
	}, l)
	if err != nil {
		return wallet.Providers{}, err
	}
	return wallet.Providers{Keplr: a, Leap: a, Ethereum: a}, nil
}

func newKeyGenerator(ctx context.Context, cfg *config.ClientConfig, l *zap.Logger) (keyGenerator.IKeyGenerator, string, error) {
	switch cfg.Agent.Type {
	case config.AgentType_Mnemonic:
		generator := localKeyGenerator.NewLocalKeyGenerator(l)
		if err := generator.LoadMnemonic(defaultKeyID, cfg.Agent.Mnemonic, cfg.Agent.Passphrase, derivationPath(cfg)); err != nil {
			return nil, "", fmt.Errorf("failed to load mnemonic: %w", err)
		}
		return generator, defaultKeyID, nil
	case config.AgentType_PrivateKey:
		generator := localKeyGenerator.NewLocalKeyGenerator(l)
		if err := generator.LoadPrivateKeyFromHex(defaultKeyID, cfg.Agent.PrivateKey, defaultKeyID, ""); err != nil {
			return nil, "", err
		}
		return generator, defaultKeyID, nil
	case config.AgentType_AWSKMS:
		awsCfg, err := aws.LoadAWSConfig(ctx, cfg.Agent.AWSRegion)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load AWS config: %w", err)
		}
		return awsKms.NewAWSKMSKeyGenerator(awsCfg, kmsEnvironment, l), cfg.Agent.KMSKeyID, nil
	default:
		return nil, "", fmt.Errorf("unsupported agent type %s", cfg.Agent.Type)
	}
}
