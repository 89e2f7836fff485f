package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/Layr-Labs/uniclient-go/pkg/chainid"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

// Environment variable names for the uniclient CLI
const (
	EnvUniClientWallet        = "UNICLIENT_WALLET"
	EnvUniClientChainID       = "UNICLIENT_CHAIN_ID"
	EnvUniClientPrefix        = "UNICLIENT_PREFIX"
	EnvUniClientHDPath        = "UNICLIENT_HD_PATH"
	EnvUniClientRestEndpoint  = "UNICLIENT_REST_ENDPOINT"
	EnvUniClientBroadcastMode = "UNICLIENT_BROADCAST_MODE"
	EnvUniClientRateLimit     = "UNICLIENT_RATE_LIMIT"
	EnvUniClientDebug         = "UNICLIENT_DEBUG"

	EnvUniClientAgent            = "UNICLIENT_AGENT"
	EnvUniClientCoinType         = "UNICLIENT_COIN_TYPE"
	EnvUniClientMnemonic         = "UNICLIENT_MNEMONIC"
	EnvUniClientPassphrase       = "UNICLIENT_PASSPHRASE"
	EnvUniClientPrivateKey       = "UNICLIENT_PRIVATE_KEY"
	EnvUniClientKMSKeyID         = "UNICLIENT_KMS_KEY_ID"
	EnvUniClientAWSRegion        = "UNICLIENT_AWS_REGION"
	EnvUniClientRemoteSignerURL  = "UNICLIENT_REMOTE_SIGNER_URL"
	EnvUniClientRemoteSignerAddr = "UNICLIENT_REMOTE_SIGNER_ADDRESS"
	EnvUniClientRemoteSignerCA   = "UNICLIENT_REMOTE_SIGNER_CA_CERT"
	EnvUniClientRemoteSignerCert = "UNICLIENT_REMOTE_SIGNER_CERT"
	EnvUniClientRemoteSignerKey  = "UNICLIENT_REMOTE_SIGNER_KEY"

	EnvUniClientPersistenceType = "UNICLIENT_PERSISTENCE_TYPE"
	EnvUniClientDataPath        = "UNICLIENT_DATA_PATH"
	EnvUniClientRedisAddress    = "UNICLIENT_REDIS_ADDRESS"
	EnvUniClientRedisPassword   = "UNICLIENT_REDIS_PASSWORD"
	EnvUniClientRedisDB         = "UNICLIENT_REDIS_DB"
)

type AgentType string

func (a AgentType) String() string {
	return string(a)
}

const (
	AgentType_Mnemonic   AgentType = "mnemonic"
	AgentType_PrivateKey AgentType = "privkey"
	AgentType_AWSKMS     AgentType = "aws-kms"
	AgentType_Web3Signer AgentType = "web3signer"
)

type PersistenceType string

func (p PersistenceType) String() string {
	return string(p)
}

const (
	PersistenceType_Memory PersistenceType = "memory"
	PersistenceType_Badger PersistenceType = "badger"
	PersistenceType_Redis  PersistenceType = "redis"
)

// ChainPreset carries the values a known chain needs beyond its chain id.
type ChainPreset struct {
	ChainID  string
	Prefix   string
	CoinType uint32
}

var ChainPresets = map[string]ChainPreset{
	chainid.Titan_Mainnet: {ChainID: chainid.Titan_Mainnet, Prefix: "titan", CoinType: 60},
	chainid.Titan_Testnet: {ChainID: chainid.Titan_Testnet, Prefix: "titan", CoinType: 60},
	"cosmoshub-4":         {ChainID: "cosmoshub-4", Prefix: "cosmos", CoinType: 118},
}

// ClientConfig is the top-level configuration of a uniclient process.
type ClientConfig struct {
	Wallet        types.WalletName    `json:"wallet" yaml:"wallet"`
	ChainID       string              `json:"chainId" yaml:"chainId"`
	Prefix        string              `json:"prefix" yaml:"prefix"`
	HDPath        string              `json:"hdPath" yaml:"hdPath"`
	RestEndpoint  string              `json:"restEndpoint" yaml:"restEndpoint"`
	BroadcastMode types.BroadcastMode `json:"broadcastMode" yaml:"broadcastMode"`
	// RateLimit is the maximum gateway requests per second. Zero disables pacing.
	RateLimit   float64            `json:"rateLimit" yaml:"rateLimit"`
	Agent       *AgentConfig       `json:"agent" yaml:"agent"`
	Persistence *PersistenceConfig `json:"persistence" yaml:"persistence"`
	Debug       bool               `json:"debug" yaml:"debug"`
}

func (c *ClientConfig) Validate() error {
	var allErrors field.ErrorList
	switch c.Wallet {
	case types.WalletName_Keplr, types.WalletName_Leap, types.WalletName_Metamask,
		types.WalletName_Address, types.WalletName_NameService:
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("wallet"), c.Wallet.String(), []string{
			types.WalletName_Keplr.String(), types.WalletName_Leap.String(), types.WalletName_Metamask.String(),
			types.WalletName_Address.String(), types.WalletName_NameService.String(),
		}))
	}
	if c.ChainID == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("chainId"), "chainId is required"))
	}
	if c.Prefix == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("prefix"), "prefix is required"))
	}
	if c.HDPath != "" && !strings.HasPrefix(c.HDPath, "m/") {
		allErrors = append(allErrors, field.Invalid(field.NewPath("hdPath"), c.HDPath, "hdPath must start with m/"))
	}
	if c.RestEndpoint != "" && !strings.HasPrefix(c.RestEndpoint, "http://") && !strings.HasPrefix(c.RestEndpoint, "https://") {
		allErrors = append(allErrors, field.Invalid(field.NewPath("restEndpoint"), c.RestEndpoint, "restEndpoint must be an http(s) url"))
	}
	if c.RateLimit < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateLimit"), c.RateLimit, "rateLimit cannot be negative"))
	}
	if c.Agent != nil {
		if err := c.Agent.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("agent"), c.Agent.Type, err.Error()))
		}
	}
	if c.Persistence != nil {
		if err := c.Persistence.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("persistence"), c.Persistence.Type, err.Error()))
		}
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// AgentConfig selects and configures the key custody behind the wallet.
type AgentConfig struct {
	Type       AgentType `json:"type" yaml:"type"`
	CoinType   uint32    `json:"coinType" yaml:"coinType"`
	Mnemonic   string    `json:"-" yaml:"-"`
	Passphrase string    `json:"-" yaml:"-"`
	PrivateKey string    `json:"-" yaml:"-"`
	KMSKeyID   string    `json:"kmsKeyId" yaml:"kmsKeyId"`
	AWSRegion  string    `json:"awsRegion" yaml:"awsRegion"`

	RemoteSigner *RemoteSignerConfig `json:"remoteSigner" yaml:"remoteSigner"`
}

func (a *AgentConfig) Validate() error {
	var allErrors field.ErrorList
	switch a.Type {
	case AgentType_Mnemonic:
		if a.Mnemonic == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("mnemonic"), "mnemonic is required"))
		}
	case AgentType_PrivateKey:
		if a.PrivateKey == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("privateKey"), "privateKey is required"))
		}
	case AgentType_AWSKMS:
		if a.KMSKeyID == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("kmsKeyId"), "kmsKeyId is required"))
		}
	case AgentType_Web3Signer:
		if a.RemoteSigner == nil {
			allErrors = append(allErrors, field.Required(field.NewPath("remoteSigner"), "remoteSigner is required"))
		} else if err := a.RemoteSigner.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("remoteSigner"), a.RemoteSigner.Url, err.Error()))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("type"), a.Type.String(), []string{
			AgentType_Mnemonic.String(), AgentType_PrivateKey.String(), AgentType_AWSKMS.String(), AgentType_Web3Signer.String(),
		}))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

type PersistenceConfig struct {
	Type          PersistenceType `json:"type" yaml:"type"`
	DataPath      string          `json:"dataPath" yaml:"dataPath"`
	RedisAddress  string          `json:"redisAddress" yaml:"redisAddress"`
	RedisPassword string          `json:"-" yaml:"-"`
	RedisDB       int             `json:"redisDb" yaml:"redisDb"`
}

func (p *PersistenceConfig) Validate() error {
	var allErrors field.ErrorList
	switch p.Type {
	case PersistenceType_Memory:
	case PersistenceType_Badger:
		if p.DataPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("dataPath"), "dataPath is required for badger"))
		}
	case PersistenceType_Redis:
		if p.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"), "redisAddress is required for redis"))
		}
		if p.RedisDB < 0 || p.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("redisDb"), p.RedisDB, "redisDb must be between 0 and 15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("type"), p.Type.String(), []string{
			PersistenceType_Memory.String(), PersistenceType_Badger.String(), PersistenceType_Redis.String(),
		}))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

type RemoteSignerConfig struct {
	Url         string `json:"url" yaml:"url"`
	CACert      string `json:"caCert" yaml:"caCert"`
	Cert        string `json:"cert" yaml:"cert"`
	Key         string `json:"key" yaml:"key"`
	FromAddress string `json:"fromAddress" yaml:"fromAddress"`
}

func (rsc *RemoteSignerConfig) Validate() error {
	var allErrors field.ErrorList
	if rsc.Url == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("url"), "url is required"))
	}
	if rsc.FromAddress != "" && !common.IsHexAddress(rsc.FromAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("fromAddress"), rsc.FromAddress, "fromAddress must be a hex address"))
	}
	if (rsc.Cert == "") != (rsc.Key == "") {
		allErrors = append(allErrors, field.Invalid(field.NewPath("cert"), rsc.Cert, "cert and key must be set together"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// ResolvePreset fills Prefix from the known chain presets when it is unset.
func (c *ClientConfig) ResolvePreset() error {
	if c.Prefix != "" {
		return nil
	}
	preset, ok := ChainPresets[c.ChainID]
	if !ok {
		return fmt.Errorf("no prefix configured and chain %s has no preset", c.ChainID)
	}
	c.Prefix = preset.Prefix
	if c.Agent != nil && c.Agent.CoinType == 0 {
		c.Agent.CoinType = preset.CoinType
	}
	return nil
}
