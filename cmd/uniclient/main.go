package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/uniclient-go/pkg/config"
)

const (
	flagWallet        = "wallet"
	flagChainID       = "chain-id"
	flagPrefix        = "prefix"
	flagHDPath        = "hd-path"
	flagRestEndpoint  = "rest-endpoint"
	flagBroadcastMode = "broadcast-mode"
	flagRateLimit     = "rate-limit"
	flagDebug         = "debug"
	flagAddress       = "address"
	flagName          = "name"

	flagAgent            = "agent"
	flagCoinType         = "coin-type"
	flagMnemonic         = "mnemonic"
	flagPassphrase       = "passphrase"
	flagPrivateKey       = "private-key"
	flagKMSKeyID         = "kms-key-id"
	flagAWSRegion        = "aws-region"
	flagRemoteSignerURL  = "remote-signer-url"
	flagRemoteSignerAddr = "remote-signer-address"
	flagRemoteSignerCA   = "remote-signer-ca-cert"
	flagRemoteSignerCert = "remote-signer-cert"
	flagRemoteSignerKey  = "remote-signer-key"

	flagPersistence   = "persistence"
	flagDataPath      = "data-path"
	flagRedisAddress  = "redis-address"
	flagRedisPassword = "redis-password"
	flagRedisDB       = "redis-db"

	flagTx            = "tx"
	flagGasAdjustment = "gas-adjustment"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	txFlag := &cli.StringFlag{
		Name:     flagTx,
		Usage:    "Path to a JSON transaction file, or - for stdin",
		Required: true,
	}

	return &cli.App{
		Name:  "uniclient",
		Usage: "Sign and broadcast Cosmos transactions through a pluggable signing agent",
		Description: `uniclient signs Cosmos SDK transactions with one of several signing agents and
submits them to a node's REST gateway.

Wallets:
- Keplr, Leap: native Direct or Amino signing
- Metamask: EIP-712 typed-data signing for Ethermint chains
- Address, Nameservice: watch-only identities

Agents back the wallet with a mnemonic, a hex private key, an AWS KMS key or a
remote Web3Signer.`,
		Version: "1.0.0",
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "accounts",
				Usage:  "Discover the wallet's accounts and record the connected identity",
				Action: accountsCommand,
			},
			{
				Name:   "sign",
				Usage:  "Sign a transaction and print the base64 TxRaw",
				Flags:  []cli.Flag{txFlag},
				Action: signCommand,
			},
			{
				Name:  "simulate",
				Usage: "Estimate gas for a transaction",
				Flags: []cli.Flag{
					txFlag,
					&cli.Float64Flag{
						Name:  flagGasAdjustment,
						Usage: "Multiplier applied to gas used for the suggested gas limit",
						Value: 1.3,
					},
				},
				Action: simulateCommand,
			},
			{
				Name:   "broadcast",
				Usage:  "Sign a transaction and submit it to the REST gateway",
				Flags:  []cli.Flag{txFlag},
				Action: broadcastCommand,
			},
			{
				Name:   "disconnect",
				Usage:  "Remove the connected identity and cached accounts",
				Action: disconnectCommand,
			},
			{
				Name:   "whoami",
				Usage:  "Print the AWS principal the KMS agent signs as",
				Action: whoamiCommand,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagWallet,
			Usage:   "Wallet: Keplr, Leap, Metamask, Address or Nameservice",
			Value:   "Keplr",
			EnvVars: []string{config.EnvUniClientWallet},
		},
		&cli.StringFlag{
			Name:    flagChainID,
			Usage:   "Chain id",
			EnvVars: []string{config.EnvUniClientChainID},
		},
		&cli.StringFlag{
			Name:    flagPrefix,
			Usage:   "Bech32 account prefix. Known chains fill this in",
			EnvVars: []string{config.EnvUniClientPrefix},
		},
		&cli.StringFlag{
			Name:    flagHDPath,
			Usage:   "BIP-44 derivation path",
			EnvVars: []string{config.EnvUniClientHDPath},
		},
		&cli.StringFlag{
			Name:    flagRestEndpoint,
			Usage:   "REST gateway base url",
			EnvVars: []string{config.EnvUniClientRestEndpoint},
		},
		&cli.StringFlag{
			Name:    flagBroadcastMode,
			Usage:   "Broadcast mode: sync, async or block",
			Value:   "sync",
			EnvVars: []string{config.EnvUniClientBroadcastMode},
		},
		&cli.Float64Flag{
			Name:    flagRateLimit,
			Usage:   "Maximum gateway requests per second, 0 disables pacing",
			EnvVars: []string{config.EnvUniClientRateLimit},
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Usage:   "Enable debug logging",
			EnvVars: []string{config.EnvUniClientDebug},
		},
		&cli.StringFlag{
			Name:  flagAddress,
			Usage: "Address shown by the Address and Nameservice wallets",
		},
		&cli.StringFlag{
			Name:  flagName,
			Usage: "Name shown by the Nameservice wallet",
		},
		&cli.StringFlag{
			Name:    flagAgent,
			Usage:   "Signing agent: mnemonic, privkey, aws-kms or web3signer",
			EnvVars: []string{config.EnvUniClientAgent},
		},
		&cli.UintFlag{
			Name:    flagCoinType,
			Usage:   "BIP-44 coin type. 60 selects Ethereum-style accounts",
			EnvVars: []string{config.EnvUniClientCoinType},
		},
		&cli.StringFlag{
			Name:    flagMnemonic,
			Usage:   "BIP-39 mnemonic for the mnemonic agent",
			EnvVars: []string{config.EnvUniClientMnemonic},
		},
		&cli.StringFlag{
			Name:    flagPassphrase,
			Usage:   "Optional BIP-39 passphrase",
			EnvVars: []string{config.EnvUniClientPassphrase},
		},
		&cli.StringFlag{
			Name:    flagPrivateKey,
			Usage:   "Hex secp256k1 private key for the privkey agent",
			EnvVars: []string{config.EnvUniClientPrivateKey},
		},
		&cli.StringFlag{
			Name:    flagKMSKeyID,
			Usage:   "AWS KMS key id for the aws-kms agent",
			EnvVars: []string{config.EnvUniClientKMSKeyID},
		},
		&cli.StringFlag{
			Name:    flagAWSRegion,
			Usage:   "AWS region override",
			EnvVars: []string{config.EnvUniClientAWSRegion},
		},
		&cli.StringFlag{
			Name:    flagRemoteSignerURL,
			Usage:   "Web3Signer base url",
			EnvVars: []string{config.EnvUniClientRemoteSignerURL},
		},
		&cli.StringFlag{
			Name:    flagRemoteSignerAddr,
			Usage:   "Ethereum address held by the Web3Signer",
			EnvVars: []string{config.EnvUniClientRemoteSignerAddr},
		},
		&cli.StringFlag{
			Name:    flagRemoteSignerCA,
			Usage:   "CA certificate (PEM or path) for the Web3Signer",
			EnvVars: []string{config.EnvUniClientRemoteSignerCA},
		},
		&cli.StringFlag{
			Name:    flagRemoteSignerCert,
			Usage:   "Client certificate (PEM or path) for the Web3Signer",
			EnvVars: []string{config.EnvUniClientRemoteSignerCert},
		},
		&cli.StringFlag{
			Name:    flagRemoteSignerKey,
			Usage:   "Client key (PEM or path) for the Web3Signer",
			EnvVars: []string{config.EnvUniClientRemoteSignerKey},
		},
		&cli.StringFlag{
			Name:    flagPersistence,
			Usage:   "Identity store: memory, badger or redis",
			Value:   config.PersistenceType_Memory.String(),
			EnvVars: []string{config.EnvUniClientPersistenceType},
		},
		&cli.StringFlag{
			Name:    flagDataPath,
			Usage:   "Badger data directory",
			EnvVars: []string{config.EnvUniClientDataPath},
		},
		&cli.StringFlag{
			Name:    flagRedisAddress,
			Usage:   "Redis address (host:port)",
			EnvVars: []string{config.EnvUniClientRedisAddress},
		},
		&cli.StringFlag{
			Name:    flagRedisPassword,
			Usage:   "Redis password",
			EnvVars: []string{config.EnvUniClientRedisPassword},
		},
		&cli.IntFlag{
			Name:    flagRedisDB,
			Usage:   "Redis database number",
			EnvVars: []string{config.EnvUniClientRedisDB},
		},
	}
}
