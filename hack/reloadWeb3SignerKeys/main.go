package main

import (
	"context"
	"os"
	"time"

	"github.com/Layr-Labs/uniclient-go/pkg/clients/web3signer"
	"github.com/Layr-Labs/uniclient-go/pkg/config"
	"github.com/Layr-Labs/uniclient-go/pkg/logger"
)

// Reloads a local Web3Signer's key store and waits until the public key given
// as the first argument is served.
func main() {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	if len(os.Args) < 2 {
		l.Sugar().Fatal("usage: reloadWeb3SignerKeys <public key hex>")
	}
	publicKey := os.Args[1]

	signerCfg := &config.RemoteSignerConfig{
		Url: "http://localhost:9000",
	}
	if url := os.Getenv(config.EnvUniClientRemoteSignerURL); url != "" {
		signerCfg.Url = url
	}

	web3SignerClient, err := web3signer.NewWeb3SignerClientFromRemoteSignerConfig(signerCfg, l)
	if err != nil {
		l.Sugar().Fatalw("failed to create Web3Signer client", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := web3SignerClient.ReloadKeysAndWaitForPublicKey(ctx, publicKey); err != nil {
		l.Sugar().Fatalw("failed to reload Web3Signer keys", "error", err)
	}
	l.Sugar().Infow("Successfully reloaded Web3Signer keys", "publicKey", publicKey)
}
