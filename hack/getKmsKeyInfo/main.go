package main

import (
	"context"
	"os"

	"github.com/Layr-Labs/uniclient-go/internal/aws"
	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator/awsKms"
	"github.com/Layr-Labs/uniclient-go/pkg/address"
	"github.com/Layr-Labs/uniclient-go/pkg/config"
	"github.com/Layr-Labs/uniclient-go/pkg/logger"
)

// Prints the public key and the Ethereum and bech32 addresses of a KMS key.
func main() {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	ctx := context.Background()

	awsCfg, err := aws.LoadAWSConfig(ctx, os.Getenv(config.EnvUniClientAWSRegion))
	if err != nil {
		l.Sugar().Fatalw("failed to load AWS config", "error", err)
	}

	keyId := os.Getenv(config.EnvUniClientKMSKeyID)
	if keyId == "" {
		l.Sugar().Fatalf("%s environment variable is not set", config.EnvUniClientKMSKeyID)
	}
	prefix := os.Getenv(config.EnvUniClientPrefix)
	if prefix == "" {
		prefix = "titan"
	}

	keyGen := awsKms.NewAWSKMSKeyGenerator(awsCfg, "uniclient", l)

	key, err := keyGen.GetECDSAKeyById(ctx, keyId)
	if err != nil {
		l.Sugar().Fatalw("failed to get ECDSA key", "error", err)
	}

	pubKeyHex, err := key.GetPublicKeyHex()
	if err != nil {
		l.Sugar().Fatalw("failed to get public key hex", "error", err)
	}
	bech, err := address.FromEthAddress(key.Address, prefix)
	if err != nil {
		l.Sugar().Fatalw("failed to derive bech32 address", "error", err)
	}

	l.Sugar().Infow("KMS key",
		"keyId", key.KeyId,
		"publicKeyHex", pubKeyHex,
		"ethAddress", key.Address,
		"address", bech,
	)
}
