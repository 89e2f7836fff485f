package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Layr-Labs/uniclient-go/internal/keyAgent"
	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator/localKeyGenerator"
	"github.com/Layr-Labs/uniclient-go/pkg/agent"
	"github.com/Layr-Labs/uniclient-go/pkg/clients/web3signer"
	"github.com/Layr-Labs/uniclient-go/pkg/config"
	"github.com/Layr-Labs/uniclient-go/pkg/logger"
)

// Signs the same personal_sign payload with a Web3Signer and with a local key
// agent holding the same private key, and compares the signatures.
//
// UNICLIENT_PRIVATE_KEY must hold the key the Web3Signer serves.
func main() {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	ctx := context.Background()

	privateKeyHex := os.Getenv(config.EnvUniClientPrivateKey)
	if privateKeyHex == "" {
		l.Sugar().Fatalf("%s is required", config.EnvUniClientPrivateKey)
	}
	privateKey, err := crypto.HexToECDSA(trim0x(privateKeyHex))
	if err != nil {
		l.Sugar().Fatalf("failed to parse private key: %v", err)
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	generator := localKeyGenerator.NewLocalKeyGenerator(l)
	if err := generator.LoadPrivateKey("local", privateKey, "local", ""); err != nil {
		l.Sugar().Fatalw("failed to load private key", "error", err)
	}
	localAgent, err := keyAgent.NewKeyAgent(&keyAgent.KeyAgentConfig{
		KeyGenerator: generator,
		KeyIds:       []string{"local"},
		Prefix:       "titan",
		CoinType:     keyAgent.CoinType_Ethereum,
	}, l)
	if err != nil {
		l.Sugar().Fatalw("failed to create key agent", "error", err)
	}

	signerCfg := &config.RemoteSignerConfig{
		Url:         "http://localhost:9100",
		FromAddress: address,
	}
	web3SignerClient, err := web3signer.NewWeb3SignerClientFromRemoteSignerConfig(signerCfg, l)
	if err != nil {
		l.Sugar().Fatalw("failed to create Web3Signer client", "error", err)
	}
	remoteAgent := web3signer.NewEthereumProvider(web3SignerClient)

	message := "0x" + hex.EncodeToString([]byte("Hello, Web3Signer!"))

	signatureWeb3, err := personalSign(ctx, remoteAgent, message, address)
	if err != nil {
		l.Sugar().Fatalw("failed to sign message with Web3Signer", "error", err)
	}
	signatureLocal, err := personalSign(ctx, localAgent, message, address)
	if err != nil {
		l.Sugar().Fatalw("failed to sign message with local key agent", "error", err)
	}

	fmt.Printf("Address: %s\n", address)
	fmt.Printf("Signature (Web3Signer):  %s\n", signatureWeb3)
	fmt.Printf("Signature (Local agent): %s\n", signatureLocal)

	if signatureWeb3 == signatureLocal {
		fmt.Println("Signatures match!")
	} else {
		fmt.Println("Signatures do not match!")
	}
}

func personalSign(ctx context.Context, provider agent.IEthereumProvider, message, address string) (string, error) {
	raw, err := provider.Request(ctx, agent.Method_PersonalSign, message, address)
	if err != nil {
		return "", err
	}
	var sig string
	if err := json.Unmarshal(raw, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

func trim0x(s string) string {
	if len(s) >= 2 && s[:2] == "0x" {
		return s[2:]
	}
	return s
}
