package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/pkg/address"
	"github.com/Layr-Labs/uniclient-go/pkg/agent"
	"github.com/Layr-Labs/uniclient-go/pkg/amino"
	"github.com/Layr-Labs/uniclient-go/pkg/chainid"
	"github.com/Layr-Labs/uniclient-go/pkg/eip712"
	"github.com/Layr-Labs/uniclient-go/pkg/metrics"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence"
	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

// VerifyMessage is signed during discovery to recover each account's public key.
const VerifyMessage = "Verify Public Key"

// EVMWallet signs Cosmos transactions through an Ethereum-style agent using
// EIP-712 typed data.
type EVMWallet struct {
	chainID    string
	prefix     string
	provider   agent.IEthereumProvider
	identities *persistence.IdentityStore
	registry   *txcodec.Registry
	bridge     *amino.Bridge
	typedData  *eip712.AdapterTable
	logger     *zap.Logger
	metrics    *metrics.Metrics

	snapshot accountSnapshot
}

func (w *EVMWallet) Name() types.WalletName {
	return types.WalletName_Metamask
}

func (w *EVMWallet) SupportCoinType(coinType string) bool {
	return true
}

// GetAccounts returns the cached accounts when present. Otherwise it asks the
// agent for its addresses and recovers each public key from a personal_sign
// over VerifyMessage.
func (w *EVMWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	accounts, err := w.discover(ctx)
	w.metrics.RecordAccounts(w.Name().String(), err)
	return accounts, err
}

func (w *EVMWallet) discover(ctx context.Context) ([]types.Account, error) {
	cached, err := w.identities.ReadAccounts(ctx, persistence.KeyEVMAccounts)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		w.snapshot.replace(cached, nil)
		return cached, nil
	}

	raw, err := w.provider.Request(ctx, agent.Method_RequestAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to request accounts: %w", err)
	}
	var ethAddresses []string
	if err := json.Unmarshal(raw, &ethAddresses); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}

	message := []byte(VerifyMessage)
	discovered := make([]types.Account, 0, len(ethAddresses))
	for _, ethAddress := range ethAddresses {
		sig, err := w.requestSignature(ctx, agent.Method_PersonalSign, hexutil.Encode(message), ethAddress)
		if err != nil {
			return nil, err
		}
		pub, err := recoverPubKey(accounts.TextHash(message), sig)
		if err != nil {
			return nil, err
		}
		recovered := crypto.PubkeyToAddress(*pub)
		if !strings.EqualFold(recovered.Hex(), ethAddress) {
			return nil, fmt.Errorf("signature for %s recovered to %s", ethAddress, recovered.Hex())
		}
		bech, err := address.FromEthAddress(ethAddress, w.prefix)
		if err != nil {
			return nil, err
		}
		discovered = append(discovered, types.Account{
			Address:    bech,
			Algo:       agent.Algo_Secp256k1,
			PubKey:     crypto.CompressPubkey(pub),
			EthAddress: recovered.Hex(),
		})
	}

	if err := w.identities.WriteAccounts(ctx, persistence.KeyEVMAccounts, discovered); err != nil {
		return nil, err
	}
	w.snapshot.replace(discovered, nil)
	w.logger.Sugar().Infow("Discovered EVM accounts", "count", len(discovered), "prefix", w.prefix)
	return copyAccounts(discovered), nil
}

// InvalidateAccounts drops both the persisted cache and the in-memory snapshot.
func (w *EVMWallet) InvalidateAccounts(ctx context.Context) error {
	if err := w.identities.RemoveAccounts(ctx, persistence.KeyEVMAccounts); err != nil {
		return err
	}
	w.snapshot.clear()
	return nil
}

func (w *EVMWallet) resolve(ctx context.Context, signer string) (types.Account, error) {
	if account, ok := w.snapshot.find(signer); ok {
		return account, nil
	}
	cached, err := w.identities.ReadAccounts(ctx, persistence.KeyEVMAccounts)
	if err != nil {
		return types.Account{}, err
	}
	if account, ok := findAccount(cached, signer); ok {
		return account, nil
	}
	return types.Account{}, accountNotFound(signer)
}

func (w *EVMWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedEnvelope, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction cannot be nil")
	}
	env, err := w.sign(ctx, tx)
	w.metrics.RecordSign(w.Name().String(), SignMode_EIP712, err)
	return env, err
}

func (w *EVMWallet) sign(ctx context.Context, tx *types.Transaction) (*types.SignedEnvelope, error) {
	account, err := w.resolve(ctx, tx.SignerAddress)
	if err != nil {
		return nil, err
	}
	ethAddress, err := address.ToEthAddress(tx.SignerAddress)
	if err != nil {
		return nil, err
	}

	// Every type needs a typed-data adapter before amino conversion is attempted.
	typeURLs := make([]string, 0, len(tx.Messages))
	for _, m := range tx.Messages {
		if m == nil {
			return nil, fmt.Errorf("message cannot be nil")
		}
		if _, err := w.typedData.Lookup(m.TypeUrl); err != nil {
			return nil, err
		}
		typeURLs = append(typeURLs, m.TypeUrl)
	}
	msgs, err := w.bridge.ToAminoMsgs(tx.Messages)
	if err != nil {
		return nil, err
	}

	evmChainID := chainid.ExtractEVMChainID(tx.SignerData.ChainID)
	if evmChainID == 0 {
		w.logger.Warn("Chain id has no EVM chain id; typed data domain uses 0",
			zap.String("chainId", tx.SignerData.ChainID))
	}

	td, err := eip712.Build(w.typedData, &eip712.Request{
		TypeURLs:      typeURLs,
		Msgs:          msgs,
		Fee:           tx.Fee,
		FeePayer:      tx.SignerAddress,
		ChainID:       tx.SignerData.ChainID,
		EVMChainID:    evmChainID,
		Memo:          tx.Memo,
		AccountNumber: tx.SignerData.AccountNumber,
		Sequence:      tx.SignerData.Sequence,
	})
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(td)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}

	sig, err := w.requestSignature(ctx, agent.Method_SignTypedDataV4, ethAddress, string(payload))
	if err != nil {
		return nil, err
	}

	bodyBytes, err := w.registry.EncodeTxBody(tx.Messages, tx.Memo)
	if err != nil {
		return nil, err
	}
	pubKey, err := txcodec.PubKeyAny(chainid.KeyType(tx.SignerData.ChainID), account.PubKey)
	if err != nil {
		return nil, err
	}
	authInfoBytes, err := w.registry.EncodeAuthInfo(
		[]txcodec.Signer{{PubKey: pubKey, Sequence: tx.SignerData.Sequence}},
		tx.Fee,
		signing.SignMode_SIGN_MODE_LEGACY_AMINO_JSON,
	)
	if err != nil {
		return nil, err
	}

	return &types.SignedEnvelope{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{sig},
	}, nil
}

// requestSignature calls a signing method and returns the 65-byte signature
// with v in {27, 28}.
func (w *EVMWallet) requestSignature(ctx context.Context, method string, params ...interface{}) ([]byte, error) {
	raw, err := w.provider.Request(ctx, method, params...)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	var sigHex string
	if err := json.Unmarshal(raw, &sigHex); err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return nil, fmt.Errorf("invalid %s signature: %w", method, err)
	}
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("%s signature must be %d bytes, got %d", method, crypto.SignatureLength, len(sig))
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

func recoverPubKey(hash []byte, sig []byte) (*ecdsa.PublicKey, error) {
	normalized := common.CopyBytes(sig)
	normalized[64] -= 27
	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to recover public key: %w", err)
	}
	return pub, nil
}
