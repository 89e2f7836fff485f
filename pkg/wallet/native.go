package wallet

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/pkg/agent"
	"github.com/Layr-Labs/uniclient-go/pkg/amino"
	"github.com/Layr-Labs/uniclient-go/pkg/chainid"
	"github.com/Layr-Labs/uniclient-go/pkg/metrics"
	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const wasmNamespace = "/cosmwasm.wasm"

// NativeWallet signs through a Cosmos-style agent (Keplr, Leap) in either
// Direct or Amino JSON mode.
type NativeWallet struct {
	name       types.WalletName
	chainID    string
	provider   agent.ICosmosProvider
	registry   *txcodec.Registry
	bridge     *amino.Bridge
	namespaces []string
	logger     *zap.Logger
	metrics    *metrics.Metrics

	// snapshot carries the offline signer alongside the accounts it reported.
	snapshot accountSnapshot
}

func (w *NativeWallet) Name() types.WalletName {
	return w.name
}

func (w *NativeWallet) SupportCoinType(coinType string) bool {
	return true
}

func (w *NativeWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	accounts, err := w.discover(ctx)
	w.metrics.RecordAccounts(w.name.String(), err)
	return accounts, err
}

func (w *NativeWallet) discover(ctx context.Context) ([]types.Account, error) {
	if err := w.provider.Enable(ctx, w.chainID); err != nil {
		return nil, fmt.Errorf("failed to enable chain %s: %w", w.chainID, err)
	}
	signer, err := w.provider.GetOfflineSigner(ctx, w.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get offline signer: %w", err)
	}
	data, err := signer.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	accounts := make([]types.Account, 0, len(data))
	for _, d := range data {
		accounts = append(accounts, types.Account{
			Address: d.Address,
			Algo:    d.Algo,
			PubKey:  append([]byte(nil), d.PubKey...),
		})
	}

	w.snapshot.replace(accounts, signer)

	w.logger.Sugar().Debugw("Discovered accounts", "wallet", w.name, "chainId", w.chainID, "count", len(accounts))
	return copyAccounts(accounts), nil
}

// SuggestChain registers info with the agent and enables it. It fails when
// the agent cannot accept chain suggestions.
func (w *NativeWallet) SuggestChain(ctx context.Context, info *agent.ChainInfo) error {
	suggester, ok := w.provider.(agent.IChainSuggester)
	if !ok {
		return fmt.Errorf("%s does not support chain suggestion", w.name)
	}
	if err := suggester.SuggestChain(ctx, info); err != nil {
		return fmt.Errorf("failed to suggest chain %s: %w", info.ChainID, err)
	}
	return w.provider.Enable(ctx, info.ChainID)
}

// UsesDirectMode reports whether msgs must be signed in Direct mode: any
// CosmWasm message, or any message under one of namespaces.
func UsesDirectMode(tx *types.Transaction, namespaces []string) bool {
	for _, m := range tx.Messages {
		if m == nil {
			continue
		}
		if strings.HasPrefix(m.TypeUrl, wasmNamespace) {
			return true
		}
		for _, ns := range namespaces {
			if strings.HasPrefix(m.TypeUrl, ns) {
				return true
			}
		}
	}
	return false
}

func (w *NativeWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedEnvelope, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction cannot be nil")
	}
	account, signer, ok := w.snapshot.lookup(tx.SignerAddress)
	if !ok || signer == nil {
		return nil, accountNotFound(tx.SignerAddress)
	}

	mode := SignMode_Amino
	if UsesDirectMode(tx, w.namespaces) {
		mode = SignMode_Direct
	}

	var env *types.SignedEnvelope
	var err error
	if mode == SignMode_Direct {
		env, err = w.signDirect(ctx, signer, account, tx)
	} else {
		env, err = w.signAmino(ctx, signer, account, tx)
	}
	w.metrics.RecordSign(w.name.String(), mode, err)
	return env, err
}

func (w *NativeWallet) signDirect(ctx context.Context, signer agent.IOfflineSigner, account types.Account, tx *types.Transaction) (*types.SignedEnvelope, error) {
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
		signing.SignMode_SIGN_MODE_DIRECT,
	)
	if err != nil {
		return nil, err
	}

	doc := txcodec.MakeSignDoc(bodyBytes, authInfoBytes, tx.SignerData.ChainID, tx.SignerData.AccountNumber)
	resp, err := signer.SignDirect(ctx, tx.SignerAddress, doc)
	if err != nil {
		return nil, fmt.Errorf("agent failed to sign direct: %w", err)
	}
	if resp == nil || resp.Signed == nil {
		return nil, fmt.Errorf("agent returned an empty direct sign response")
	}

	return &types.SignedEnvelope{
		BodyBytes:     resp.Signed.BodyBytes,
		AuthInfoBytes: resp.Signed.AuthInfoBytes,
		Signatures:    [][]byte{resp.Signature.Signature},
	}, nil
}

func (w *NativeWallet) signAmino(ctx context.Context, signer agent.IOfflineSigner, account types.Account, tx *types.Transaction) (*types.SignedEnvelope, error) {
	msgs, err := w.bridge.ToAminoMsgs(tx.Messages)
	if err != nil {
		return nil, err
	}
	doc := amino.MakeSignDoc(msgs, tx.Fee, tx.SignerData.ChainID, tx.Memo, tx.SignerData.AccountNumber, tx.SignerData.Sequence)

	resp, err := signer.SignAmino(ctx, tx.SignerAddress, doc)
	if err != nil {
		return nil, fmt.Errorf("agent failed to sign amino: %w", err)
	}
	if resp == nil || resp.Signed == nil {
		return nil, fmt.Errorf("agent returned an empty amino sign response")
	}
	signed := resp.Signed
	w.warnOnDivergence(doc, signed)

	// The envelope is rebuilt from what the agent signed, not from the request.
	signedMsgs, err := w.bridge.FromAminoMsgs(signed.Msgs)
	if err != nil {
		return nil, err
	}
	bodyBytes, err := w.registry.EncodeTxBody(signedMsgs, signed.Memo)
	if err != nil {
		return nil, err
	}
	sequence, err := signed.SequenceNumber()
	if err != nil {
		return nil, err
	}
	pubKey, err := txcodec.PubKeyAny(chainid.KeyType(tx.SignerData.ChainID), account.PubKey)
	if err != nil {
		return nil, err
	}
	authInfoBytes, err := w.registry.EncodeAuthInfo(
		[]txcodec.Signer{{PubKey: pubKey, Sequence: sequence}},
		signed.Fee.ToFee(),
		signing.SignMode_SIGN_MODE_LEGACY_AMINO_JSON,
	)
	if err != nil {
		return nil, err
	}

	return &types.SignedEnvelope{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{resp.Signature.Signature},
	}, nil
}

func (w *NativeWallet) warnOnDivergence(requested, signed *amino.StdSignDoc) {
	want, err := requested.SignBytes()
	if err != nil {
		return
	}
	got, err := signed.SignBytes()
	if err != nil {
		w.logger.Sugar().Warnw("Agent returned an unreadable sign doc", "wallet", w.name, "error", err)
		return
	}
	if bytes.Equal(want, got) {
		return
	}
	w.logger.Warn("Agent changed the amino sign doc; envelope uses the agent's values",
		zap.String("wallet", w.name.String()),
		zap.String("chainId", signed.ChainID),
		zap.String("requestedGas", requested.Fee.Gas),
		zap.String("signedGas", signed.Fee.Gas),
		zap.Bool("memoChanged", requested.Memo != signed.Memo),
		zap.String("requestedSequence", requested.Sequence),
		zap.String("signedSequence", signed.Sequence),
	)
}
