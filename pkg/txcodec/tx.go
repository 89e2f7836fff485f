package txcodec

import (
	"encoding/base64"
	"fmt"

	sdkmath "cosmossdk.io/math"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"

	"github.com/Layr-Labs/uniclient-go/pkg/chainid"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

// Signer is one entry of AuthInfo.signer_infos.
type Signer struct {
	PubKey   *codectypes.Any
	Sequence uint64
}

// PubKeyAny wraps a compressed secp256k1 key under typeURL. The ethsecp256k1
// variants share the secp256k1 wire layout so only the type URL differs.
func PubKeyAny(typeURL string, key []byte) (*codectypes.Any, error) {
	bz, err := (&secp256k1.PubKey{Key: key}).Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return &codectypes.Any{TypeUrl: typeURL, Value: bz}, nil
}

// FeeCoins converts fee amounts keeping caller order. sdk.NewCoins is avoided
// since it sorts and drops zero amounts, which would change the signed bytes.
func FeeCoins(coins []types.Coin) (sdk.Coins, error) {
	out := make(sdk.Coins, 0, len(coins))
	for _, c := range coins {
		amount, ok := sdkmath.NewIntFromString(c.Amount)
		if !ok {
			return nil, fmt.Errorf("invalid amount %q for denom %s", c.Amount, c.Denom)
		}
		out = append(out, sdk.Coin{Denom: c.Denom, Amount: amount})
	}
	return out, nil
}

// EncodeTxBody serializes a TxBody holding msgs and memo.
func (r *Registry) EncodeTxBody(msgs []*codectypes.Any, memo string) ([]byte, error) {
	body := &txtypes.TxBody{
		Messages: msgs,
		Memo:     memo,
	}
	bz, err := r.cdc.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tx body: %w", err)
	}
	return bz, nil
}

// DecodeTxBody parses body bytes and resolves each message against the
// registry. A message whose type is not registered fails the decode; resolved
// messages are available through GetCachedValue.
func (r *Registry) DecodeTxBody(bz []byte) (*txtypes.TxBody, error) {
	var body txtypes.TxBody
	if err := r.cdc.Unmarshal(bz, &body); err != nil {
		return nil, fmt.Errorf("failed to decode tx body: %w", err)
	}
	for i, m := range body.Messages {
		if _, err := r.UnpackMsg(m); err != nil {
			return nil, fmt.Errorf("failed to decode tx body message %d: %w", i, err)
		}
	}
	return &body, nil
}

// EncodeAuthInfo serializes an AuthInfo with one single-mode signer info per signer.
func (r *Registry) EncodeAuthInfo(signers []Signer, fee types.Fee, mode signing.SignMode) ([]byte, error) {
	gasLimit, err := fee.GasLimit()
	if err != nil {
		return nil, err
	}
	amount, err := FeeCoins(fee.Amount)
	if err != nil {
		return nil, err
	}

	signerInfos := make([]*txtypes.SignerInfo, 0, len(signers))
	for _, s := range signers {
		signerInfos = append(signerInfos, &txtypes.SignerInfo{
			PublicKey: s.PubKey,
			ModeInfo: &txtypes.ModeInfo{
				Sum: &txtypes.ModeInfo_Single_{
					Single: &txtypes.ModeInfo_Single{Mode: mode},
				},
			},
			Sequence: s.Sequence,
		})
	}

	authInfo := &txtypes.AuthInfo{
		SignerInfos: signerInfos,
		Fee: &txtypes.Fee{
			Amount:   amount,
			GasLimit: gasLimit,
			Payer:    fee.Payer,
			Granter:  fee.Granter,
		},
	}
	bz, err := r.cdc.Marshal(authInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to encode auth info: %w", err)
	}
	return bz, nil
}

// DecodeAuthInfo parses auth-info bytes. Public keys are left packed since
// ethsecp256k1 type URLs are not registered here.
func DecodeAuthInfo(bz []byte) (*txtypes.AuthInfo, error) {
	var authInfo txtypes.AuthInfo
	if err := authInfo.Unmarshal(bz); err != nil {
		return nil, fmt.Errorf("failed to decode auth info: %w", err)
	}
	return &authInfo, nil
}

// MakeSignDoc binds body and auth-info bytes to a chain and account for Direct signing.
func MakeSignDoc(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) *txtypes.SignDoc {
	return &txtypes.SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainId:       chainID,
		AccountNumber: accountNumber,
	}
}

// EncodeEnvelope serializes a signed envelope as TxRaw.
func EncodeEnvelope(env *types.SignedEnvelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("envelope cannot be nil")
	}
	raw := &txtypes.TxRaw{
		BodyBytes:     env.BodyBytes,
		AuthInfoBytes: env.AuthInfoBytes,
		Signatures:    env.Signatures,
	}
	bz, err := raw.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode tx raw: %w", err)
	}
	return bz, nil
}

// EncodeEnvelopeBase64 is the tx_bytes form the REST gateway expects.
func EncodeEnvelopeBase64(env *types.SignedEnvelope) (string, error) {
	bz, err := EncodeEnvelope(env)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(bz), nil
}

// DecodeEnvelope parses TxRaw bytes.
func DecodeEnvelope(bz []byte) (*types.SignedEnvelope, error) {
	var raw txtypes.TxRaw
	if err := raw.Unmarshal(bz); err != nil {
		return nil, fmt.Errorf("failed to decode tx raw: %w", err)
	}
	return &types.SignedEnvelope{
		BodyBytes:     raw.BodyBytes,
		AuthInfoBytes: raw.AuthInfoBytes,
		Signatures:    raw.Signatures,
	}, nil
}

// BuildSimulationEnvelope builds the unsigned shape nodes accept for gas
// estimation: an empty ed25519 key, Direct mode and a single empty signature.
func (r *Registry) BuildSimulationEnvelope(tx *types.Transaction) (*types.SignedEnvelope, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction cannot be nil")
	}
	bodyBytes, err := r.EncodeTxBody(tx.Messages, tx.Memo)
	if err != nil {
		return nil, err
	}
	pubKey := &codectypes.Any{TypeUrl: chainid.KeyType_Ed25519, Value: []byte{}}
	authInfoBytes, err := r.EncodeAuthInfo(
		[]Signer{{PubKey: pubKey, Sequence: tx.SignerData.Sequence}},
		tx.Fee,
		signing.SignMode_SIGN_MODE_DIRECT,
	)
	if err != nil {
		return nil, err
	}
	return &types.SignedEnvelope{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{{}},
	}, nil
}
