package keyAgent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/pkg/agent"
)

// Request serves the Ethereum-style methods the bridge wallet relies on.
func (k *KeyAgent) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	switch method {
	case agent.Method_RequestAccounts, agent.Method_Accounts:
		return k.ethAccounts(ctx)
	case agent.Method_PersonalSign:
		return k.personalSign(ctx, params)
	case agent.Method_SignTypedDataV4:
		return k.signTypedData(ctx, params)
	default:
		return nil, fmt.Errorf("method %s is not supported", method)
	}
}

func (k *KeyAgent) ethAccounts(ctx context.Context) (json.RawMessage, error) {
	keys, err := k.loadKeys(ctx, k.config.Prefix)
	if err != nil {
		return nil, err
	}
	addresses := make([]string, 0, len(keys))
	for _, key := range keys {
		addresses = append(addresses, key.ethAddress.Hex())
	}
	return json.Marshal(addresses)
}

// personalSign takes [data, address]. Hex data is decoded, anything else is
// signed as UTF-8 text.
func (k *KeyAgent) personalSign(ctx context.Context, params []interface{}) (json.RawMessage, error) {
	data, err := stringParam(params, 0)
	if err != nil {
		return nil, err
	}
	addr, err := stringParam(params, 1)
	if err != nil {
		return nil, err
	}

	message := []byte(data)
	if strings.HasPrefix(data, "0x") {
		if decoded, err := hexutil.Decode(data); err == nil {
			message = decoded
		}
	}

	return k.signEthDigest(ctx, addr, accounts.TextHash(message))
}

// signTypedData takes [address, typedDataJSON].
func (k *KeyAgent) signTypedData(ctx context.Context, params []interface{}) (json.RawMessage, error) {
	addr, err := stringParam(params, 0)
	if err != nil {
		return nil, err
	}
	payload, err := stringParam(params, 1)
	if err != nil {
		return nil, err
	}

	var typedData apitypes.TypedData
	if err := json.Unmarshal([]byte(payload), &typedData); err != nil {
		return nil, fmt.Errorf("invalid typed data: %w", err)
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}

	k.logger.Debug("Signing typed data",
		zap.String("address", addr),
		zap.String("primaryType", typedData.PrimaryType),
	)
	return k.signEthDigest(ctx, addr, hash)
}

func (k *KeyAgent) signEthDigest(ctx context.Context, addr string, digest []byte) (json.RawMessage, error) {
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid ethereum address: %s", addr)
	}
	want := common.HexToAddress(addr)

	keys, err := k.loadKeys(ctx, k.config.Prefix)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if key.ethAddress != want {
			continue
		}
		sig, err := k.config.KeyGenerator.SignDigest(ctx, key.keyId, digest)
		if err != nil {
			return nil, fmt.Errorf("failed to sign with key %s: %w", key.keyId, err)
		}
		return json.Marshal(hexutil.Encode(sig))
	}
	return nil, fmt.Errorf("no key for address %s", addr)
}

func stringParam(params []interface{}, i int) (string, error) {
	if i >= len(params) {
		return "", fmt.Errorf("missing parameter %d", i)
	}
	s, err := cast.ToStringE(params[i])
	if err != nil {
		return "", fmt.Errorf("parameter %d: %w", i, err)
	}
	return s, nil
}
