package keyAgent

import (
	"context"
	"fmt"

	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"go.uber.org/zap"

	"github.com/Layr-Labs/uniclient-go/pkg/agent"
	"github.com/Layr-Labs/uniclient-go/pkg/amino"
)

type offlineSigner struct {
	agent   *KeyAgent
	chainID string
	prefix  string
}

func (s *offlineSigner) GetAccounts(ctx context.Context) ([]agent.AccountData, error) {
	keys, err := s.agent.loadKeys(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	accounts := make([]agent.AccountData, 0, len(keys))
	for _, key := range keys {
		accounts = append(accounts, key.account)
	}
	return accounts, nil
}

func (s *offlineSigner) SignDirect(ctx context.Context, signerAddress string, signDoc *txtypes.SignDoc) (*agent.DirectSignResponse, error) {
	if signDoc == nil {
		return nil, fmt.Errorf("sign doc is required")
	}
	if signDoc.ChainId != s.chainID {
		return nil, fmt.Errorf("sign doc chain id %s does not match signer chain %s", signDoc.ChainId, s.chainID)
	}
	key, err := s.agent.findByAddress(ctx, s.prefix, signerAddress)
	if err != nil {
		return nil, err
	}

	bz, err := signDoc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign doc: %w", err)
	}
	sig, err := s.agent.signCosmos(ctx, key, bz)
	if err != nil {
		return nil, err
	}

	s.agent.logger.Debug("Signed direct sign doc",
		zap.String("chainId", s.chainID),
		zap.String("signer", signerAddress),
		zap.Uint64("accountNumber", signDoc.AccountNumber),
	)
	return &agent.DirectSignResponse{Signed: signDoc, Signature: s.agent.stdSignature(key, sig)}, nil
}

func (s *offlineSigner) SignAmino(ctx context.Context, signerAddress string, signDoc *amino.StdSignDoc) (*agent.AminoSignResponse, error) {
	if signDoc == nil {
		return nil, fmt.Errorf("sign doc is required")
	}
	if signDoc.ChainID != s.chainID {
		return nil, fmt.Errorf("sign doc chain id %s does not match signer chain %s", signDoc.ChainID, s.chainID)
	}
	key, err := s.agent.findByAddress(ctx, s.prefix, signerAddress)
	if err != nil {
		return nil, err
	}

	bz, err := signDoc.SignBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to build amino sign bytes: %w", err)
	}
	sig, err := s.agent.signCosmos(ctx, key, bz)
	if err != nil {
		return nil, err
	}

	s.agent.logger.Debug("Signed amino sign doc",
		zap.String("chainId", s.chainID),
		zap.String("signer", signerAddress),
		zap.Int("msgs", len(signDoc.Msgs)),
	)
	return &agent.AminoSignResponse{Signed: signDoc, Signature: s.agent.stdSignature(key, sig)}, nil
}
