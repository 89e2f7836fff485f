package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"

	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

// txFile is the on-disk form of an unsigned transaction. Messages use the
// protobuf JSON encoding with an "@type" field.
type txFile struct {
	Messages      []json.RawMessage `json:"messages"`
	Memo          string            `json:"memo"`
	Fee           types.Fee         `json:"fee"`
	SignerData    types.SignerData  `json:"signer_data"`
	SignerAddress string            `json:"signer_address"`
}

// readTransaction loads path, or stdin when path is "-". An empty chain id
// in signer_data defaults to chainID.
func readTransaction(path string, stdin io.Reader, registry *txcodec.Registry, chainID string) (*types.Transaction, error) {
	var (
		bz  []byte
		err error
	)
	if path == "-" {
		bz, err = io.ReadAll(stdin)
	} else {
		bz, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction: %w", err)
	}
	return parseTransaction(bz, registry, chainID)
}

func parseTransaction(bz []byte, registry *txcodec.Registry, chainID string) (*types.Transaction, error) {
	var file txFile
	if err := json.Unmarshal(bz, &file); err != nil {
		return nil, fmt.Errorf("invalid transaction file: %w", err)
	}
	if len(file.Messages) == 0 {
		return nil, fmt.Errorf("transaction has no messages")
	}
	if file.SignerAddress == "" {
		return nil, fmt.Errorf("signer_address is required")
	}
	if _, err := file.Fee.GasLimit(); err != nil {
		return nil, err
	}
	if file.SignerData.ChainID == "" {
		file.SignerData.ChainID = chainID
	} else if chainID != "" && file.SignerData.ChainID != chainID {
		return nil, fmt.Errorf("transaction chain id %s does not match configured chain id %s", file.SignerData.ChainID, chainID)
	}

	msgs := make([]*codectypes.Any, 0, len(file.Messages))
	for i, raw := range file.Messages {
		msg, err := registry.DecodeMsgJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	return &types.Transaction{
		Messages:      msgs,
		Memo:          file.Memo,
		Fee:           file.Fee,
		SignerData:    file.SignerData,
		SignerAddress: file.SignerAddress,
	}, nil
}
