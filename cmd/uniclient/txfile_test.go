package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
)

func Test_ParseTransaction(t *testing.T) {
	registry, err := txcodec.DefaultRegistry()
	require.NoError(t, err)

	valid := `{"messages":[{"@type":"/cosmos.bank.v1beta1.MsgSend","from_address":"a","to_address":"b","amount":[]}],"fee":{"amount":[],"gas":"200000"},"signer_address":"a"}`

	tests := []struct {
		name        string
		body        string
		chainID     string
		expectedErr string
	}{
		{name: "valid", body: valid, chainID: "cosmoshub-4"},
		{name: "not json", body: "{", expectedErr: "invalid transaction file"},
		{name: "no messages", body: `{"messages":[],"signer_address":"a"}`, expectedErr: "no messages"},
		{name: "no signer", body: `{"messages":[{}]}`, expectedErr: "signer_address"},
		{name: "bad gas", body: `{"messages":[{}],"signer_address":"a","fee":{"gas":"lots"}}`, expectedErr: "invalid gas limit"},
		{
			name:        "unknown type",
			body:        `{"messages":[{"@type":"/titan.unknown.MsgNothing"}],"signer_address":"a","fee":{"gas":"1"}}`,
			expectedErr: "message 0",
		},
		{
			name:        "chain mismatch",
			body:        `{"messages":[{}],"signer_address":"a","fee":{"gas":"1"},"signer_data":{"chain_id":"osmosis-1"}}`,
			chainID:     "cosmoshub-4",
			expectedErr: "does not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := parseTransaction([]byte(tt.body), registry, tt.chainID)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, tx.Messages, 1)
			assert.Equal(t, "/cosmos.bank.v1beta1.MsgSend", tx.Messages[0].TypeUrl)
			assert.Equal(t, tt.chainID, tx.SignerData.ChainID)
		})
	}
}

func Test_ReadTransactionFromStdin(t *testing.T) {
	registry, err := txcodec.DefaultRegistry()
	require.NoError(t, err)

	body := `{"messages":[{"@type":"/cosmos.bank.v1beta1.MsgSend","from_address":"a","to_address":"b","amount":[]}],"fee":{"gas":"1"},"signer_address":"a","signer_data":{"chain_id":"cosmoshub-4","sequence":9}}`
	tx, err := readTransaction("-", strings.NewReader(body), registry, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), tx.SignerData.Sequence)
	assert.Equal(t, "cosmoshub-4", tx.SignerData.ChainID)

	_, err = readTransaction("/does/not/exist.json", nil, registry, "")
	require.Error(t, err)
}
