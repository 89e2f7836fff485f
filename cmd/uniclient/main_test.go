package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/uniclient-go/pkg/address"
	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"uniclient"}, args...))
	return out.String(), err
}

func mnemonicArgs(extra ...string) []string {
	return append([]string{
		"--wallet", "Keplr",
		"--chain-id", "cosmoshub-4",
		"--agent", "mnemonic",
		"--mnemonic", testMnemonic,
	}, extra...)
}

func discoverAddress(t *testing.T) string {
	t.Helper()
	out, err := runApp(t, mnemonicArgs("accounts")...)
	require.NoError(t, err)
	var result struct {
		Connected types.ConnectedIdentity `json:"connected"`
		Accounts  []types.Account         `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Accounts, 1)
	assert.Equal(t, result.Accounts[0].Address, result.Connected.Address)
	assert.Equal(t, types.DefaultHDPath, result.Connected.HDPath)
	return result.Accounts[0].Address
}

func writeTxFile(t *testing.T, signer string) string {
	t.Helper()
	body := fmt.Sprintf(`{
  "messages": [{"@type":"/cosmos.bank.v1beta1.MsgSend","from_address":%q,"to_address":%q,"amount":[{"denom":"uatom","amount":"10"}]}],
  "memo": "cli",
  "fee": {"amount":[{"denom":"uatom","amount":"2500"}],"gas":"100000"},
  "signer_data": {"account_number": 3, "sequence": 1},
  "signer_address": %q
}`, signer, signer, signer)
	path := filepath.Join(t.TempDir(), "tx.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_AccountsWatchOnly(t *testing.T) {
	addr, err := address.Encode("cosmos", bytes.Repeat([]byte{1}, 20))
	require.NoError(t, err)

	out, err := runApp(t, "--wallet", "Address", "--address", addr, "--chain-id", "cosmoshub-4", "accounts")
	require.NoError(t, err)
	assert.Contains(t, out, addr)
}

func Test_AccountsMnemonic(t *testing.T) {
	addr := discoverAddress(t)
	prefix, _, err := address.Decode(addr)
	require.NoError(t, err)
	assert.Equal(t, "cosmos", prefix)
}

func Test_InvalidConfiguration(t *testing.T) {
	_, err := runApp(t, "--wallet", "Trezor", "--chain-id", "cosmoshub-4", "accounts")
	require.Error(t, err)

	_, err = runApp(t, "--chain-id", "unknown-1", "accounts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no preset")

	_, err = runApp(t, "--chain-id", "cosmoshub-4", "--agent", "mnemonic", "accounts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mnemonic is required")

	_, err = runApp(t, "--chain-id", "cosmoshub-4", "--broadcast-mode", "eventually", "accounts")
	require.Error(t, err)
}

func Test_SignPrintsTxRaw(t *testing.T) {
	signer := discoverAddress(t)
	out, err := runApp(t, mnemonicArgs("sign", "--tx", writeTxFile(t, signer))...)
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	bz, err := base64.StdEncoding.DecodeString(result["tx_bytes"])
	require.NoError(t, err)
	env, err := txcodec.DecodeEnvelope(bz)
	require.NoError(t, err)
	require.Len(t, env.Signatures, 1)
	assert.Len(t, env.Signatures[0], 64)

	authInfo, err := txcodec.DecodeAuthInfo(env.AuthInfoBytes)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), authInfo.SignerInfos[0].Sequence)
}

func Test_SimulateAndBroadcast(t *testing.T) {
	signer := discoverAddress(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cosmos/tx/v1beta1/simulate":
			_, _ = w.Write([]byte(`{"gas_info":{"gas_used":"100000"}}`))
		default:
			_, _ = w.Write([]byte(`{"tx_response":{"txhash":"C0FFEE","code":0}}`))
		}
	}))
	defer srv.Close()
	txPath := writeTxFile(t, signer)

	out, err := runApp(t, mnemonicArgs("--rest-endpoint", srv.URL, "simulate", "--tx", txPath, "--gas-adjustment", "1.5")...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"gas_used":100000,"gas_limit":150000}`, out)

	out, err = runApp(t, mnemonicArgs("--rest-endpoint", srv.URL, "broadcast", "--tx", txPath)...)
	require.NoError(t, err)
	assert.Contains(t, out, "C0FFEE")
}

func Test_DisconnectWithBadger(t *testing.T) {
	dataPath := t.TempDir()
	args := mnemonicArgs("--persistence", "badger", "--data-path", dataPath)

	_, err := runApp(t, append(args, "accounts")...)
	require.NoError(t, err)
	_, err = runApp(t, append(args, "disconnect")...)
	require.NoError(t, err)
}
