package web3signer

import (
	"context"
	"net/http"
)

// IWeb3Signer is the Web3Signer surface used by the remote signing agent.
type IWeb3Signer interface {
	// SetHttpClient replaces the HTTP client, e.g. to inject a test transport.
	SetHttpClient(client *http.Client)

	// EthAccounts calls eth_accounts.
	EthAccounts(ctx context.Context) ([]string, error)

	// EthSign calls eth_sign, which signs data with the EIP-191 personal
	// message prefix.
	EthSign(ctx context.Context, account string, data string) (string, error)

	// EthSignTypedData calls eth_signTypedData with an EIP-712 payload.
	EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error)

	// ListPublicKeys returns the secp256k1 public keys loaded in the signer.
	ListPublicKeys(ctx context.Context) ([]string, error)

	ReloadKeys(ctx context.Context) error

	ReloadKeysAndWaitForPublicKey(ctx context.Context, publicKey string) error
}

var _ IWeb3Signer = (*Client)(nil)
