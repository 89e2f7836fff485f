package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

// MarshalConnectedIdentity serializes a ConnectedIdentity to JSON bytes.
func MarshalConnectedIdentity(identity *types.ConnectedIdentity) ([]byte, error) {
	if identity == nil {
		return nil, fmt.Errorf("cannot marshal nil ConnectedIdentity")
	}
	return json.Marshal(identity)
}

// UnmarshalConnectedIdentity deserializes a ConnectedIdentity from JSON bytes.
func UnmarshalConnectedIdentity(data []byte) (*types.ConnectedIdentity, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var identity types.ConnectedIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to ConnectedIdentity: %w", err)
	}
	return &identity, nil
}

// MarshalAccounts serializes an account list to JSON bytes. A nil list is
// written as an empty array.
func MarshalAccounts(accounts []types.Account) ([]byte, error) {
	if accounts == nil {
		accounts = []types.Account{}
	}
	return json.Marshal(accounts)
}

// UnmarshalAccounts deserializes an account list from JSON bytes.
func UnmarshalAccounts(data []byte) ([]types.Account, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var accounts []types.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to accounts: %w", err)
	}
	return accounts, nil
}
