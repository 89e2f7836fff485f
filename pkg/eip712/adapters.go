package eip712

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

// Adapter describes the typed-data schema of one message type. Types must
// define "MsgValue" plus any nested struct types it references.
type Adapter struct {
	Types apitypes.Types
}

var typeAmount = []apitypes.Type{
	{Name: "denom", Type: "string"},
	{Name: "amount", Type: "string"},
}

// DefaultAdapters covers bank sends, staking, distribution rewards, gov votes and IBC transfers.
func DefaultAdapters() map[string]Adapter {
	return map[string]Adapter{
		"/cosmos.bank.v1beta1.MsgSend": {Types: apitypes.Types{
			"MsgValue": {
				{Name: "from_address", Type: "string"},
				{Name: "to_address", Type: "string"},
				{Name: "amount", Type: "TypeAmount[]"},
			},
			"TypeAmount": typeAmount,
		}},
		"/cosmos.staking.v1beta1.MsgDelegate": {Types: apitypes.Types{
			"MsgValue": {
				{Name: "delegator_address", Type: "string"},
				{Name: "validator_address", Type: "string"},
				{Name: "amount", Type: "TypeAmount"},
			},
			"TypeAmount": typeAmount,
		}},
		"/cosmos.staking.v1beta1.MsgUndelegate": {Types: apitypes.Types{
			"MsgValue": {
				{Name: "delegator_address", Type: "string"},
				{Name: "validator_address", Type: "string"},
				{Name: "amount", Type: "TypeAmount"},
			},
			"TypeAmount": typeAmount,
		}},
		"/cosmos.staking.v1beta1.MsgBeginRedelegate": {Types: apitypes.Types{
			"MsgValue": {
				{Name: "delegator_address", Type: "string"},
				{Name: "validator_src_address", Type: "string"},
				{Name: "validator_dst_address", Type: "string"},
				{Name: "amount", Type: "TypeAmount"},
			},
			"TypeAmount": typeAmount,
		}},
		"/cosmos.distribution.v1beta1.MsgWithdrawDelegatorReward": {Types: apitypes.Types{
			"MsgValue": {
				{Name: "delegator_address", Type: "string"},
				{Name: "validator_address", Type: "string"},
			},
		}},
		"/cosmos.gov.v1beta1.MsgVote": {Types: apitypes.Types{
			"MsgValue": {
				{Name: "proposal_id", Type: "uint64"},
				{Name: "voter", Type: "string"},
				{Name: "option", Type: "int32"},
			},
		}},
		"/ibc.applications.transfer.v1.MsgTransfer": {Types: apitypes.Types{
			"MsgValue": {
				{Name: "source_port", Type: "string"},
				{Name: "source_channel", Type: "string"},
				{Name: "token", Type: "TypeToken"},
				{Name: "sender", Type: "string"},
				{Name: "receiver", Type: "string"},
				{Name: "timeout_height", Type: "TypeTimeoutHeight"},
				{Name: "timeout_timestamp", Type: "uint64"},
				{Name: "memo", Type: "string"},
			},
			"TypeToken": typeAmount,
			"TypeTimeoutHeight": {
				{Name: "revision_number", Type: "uint64"},
				{Name: "revision_height", Type: "uint64"},
			},
		}},
	}
}

// AdapterTable is the schema-adapter lookup keyed by message type URL.
type AdapterTable struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewAdapterTable returns a table seeded with DefaultAdapters.
func NewAdapterTable() *AdapterTable {
	return &AdapterTable{adapters: DefaultAdapters()}
}

// Register adds or replaces the adapter for typeURL.
func (t *AdapterTable) Register(typeURL string, a Adapter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.adapters[typeURL] = a
}

// Lookup fails with ErrUnsupportedMessageType when typeURL has no adapter.
func (t *AdapterTable) Lookup(typeURL string) (Adapter, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.adapters[typeURL]
	if !ok {
		return Adapter{}, fmt.Errorf("%w: %s", types.ErrUnsupportedMessageType, typeURL)
	}
	return a, nil
}
