package eip712

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/Layr-Labs/uniclient-go/pkg/amino"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const (
	DomainName              = "Cosmos Web3"
	DomainVersion           = "1.0.0"
	DomainVerifyingContract = "cosmos"
	DomainSalt              = "0"
	PrimaryType             = "Tx"
)

// Request carries everything the typed-data payload binds.
type Request struct {
	// TypeURLs are the canonical type URLs of Msgs, index aligned.
	TypeURLs      []string
	Msgs          []amino.Msg
	Fee           types.Fee
	FeePayer      string
	ChainID       string
	EVMChainID    uint64
	Memo          string
	AccountNumber uint64
	Sequence      uint64
}

func baseTypes() apitypes.Types {
	return apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "string"},
			{Name: "salt", Type: "string"},
		},
		"Tx": {
			{Name: "account_number", Type: "string"},
			{Name: "chain_id", Type: "string"},
			{Name: "fee", Type: "Fee"},
			{Name: "memo", Type: "string"},
			{Name: "msgs", Type: "Msg[]"},
			{Name: "sequence", Type: "string"},
		},
		"Fee": {
			{Name: "feePayer", Type: "string"},
			{Name: "amount", Type: "Coin[]"},
			{Name: "gas", Type: "string"},
		},
		"Coin": {
			{Name: "denom", Type: "string"},
			{Name: "amount", Type: "string"},
		},
		"Msg": {
			{Name: "type", Type: "string"},
			{Name: "value", Type: "MsgValue"},
		},
	}
}

// Build assembles the typed-data payload for req. Every message needs an
// adapter and all messages must share one MsgValue schema.
func Build(table *AdapterTable, req *Request) (*apitypes.TypedData, error) {
	if len(req.Msgs) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}
	if len(req.TypeURLs) != len(req.Msgs) {
		return nil, fmt.Errorf("type urls (%d) and messages (%d) are not aligned", len(req.TypeURLs), len(req.Msgs))
	}

	var schema Adapter
	for i, typeURL := range req.TypeURLs {
		adapter, err := table.Lookup(typeURL)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			schema = adapter
			continue
		}
		if !reflect.DeepEqual(schema.Types, adapter.Types) {
			return nil, fmt.Errorf("%w: %s and %s cannot share one typed-data schema",
				types.ErrUnsupportedMessageType, req.TypeURLs[0], typeURL)
		}
	}

	allTypes := baseTypes()
	for name, fields := range schema.Types {
		allTypes[name] = fields
	}

	msgs := make([]interface{}, 0, len(req.Msgs))
	for i, m := range req.Msgs {
		var value map[string]interface{}
		if err := json.Unmarshal(m.Value, &value); err != nil {
			return nil, fmt.Errorf("message %d (%s) is not a json object: %w", i, m.Type, err)
		}
		normalized, err := normalize(allTypes, "MsgValue", value)
		if err != nil {
			return nil, fmt.Errorf("message %d (%s): %w", i, m.Type, err)
		}
		msgs = append(msgs, map[string]interface{}{
			"type":  m.Type,
			"value": normalized,
		})
	}

	amount := make([]interface{}, 0, len(req.Fee.Amount))
	for _, c := range req.Fee.Amount {
		amount = append(amount, map[string]interface{}{
			"denom":  c.Denom,
			"amount": c.Amount,
		})
	}

	return &apitypes.TypedData{
		Types:       allTypes,
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(req.EVMChainID)),
			VerifyingContract: DomainVerifyingContract,
			Salt:              DomainSalt,
		},
		Message: apitypes.TypedDataMessage{
			"account_number": strconv.FormatUint(req.AccountNumber, 10),
			"chain_id":       req.ChainID,
			"fee": map[string]interface{}{
				"amount":   amount,
				"gas":      req.Fee.Gas,
				"feePayer": req.FeePayer,
			},
			"memo":     req.Memo,
			"msgs":     msgs,
			"sequence": strconv.FormatUint(req.Sequence, 10),
		},
	}, nil
}

// Hash returns the EIP-712 digest of td.
func Hash(td *apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(*td)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return hash, nil
}

// normalize fills fields amino JSON omitted (zero values) and rejects fields
// the schema does not declare, so the payload hashes the same on both sides.
func normalize(all apitypes.Types, typeName string, value map[string]interface{}) (map[string]interface{}, error) {
	fields, ok := all[typeName]
	if !ok {
		return nil, fmt.Errorf("type %s is not defined", typeName)
	}

	declared := make(map[string]struct{}, len(fields))
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		declared[f.Name] = struct{}{}
		v, present := value[f.Name]
		if !present || v == nil {
			out[f.Name] = zeroValue(all, f.Type)
			continue
		}

		if strings.HasSuffix(f.Type, "[]") {
			elemType := strings.TrimSuffix(f.Type, "[]")
			items, ok := v.([]interface{})
			if !ok {
				return nil, fmt.Errorf("field %s: expected array", f.Name)
			}
			if _, isStruct := all[elemType]; !isStruct {
				out[f.Name] = items
				continue
			}
			normalizedItems := make([]interface{}, 0, len(items))
			for _, item := range items {
				obj, ok := item.(map[string]interface{})
				if !ok {
					return nil, fmt.Errorf("field %s: expected array of objects", f.Name)
				}
				n, err := normalize(all, elemType, obj)
				if err != nil {
					return nil, fmt.Errorf("field %s: %w", f.Name, err)
				}
				normalizedItems = append(normalizedItems, n)
			}
			out[f.Name] = normalizedItems
			continue
		}

		if _, isStruct := all[f.Type]; isStruct {
			obj, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("field %s: expected object", f.Name)
			}
			n, err := normalize(all, f.Type, obj)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			out[f.Name] = n
			continue
		}

		out[f.Name] = v
	}

	for k := range value {
		if _, ok := declared[k]; !ok {
			return nil, fmt.Errorf("field %s is not part of %s", k, typeName)
		}
	}
	return out, nil
}

func zeroValue(all apitypes.Types, typeName string) interface{} {
	switch {
	case strings.HasSuffix(typeName, "[]"):
		return []interface{}{}
	case typeName == "string":
		return ""
	case typeName == "bool":
		return false
	case strings.HasPrefix(typeName, "uint"), strings.HasPrefix(typeName, "int"):
		return "0"
	}
	if fields, ok := all[typeName]; ok {
		out := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			out[f.Name] = zeroValue(all, f.Type)
		}
		return out
	}
	return ""
}
