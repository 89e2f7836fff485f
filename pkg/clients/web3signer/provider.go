package web3signer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cast"

	"github.com/Layr-Labs/uniclient-go/pkg/agent"
)

// EthereumProvider exposes a Web3Signer as an Ethereum-style signing agent.
type EthereumProvider struct {
	signer IWeb3Signer
}

var _ agent.IEthereumProvider = (*EthereumProvider)(nil)

func NewEthereumProvider(signer IWeb3Signer) *EthereumProvider {
	return &EthereumProvider{signer: signer}
}

func (p *EthereumProvider) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	switch method {
	case agent.Method_RequestAccounts, agent.Method_Accounts:
		accounts, err := p.signer.EthAccounts(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(accounts)

	case agent.Method_PersonalSign:
		if len(params) < 2 {
			return nil, fmt.Errorf("%s expects [data, address]", method)
		}
		data := cast.ToString(params[0])
		if !strings.HasPrefix(data, "0x") {
			data = hexutil.Encode([]byte(data))
		}
		sig, err := p.signer.EthSign(ctx, cast.ToString(params[1]), data)
		if err != nil {
			return nil, err
		}
		return json.Marshal(sig)

	case agent.Method_SignTypedDataV4:
		if len(params) < 2 {
			return nil, fmt.Errorf("%s expects [address, typedData]", method)
		}
		var typedData interface{} = params[1]
		if s, ok := params[1].(string); ok {
			typedData = json.RawMessage(s)
		}
		sig, err := p.signer.EthSignTypedData(ctx, cast.ToString(params[0]), typedData)
		if err != nil {
			return nil, err
		}
		return json.Marshal(sig)

	default:
		return nil, fmt.Errorf("method %s is not supported", method)
	}
}
