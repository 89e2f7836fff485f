package amino

import (
	"encoding/json"
	"fmt"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

// Msg is the legacy {type, value} message shape.
type Msg struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// StdFee is the legacy fee shape. Gas is a decimal string.
type StdFee struct {
	Amount  []types.Coin `json:"amount"`
	Gas     string       `json:"gas"`
	Granter string       `json:"granter,omitempty"`
	Payer   string       `json:"payer,omitempty"`
}

// StdSignDoc is the legacy sign document an agent displays and signs.
type StdSignDoc struct {
	AccountNumber string `json:"account_number"`
	ChainID       string `json:"chain_id"`
	Fee           StdFee `json:"fee"`
	Memo          string `json:"memo"`
	Msgs          []Msg  `json:"msgs"`
	Sequence      string `json:"sequence"`
}

// NewStdFee converts a transaction fee, keeping an empty amount list as [] rather than null.
func NewStdFee(fee types.Fee) StdFee {
	amount := make([]types.Coin, len(fee.Amount))
	copy(amount, fee.Amount)
	return StdFee{
		Amount:  amount,
		Gas:     fee.Gas,
		Granter: fee.Granter,
		Payer:   fee.Payer,
	}
}

// ToFee converts back to the transaction fee shape.
func (f StdFee) ToFee() types.Fee {
	amount := make([]types.Coin, len(f.Amount))
	copy(amount, f.Amount)
	return types.Fee{
		Amount:  amount,
		Gas:     f.Gas,
		Granter: f.Granter,
		Payer:   f.Payer,
	}
}

// MakeSignDoc assembles a StdSignDoc from converted messages.
func MakeSignDoc(msgs []Msg, fee types.Fee, chainID string, memo string, accountNumber, sequence uint64) *StdSignDoc {
	if msgs == nil {
		msgs = []Msg{}
	}
	return &StdSignDoc{
		AccountNumber: strconv.FormatUint(accountNumber, 10),
		ChainID:       chainID,
		Fee:           NewStdFee(fee),
		Memo:          memo,
		Msgs:          msgs,
		Sequence:      strconv.FormatUint(sequence, 10),
	}
}

// SequenceNumber parses the sequence string.
func (d *StdSignDoc) SequenceNumber() (uint64, error) {
	seq, err := strconv.ParseUint(d.Sequence, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sequence %q: %w", d.Sequence, err)
	}
	return seq, nil
}

// SignBytes is the canonical form that gets hashed: keys sorted, no whitespace,
// and <, >, & escaped.
func (d *StdSignDoc) SignBytes() ([]byte, error) {
	bz, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign doc: %w", err)
	}
	return sdk.SortJSON(bz)
}
