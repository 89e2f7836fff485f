package wallet

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/uniclient-go/pkg/address"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

// WatchOnlyWallet lists a single configured address and cannot sign.
type WatchOnlyWallet struct {
	name    types.WalletName
	account types.Account
	// label is the resolved name for name-service identities.
	label string
}

func newWatchOnlyWallet(name types.WalletName, arg types.WalletArgument) (*WatchOnlyWallet, error) {
	if arg.Address == "" {
		if name == types.WalletName_NameService {
			return nil, fmt.Errorf("name service wallet %q requires a resolved address", arg.Name)
		}
		return nil, fmt.Errorf("address wallet requires an address")
	}
	if _, _, err := address.Decode(arg.Address); err != nil {
		return nil, fmt.Errorf("invalid watch-only address: %w", err)
	}
	return &WatchOnlyWallet{
		name:    name,
		account: types.Account{Address: arg.Address},
		label:   arg.Name,
	}, nil
}

func (w *WatchOnlyWallet) Name() types.WalletName {
	return w.name
}

// Label is the name-service name, empty for plain address wallets.
func (w *WatchOnlyWallet) Label() string {
	return w.label
}

func (w *WatchOnlyWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	return []types.Account{w.account}, nil
}

func (w *WatchOnlyWallet) SupportCoinType(coinType string) bool {
	return false
}

func (w *WatchOnlyWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedEnvelope, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction cannot be nil")
	}
	if !address.SameAccount(w.account.Address, tx.SignerAddress) {
		return nil, accountNotFound(tx.SignerAddress)
	}
	return nil, fmt.Errorf("%w: %s", types.ErrWatchOnlyWallet, w.name)
}
