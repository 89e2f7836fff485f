package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Layr-Labs/uniclient-go/internal/keyAgent"
	"github.com/Layr-Labs/uniclient-go/internal/keyGenerator/localKeyGenerator"
	"github.com/Layr-Labs/uniclient-go/pkg/address"
	"github.com/Layr-Labs/uniclient-go/pkg/agent"
	"github.com/Layr-Labs/uniclient-go/pkg/amino"
	"github.com/Layr-Labs/uniclient-go/pkg/eip712"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence/memory"
	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const (
	refreshSigners = 16
	refreshRounds  = 8
)

// rotatingCosmosAgent hands out whichever key is current when the wallet asks
// for an offline signer. Each key signs only for its own address.
type rotatingCosmosAgent struct {
	current atomic.Pointer[fakeCosmosAgent]
}

func (r *rotatingCosmosAgent) Enable(ctx context.Context, chainID string) error {
	return nil
}

func (r *rotatingCosmosAgent) GetOfflineSigner(ctx context.Context, chainID string) (agent.IOfflineSigner, error) {
	return r.current.Load(), nil
}

// closed reports whether ch has been closed, without blocking.
func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// runDuringRefresh starts refresh and every signer together and returns once
// all of them finish. refreshed is closed as soon as refresh has returned.
func runDuringRefresh(t *testing.T, refresh func() error, sign func(afterRefresh bool)) {
	t.Helper()
	var wg sync.WaitGroup
	start := make(chan struct{})
	refreshed := make(chan struct{})

	var refreshErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		refreshErr = refresh()
		close(refreshed)
	}()
	for i := 0; i < refreshSigners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for r := 0; r < refreshRounds; r++ {
				sign(closed(refreshed))
			}
		}()
	}
	close(start)
	wg.Wait()
	require.NoError(t, refreshErr)
}

func aminoSignBytes(t *testing.T, registry *txcodec.Registry, tx *types.Transaction) []byte {
	t.Helper()
	msgs, err := amino.NewBridge(registry).ToAminoMsgs(tx.Messages)
	require.NoError(t, err)
	bz, err := amino.MakeSignDoc(msgs, tx.Fee, tx.SignerData.ChainID, tx.Memo, tx.SignerData.AccountNumber, tx.SignerData.Sequence).SignBytes()
	require.NoError(t, err)
	return bz
}

func Test_NativeSignDuringRefresh(t *testing.T) {
	oldKey := newFakeCosmosAgent(t)
	newKey := newFakeCosmosAgent(t)
	provider := &rotatingCosmosAgent{}
	provider.current.Store(oldKey)
	w, registry := newNativeWalletWith(t, provider)

	_, err := w.GetAccounts(context.Background())
	require.NoError(t, err)

	oldTx := sendTx(t, registry, oldKey.address)
	newTx := sendTx(t, registry, newKey.address)
	oldBytes := aminoSignBytes(t, registry, oldTx)
	newBytes := aminoSignBytes(t, registry, newTx)

	provider.current.Store(newKey)

	var signed atomic.Int32
	runDuringRefresh(t, func() error {
		_, err := w.GetAccounts(context.Background())
		return err
	}, func(afterRefresh bool) {
		env, err := w.Sign(context.Background(), oldTx)
		if afterRefresh {
			assert.ErrorIs(t, err, types.ErrAccountNotFound)
		} else if err == nil {
			// an old account can only have been signed by the old key
			assert.True(t, oldKey.key.PubKey().VerifySignature(oldBytes, env.Signatures[0]))
			signed.Add(1)
		} else {
			assert.ErrorIs(t, err, types.ErrAccountNotFound)
		}

		env, err = w.Sign(context.Background(), newTx)
		if afterRefresh {
			if assert.NoError(t, err) {
				assert.True(t, newKey.key.PubKey().VerifySignature(newBytes, env.Signatures[0]))
				signed.Add(1)
			}
		} else if err == nil {
			assert.True(t, newKey.key.PubKey().VerifySignature(newBytes, env.Signatures[0]))
			signed.Add(1)
		} else {
			assert.ErrorIs(t, err, types.ErrAccountNotFound)
		}
	})

	_, err = w.Sign(context.Background(), oldTx)
	require.ErrorIs(t, err, types.ErrAccountNotFound)
	env, err := w.Sign(context.Background(), newTx)
	require.NoError(t, err)
	assert.True(t, newKey.key.PubKey().VerifySignature(newBytes, env.Signatures[0]))
	t.Logf("%d signatures produced while refreshing", signed.Load())
}

// rotatingEthereum serves a single current address from eth_requestAccounts
// while keeping every key available for signing.
type rotatingEthereum struct {
	inner     agent.IEthereumProvider
	addresses []string
	current   atomic.Int32
}

func (r *rotatingEthereum) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if method == agent.Method_RequestAccounts {
		return json.Marshal([]string{r.addresses[r.current.Load()]})
	}
	return r.inner.Request(ctx, method, params...)
}

func newRotatingEthereum(t *testing.T) *rotatingEthereum {
	t.Helper()
	logger := zaptest.NewLogger(t)
	generator := localKeyGenerator.NewLocalKeyGenerator(logger)
	require.NoError(t, generator.LoadMnemonic("evm0", evmMnemonic, "", "m/44'/60'/0'/0/0"))
	require.NoError(t, generator.LoadMnemonic("evm1", evmMnemonic, "", "m/44'/60'/0'/0/1"))
	a, err := keyAgent.NewKeyAgent(&keyAgent.KeyAgentConfig{
		KeyGenerator: generator,
		KeyIds:       []string{"evm0", "evm1"},
		Prefix:       "evmos",
		CoinType:     keyAgent.CoinType_Ethereum,
	}, logger)
	require.NoError(t, err)

	raw, err := a.Request(context.Background(), agent.Method_Accounts)
	require.NoError(t, err)
	var addresses []string
	require.NoError(t, json.Unmarshal(raw, &addresses))
	require.Len(t, addresses, 2)
	require.NotEqual(t, addresses[0], addresses[1])
	return &rotatingEthereum{inner: a, addresses: addresses}
}

func typedDataHash(t *testing.T, registry *txcodec.Registry, tx *types.Transaction) []byte {
	t.Helper()
	msgs, err := amino.NewBridge(registry).ToAminoMsgs(tx.Messages)
	require.NoError(t, err)
	td, err := eip712.Build(eip712.NewAdapterTable(), &eip712.Request{
		TypeURLs:      []string{tx.Messages[0].TypeUrl},
		Msgs:          msgs,
		Fee:           tx.Fee,
		FeePayer:      tx.SignerAddress,
		ChainID:       tx.SignerData.ChainID,
		EVMChainID:    9001,
		Memo:          tx.Memo,
		AccountNumber: tx.SignerData.AccountNumber,
		Sequence:      tx.SignerData.Sequence,
	})
	require.NoError(t, err)
	hash, err := eip712.Hash(td)
	require.NoError(t, err)
	return hash
}

// signedBy reports whether sig over hash recovers to ethAddress.
func signedBy(hash, sig []byte, ethAddress string) bool {
	if len(sig) != 65 {
		return false
	}
	recoverable := append([]byte(nil), sig...)
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(hash, recoverable)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub).Hex() == ethAddress
}

func Test_EVMSignDuringRefresh(t *testing.T) {
	provider := newRotatingEthereum(t)
	w, registry := newEVMWallet(t, provider, memory.NewMemoryPersistence())

	accounts, err := w.GetAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	oldAddress, err := address.FromEthAddress(provider.addresses[0], "evmos")
	require.NoError(t, err)
	newAddress, err := address.FromEthAddress(provider.addresses[1], "evmos")
	require.NoError(t, err)
	require.Equal(t, oldAddress, accounts[0].Address)

	oldTx := withdrawTx(t, registry, oldAddress)
	newTx := withdrawTx(t, registry, newAddress)
	oldHash := typedDataHash(t, registry, oldTx)
	newHash := typedDataHash(t, registry, newTx)

	provider.current.Store(1)

	runDuringRefresh(t, func() error {
		if err := w.InvalidateAccounts(context.Background()); err != nil {
			return err
		}
		_, err := w.GetAccounts(context.Background())
		return err
	}, func(afterRefresh bool) {
		env, err := w.Sign(context.Background(), oldTx)
		switch {
		case afterRefresh:
			assert.ErrorIs(t, err, types.ErrAccountNotFound)
		case err == nil:
			assert.True(t, signedBy(oldHash, env.Signatures[0], provider.addresses[0]))
		default:
			assert.True(t, errors.Is(err, types.ErrAccountNotFound), "unexpected error: %v", err)
		}

		env, err = w.Sign(context.Background(), newTx)
		switch {
		case afterRefresh:
			if assert.NoError(t, err) {
				assert.True(t, signedBy(newHash, env.Signatures[0], provider.addresses[1]))
			}
		case err == nil:
			assert.True(t, signedBy(newHash, env.Signatures[0], provider.addresses[1]))
		default:
			assert.True(t, errors.Is(err, types.ErrAccountNotFound), "unexpected error: %v", err)
		}
	})

	_, err = w.Sign(context.Background(), oldTx)
	require.ErrorIs(t, err, types.ErrAccountNotFound)
	env, err := w.Sign(context.Background(), newTx)
	require.NoError(t, err)
	assert.True(t, signedBy(newHash, env.Signatures[0], provider.addresses[1]))
}
