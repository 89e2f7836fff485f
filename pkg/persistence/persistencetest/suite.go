// Package persistencetest holds the behaviour every IKeyValueStore must share.
package persistencetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/uniclient-go/pkg/persistence"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

// RunKeyValueStoreTests exercises newStore with the common contract. Each
// subtest gets a fresh store; the suite closes it.
func RunKeyValueStoreTests(t *testing.T, newStore func(t *testing.T) persistence.IKeyValueStore) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		require.NoError(t, s.Set(ctx, "k", []byte("v1")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, s.Set(ctx, "k", []byte("v2")))
		got, err = s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("not found is not an error", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		got, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		require.NoError(t, s.Set(ctx, "gone", []byte("x")))
		require.NoError(t, s.Remove(ctx, "gone"))
		require.NoError(t, s.Remove(ctx, "gone"))

		got, err := s.Get(ctx, "gone")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		value := []byte("abc")
		require.NoError(t, s.Set(ctx, "copy", value))
		value[0] = 'z'

		got, err := s.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)
	})

	t.Run("identity store round trip", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		ids := persistence.NewIdentityStore(s)

		identity := &types.ConnectedIdentity{Agent: types.WalletName_Leap, Address: "cosmos1xyz", HDPath: types.DefaultHDPath}
		require.NoError(t, ids.WriteConnectedIdentity(ctx, identity))

		restored, err := ids.ReadConnectedIdentity(ctx, types.DefaultHDPath)
		require.NoError(t, err)
		assert.Equal(t, identity, restored)

		other, err := ids.ReadConnectedIdentity(ctx, "m/44'/60'/0'/0/0")
		require.NoError(t, err)
		assert.Nil(t, other)

		accounts := []types.Account{{Address: "evmos1a", Algo: "ethsecp256k1", PubKey: []byte{2, 1}, EthAddress: "0xabc"}}
		require.NoError(t, ids.WriteAccounts(ctx, persistence.KeyEVMAccounts, accounts))
		cached, err := ids.ReadAccounts(ctx, persistence.KeyEVMAccounts)
		require.NoError(t, err)
		assert.Equal(t, accounts, cached)

		require.NoError(t, ids.RemoveAccounts(ctx, persistence.KeyEVMAccounts))
		require.NoError(t, ids.RemoveConnectedIdentity(ctx, types.DefaultHDPath))

		cached, err = ids.ReadAccounts(ctx, persistence.KeyEVMAccounts)
		require.NoError(t, err)
		assert.Nil(t, cached)
		restored, err = ids.ReadConnectedIdentity(ctx, types.DefaultHDPath)
		require.NoError(t, err)
		assert.Nil(t, restored)
	})

	t.Run("concurrent access", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("concurrent-%d", i)
				assert.NoError(t, s.Set(ctx, key, []byte(key)))
				got, err := s.Get(ctx, key)
				assert.NoError(t, err)
				assert.Equal(t, []byte(key), got)
			}(i)
		}
		wg.Wait()
	})

	t.Run("operations fail after close", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.HealthCheck())
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())

		_, err := s.Get(ctx, "k")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "closed")
		assert.Error(t, s.Set(ctx, "k", nil))
		assert.Error(t, s.Remove(ctx, "k"))
		assert.Error(t, s.HealthCheck())
	})
}
