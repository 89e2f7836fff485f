package badger

import (
	"context"
	"testing"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Layr-Labs/uniclient-go/pkg/persistence"
	"github.com/Layr-Labs/uniclient-go/pkg/persistence/persistencetest"
	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

func TestBadgerPersistence(t *testing.T) {
	persistencetest.RunKeyValueStoreTests(t, func(t *testing.T) persistence.IKeyValueStore {
		bp, err := NewBadgerPersistence(t.TempDir(), zaptest.NewLogger(t))
		require.NoError(t, err)
		return bp
	})
}

func TestBadgerPersistence_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	bp, err := NewBadgerPersistence(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	ids := persistence.NewIdentityStore(bp)
	require.NoError(t, ids.WriteConnectedIdentity(ctx, &types.ConnectedIdentity{
		Agent:   types.WalletName_Keplr,
		Address: "cosmos1persisted",
		HDPath:  types.DefaultHDPath,
	}))
	require.NoError(t, bp.Close())

	reopened, err := NewBadgerPersistence(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	identity, err := persistence.NewIdentityStore(reopened).ReadConnectedIdentity(ctx, types.DefaultHDPath)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "cosmos1persisted", identity.Address)
}

func TestBadgerPersistence_RejectsUnknownSchema(t *testing.T) {
	dir := t.TempDir()

	db, err := badgerdb.Open(badgerdb.DefaultOptions(dir).WithLogger(nil))
	require.NoError(t, err)
	require.NoError(t, db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keySchemaVersion), []byte("v0"))
	}))
	require.NoError(t, db.Close())

	_, err = NewBadgerPersistence(dir, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema version")
}

func TestBadgerPersistence_RequiresLogger(t *testing.T) {
	_, err := NewBadgerPersistence(t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger is required")
}
