package persistence

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const (
	keyPrefixIdentity = "identity:"

	// KeyEVMAccounts is the cache key of the Ethereum-bridge wallet's
	// discovered accounts.
	KeyEVMAccounts = "metamask-connected"
)

// IdentityStore reads and writes the two persisted singletons: the connected
// identity record (one per derivation path) and a wallet's account cache.
type IdentityStore struct {
	store IKeyValueStore
}

func NewIdentityStore(store IKeyValueStore) *IdentityStore {
	return &IdentityStore{store: store}
}

func identityKey(hdPath string) string {
	return keyPrefixIdentity + hdPath
}

// ReadConnectedIdentity returns nil, nil when no identity is stored for hdPath.
func (s *IdentityStore) ReadConnectedIdentity(ctx context.Context, hdPath string) (*types.ConnectedIdentity, error) {
	data, err := s.store.Get(ctx, identityKey(hdPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read connected identity: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return UnmarshalConnectedIdentity(data)
}

func (s *IdentityStore) WriteConnectedIdentity(ctx context.Context, identity *types.ConnectedIdentity) error {
	data, err := MarshalConnectedIdentity(identity)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, identityKey(identity.HDPath), data); err != nil {
		return fmt.Errorf("failed to write connected identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) RemoveConnectedIdentity(ctx context.Context, hdPath string) error {
	if err := s.store.Remove(ctx, identityKey(hdPath)); err != nil {
		return fmt.Errorf("failed to remove connected identity: %w", err)
	}
	return nil
}

// ReadAccounts returns nil, nil when nothing is cached under key.
func (s *IdentityStore) ReadAccounts(ctx context.Context, key string) ([]types.Account, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached accounts: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return UnmarshalAccounts(data)
}

func (s *IdentityStore) WriteAccounts(ctx context.Context, key string, accounts []types.Account) error {
	data, err := MarshalAccounts(accounts)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write cached accounts: %w", err)
	}
	return nil
}

func (s *IdentityStore) RemoveAccounts(ctx context.Context, key string) error {
	if err := s.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to remove cached accounts: %w", err)
	}
	return nil
}
