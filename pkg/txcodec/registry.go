package txcodec

import (
	"fmt"

	"cosmossdk.io/x/feegrant"
	"cosmossdk.io/x/tx/signing"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authcodec "github.com/cosmos/cosmos-sdk/x/auth/codec"
	"github.com/cosmos/cosmos-sdk/x/authz"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	distrtypes "github.com/cosmos/cosmos-sdk/x/distribution/types"
	govv1 "github.com/cosmos/cosmos-sdk/x/gov/types/v1"
	govv1beta1 "github.com/cosmos/cosmos-sdk/x/gov/types/v1beta1"
	slashingtypes "github.com/cosmos/cosmos-sdk/x/slashing/types"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
	"github.com/cosmos/gogoproto/proto"
	ibctransfertypes "github.com/cosmos/ibc-go/v10/modules/apps/transfer/types"
)

// Module registers a message family with the registry. Either hook may be nil.
type Module struct {
	Name                     string
	RegisterInterfaces       func(codectypes.InterfaceRegistry)
	RegisterLegacyAminoCodec func(*codec.LegacyAmino)
}

// DefaultModules is the standard message set: the SDK modules, IBC transfer and CosmWasm.
func DefaultModules() []Module {
	return []Module{
		{Name: "bank", RegisterInterfaces: banktypes.RegisterInterfaces, RegisterLegacyAminoCodec: banktypes.RegisterLegacyAminoCodec},
		{Name: "staking", RegisterInterfaces: stakingtypes.RegisterInterfaces, RegisterLegacyAminoCodec: stakingtypes.RegisterLegacyAminoCodec},
		{Name: "distribution", RegisterInterfaces: distrtypes.RegisterInterfaces, RegisterLegacyAminoCodec: distrtypes.RegisterLegacyAminoCodec},
		{Name: "gov/v1beta1", RegisterInterfaces: govv1beta1.RegisterInterfaces, RegisterLegacyAminoCodec: govv1beta1.RegisterLegacyAminoCodec},
		{Name: "gov/v1", RegisterInterfaces: govv1.RegisterInterfaces, RegisterLegacyAminoCodec: govv1.RegisterLegacyAminoCodec},
		{Name: "slashing", RegisterInterfaces: slashingtypes.RegisterInterfaces, RegisterLegacyAminoCodec: slashingtypes.RegisterLegacyAminoCodec},
		{Name: "authz", RegisterInterfaces: authz.RegisterInterfaces, RegisterLegacyAminoCodec: authz.RegisterLegacyAminoCodec},
		{Name: "feegrant", RegisterInterfaces: feegrant.RegisterInterfaces, RegisterLegacyAminoCodec: feegrant.RegisterLegacyAminoCodec},
		{Name: "ibc-transfer", RegisterInterfaces: ibctransfertypes.RegisterInterfaces, RegisterLegacyAminoCodec: ibctransfertypes.RegisterLegacyAminoCodec},
		{Name: "wasm", RegisterInterfaces: wasmtypes.RegisterInterfaces, RegisterLegacyAminoCodec: wasmtypes.RegisterLegacyAminoCodec},
	}
}

// Registry is the message codec: type URL to proto type for Any packing, plus
// the legacy amino registrations used for Amino JSON.
//
// Modules must be registered before the registry is shared between goroutines.
type Registry struct {
	interfaceRegistry codectypes.InterfaceRegistry
	cdc               *codec.ProtoCodec
	amino             *codec.LegacyAmino
}

// NewRegistry builds a registry with the std crypto/tx types plus the given modules.
func NewRegistry(modules ...Module) (*Registry, error) {
	interfaceRegistry, err := codectypes.NewInterfaceRegistryWithOptions(codectypes.InterfaceRegistryOptions{
		ProtoFiles: proto.HybridResolver,
		SigningOptions: signing.Options{
			AddressCodec:          authcodec.NewBech32Codec(sdk.Bech32MainPrefix),
			ValidatorAddressCodec: authcodec.NewBech32Codec(sdk.Bech32PrefixValAddr),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create interface registry: %w", err)
	}

	r := &Registry{
		interfaceRegistry: interfaceRegistry,
		cdc:               codec.NewProtoCodec(interfaceRegistry),
		amino:             codec.NewLegacyAmino(),
	}
	std.RegisterInterfaces(r.interfaceRegistry)
	std.RegisterLegacyAminoCodec(r.amino)

	for _, m := range modules {
		r.RegisterModule(m)
	}
	return r, nil
}

// DefaultRegistry builds a registry over DefaultModules.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultModules()...)
}

// RegisterModule adds an application-specific message family.
func (r *Registry) RegisterModule(m Module) {
	if m.RegisterInterfaces != nil {
		m.RegisterInterfaces(r.interfaceRegistry)
	}
	if m.RegisterLegacyAminoCodec != nil {
		m.RegisterLegacyAminoCodec(r.amino)
	}
}

func (r *Registry) InterfaceRegistry() codectypes.InterfaceRegistry {
	return r.interfaceRegistry
}

func (r *Registry) Codec() *codec.ProtoCodec {
	return r.cdc
}

func (r *Registry) Amino() *codec.LegacyAmino {
	return r.amino
}

// PackMsg wraps a message in an Any keyed by its type URL.
func (r *Registry) PackMsg(msg sdk.Msg) (*codectypes.Any, error) {
	anyMsg, err := codectypes.NewAnyWithValue(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %T: %w", msg, err)
	}
	return anyMsg, nil
}

// UnpackMsg resolves an Any to its registered message type.
func (r *Registry) UnpackMsg(anyMsg *codectypes.Any) (sdk.Msg, error) {
	if anyMsg == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}
	var msg sdk.Msg
	if err := r.interfaceRegistry.UnpackAny(anyMsg, &msg); err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", anyMsg.TypeUrl, err)
	}
	return msg, nil
}

// DecodeMsgJSON parses a proto JSON message carrying an "@type" field.
func (r *Registry) DecodeMsgJSON(bz []byte) (*codectypes.Any, error) {
	var msg sdk.Msg
	if err := r.cdc.UnmarshalInterfaceJSON(bz, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode message json: %w", err)
	}
	return r.PackMsg(msg)
}

// EncodeMsgJSON is the inverse of DecodeMsgJSON.
func (r *Registry) EncodeMsgJSON(anyMsg *codectypes.Any) ([]byte, error) {
	msg, err := r.UnpackMsg(anyMsg)
	if err != nil {
		return nil, err
	}
	return r.cdc.MarshalInterfaceJSON(msg)
}
