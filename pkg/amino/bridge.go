package amino

import (
	"encoding/json"
	"fmt"
	"sync"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/Layr-Labs/uniclient-go/pkg/txcodec"
)

// Converter maps one message type between its canonical Any and its amino shape.
type Converter interface {
	AminoType() string
	ToAmino(msg *codectypes.Any) (json.RawMessage, error)
	FromAmino(value json.RawMessage) (*codectypes.Any, error)
}

// Bridge converts messages using registered converters, falling back to the
// registry's legacy amino codec for everything else.
type Bridge struct {
	registry *txcodec.Registry

	mu          sync.RWMutex
	byTypeURL   map[string]Converter
	byAminoType map[string]string
}

func NewBridge(registry *txcodec.Registry) *Bridge {
	return &Bridge{
		registry:    registry,
		byTypeURL:   make(map[string]Converter),
		byAminoType: make(map[string]string),
	}
}

// Register installs a converter for typeURL, replacing any codec-derived conversion.
func (b *Bridge) Register(typeURL string, c Converter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byTypeURL[typeURL] = c
	b.byAminoType[c.AminoType()] = typeURL
}

func (b *Bridge) converterFor(typeURL string) (Converter, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.byTypeURL[typeURL]
	return c, ok
}

func (b *Bridge) converterForAmino(aminoType string) (Converter, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	typeURL, ok := b.byAminoType[aminoType]
	if !ok {
		return nil, false
	}
	c, ok := b.byTypeURL[typeURL]
	return c, ok
}

// ToAmino converts a canonical message to its legacy shape.
func (b *Bridge) ToAmino(msg *codectypes.Any) (Msg, error) {
	if msg == nil {
		return Msg{}, fmt.Errorf("message cannot be nil")
	}
	if c, ok := b.converterFor(msg.TypeUrl); ok {
		value, err := c.ToAmino(msg)
		if err != nil {
			return Msg{}, fmt.Errorf("failed to convert %s to amino: %w", msg.TypeUrl, err)
		}
		return Msg{Type: c.AminoType(), Value: value}, nil
	}

	sdkMsg, err := b.registry.UnpackMsg(msg)
	if err != nil {
		return Msg{}, err
	}
	bz, err := b.registry.Amino().MarshalJSON(sdkMsg)
	if err != nil {
		return Msg{}, fmt.Errorf("failed to amino encode %s: %w", msg.TypeUrl, err)
	}

	var wrapped Msg
	if err := json.Unmarshal(bz, &wrapped); err != nil {
		return Msg{}, fmt.Errorf("failed to read amino envelope for %s: %w", msg.TypeUrl, err)
	}
	if wrapped.Type == "" {
		return Msg{}, fmt.Errorf("no amino name registered for %s", msg.TypeUrl)
	}
	return wrapped, nil
}

// ToAminoMsgs converts messages preserving order.
func (b *Bridge) ToAminoMsgs(msgs []*codectypes.Any) ([]Msg, error) {
	out := make([]Msg, 0, len(msgs))
	for _, m := range msgs {
		converted, err := b.ToAmino(m)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

// FromAmino converts a legacy message back to its canonical Any.
func (b *Bridge) FromAmino(msg Msg) (*codectypes.Any, error) {
	if c, ok := b.converterForAmino(msg.Type); ok {
		anyMsg, err := c.FromAmino(msg.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s from amino: %w", msg.Type, err)
		}
		return anyMsg, nil
	}

	bz, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal amino message: %w", err)
	}
	var sdkMsg sdk.Msg
	if err := b.registry.Amino().UnmarshalJSON(bz, &sdkMsg); err != nil {
		return nil, fmt.Errorf("failed to amino decode %s: %w", msg.Type, err)
	}
	return b.registry.PackMsg(sdkMsg)
}

// FromAminoMsgs converts legacy messages preserving order.
func (b *Bridge) FromAminoMsgs(msgs []Msg) ([]*codectypes.Any, error) {
	out := make([]*codectypes.Any, 0, len(msgs))
	for _, m := range msgs {
		converted, err := b.FromAmino(m)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}
