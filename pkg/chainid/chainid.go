package chainid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Layr-Labs/uniclient-go/pkg/types"
)

const (
	KeyType_Secp256k1          = "/cosmos.crypto.secp256k1.PubKey"
	KeyType_EthermintSecp256k1 = "/ethermint.crypto.v1.ethsecp256k1.PubKey"
	KeyType_InjectiveSecp256k1 = "/injective.crypto.v1beta1.ethsecp256k1.PubKey"
	KeyType_Ed25519            = "/cosmos.crypto.ed25519.PubKey"
)

const (
	Titan_Mainnet = "titan_18888-1"
	Titan_Testnet = "titan_18889-1"
)

var ethermintPattern = regexp.MustCompile(`\w+_\d+-\d+`)

// prefixKeyTypes maps EVM-compatible chain name prefixes to their pubkey type.
var prefixKeyTypes = []struct {
	prefix  string
	keyType string
}{
	{prefix: "injective", keyType: KeyType_InjectiveSecp256k1},
}

// IsEthermint reports whether chainID has the <name>_<evm id>-<revision> shape.
func IsEthermint(chainID string) bool {
	return ethermintPattern.MatchString(chainID)
}

// KeyType selects the public key type URL a chain expects for secp256k1 signers.
func KeyType(chainID string) string {
	if IsEthermint(chainID) {
		return KeyType_EthermintSecp256k1
	}
	for _, p := range prefixKeyTypes {
		if strings.HasPrefix(chainID, p.prefix) {
			return p.keyType
		}
	}
	return KeyType_Secp256k1
}

// ExtractEVMChainID returns the numeric id between the first '_' and the first '-'.
// Malformed input yields 0.
func ExtractEVMChainID(chainID string) uint64 {
	id, err := ParseEVMChainID(chainID)
	if err != nil {
		return 0
	}
	return id
}

// ParseEVMChainID is the strict form of ExtractEVMChainID. An empty digit run
// (as in "x_-5") parses to 0 without error.
func ParseEVMChainID(chainID string) (uint64, error) {
	start := strings.Index(chainID, "_")
	end := strings.Index(chainID, "-")
	if !(end > start && start > 0) {
		return 0, fmt.Errorf("%w: %q", types.ErrMalformedChainID, chainID)
	}

	digits := chainID[start+1 : end]
	if digits == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", types.ErrMalformedChainID, chainID, err)
	}
	return id, nil
}
