package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NormalizedKeys carries every canonical identifier form derivable from a
// position. Upstream sources disagree on which form they key by, so the
// resolver tries each populated form in tier order instead of guessing.
type NormalizedKeys struct {
	Slug         string
	MarketID     string
	AssetDecimal string
	AssetHex     string // lowercase 0x-prefixed, no padding
}

// Normalize derives the canonical identifier forms for a position. Pure, no
// I/O. A malformed asset id simply yields no hex form; this never fails.
func Normalize(p Position) NormalizedKeys {
	keys := NormalizedKeys{
		Slug:         strings.TrimSpace(p.MarketSlug),
		MarketID:     strings.TrimSpace(p.MarketID),
		AssetDecimal: strings.TrimSpace(p.AssetID),
	}
	keys.AssetHex = DecimalToHex(keys.AssetDecimal)
	return keys
}

// DecimalToHex converts a decimal-string token id to its 0x-prefixed
// lowercase hex form. Token ids are uint256 values, far past int64 range,
// so they go through big.Int. Returns "" for anything that does not parse
// as a non-negative base-10 integer.
func DecimalToHex(dec string) string {
	if dec == "" {
		return ""
	}
	n, ok := new(big.Int).SetString(dec, 10)
	if !ok || n.Sign() < 0 {
		return ""
	}
	return hexutil.EncodeBig(n)
}

// HexToDecimal converts a 0x-prefixed hex token id to its decimal-string
// form. Returns "" when the input is not valid hex.
func HexToDecimal(hex string) string {
	if !strings.HasPrefix(hex, "0x") && !strings.HasPrefix(hex, "0X") {
		return ""
	}
	n, err := hexutil.DecodeBig(strings.ToLower(hex))
	if err != nil {
		return ""
	}
	return n.String()
}
