package chain

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var ErrNoKeypair = errors.New("chain: SOLANA_BACKEND_PRIVATE_KEY not configured")

// ParseKeypair reads a 64-byte secret key given as a JSON byte array (the
// solana-keygen file format) or as a base58 string.
func ParseKeypair(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNoKeypair
	}
	if strings.HasPrefix(raw, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(raw), &ints); err != nil {
			return nil, err
		}
		if len(ints) != 64 {
			return nil, errors.New("chain: secret key must be 64 bytes")
		}
		key := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, errors.New("chain: secret key byte out of range")
			}
			key[i] = byte(v)
		}
		return solana.PrivateKey(key), nil
	}
	return solana.PrivateKeyFromBase58(raw)
}
