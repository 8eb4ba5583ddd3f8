package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// PayloadHash computes a deterministic sha256 over the canonicalized payload.
// The payload is decoded and re-encoded so object keys are sorted; two
// payloads that differ only in key order or whitespace hash identically,
// which is what makes repeated ingestion of the same source data idempotent.
func PayloadHash(payload []byte) (string, error) {
	if len(payload) == 0 {
		return hashBytes(nil), nil
	}

	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return "", eris.Wrap(err, "normalize: decode payload for hashing")
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "normalize: canonicalize payload")
	}
	return hashBytes(canonical), nil
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
