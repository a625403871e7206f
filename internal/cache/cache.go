package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for the memoization layer.
// Only successful producer results are ever stored, so transient failures
// are retried on the next lookup instead of sticking for the TTL window.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "filingdash:v1:"

// SubmissionsKey builds the cache key for a company's submission record.
func SubmissionsKey(cik10 string) string {
	return hashKey("submissions", cik10)
}

// TickerMapKey builds the cache key for the ticker lookup snapshot.
func TickerMapKey() string {
	return hashKey("tickers")
}

// DocumentKey builds the cache key for a filing's extracted document text.
func DocumentKey(cik10, accession, document string) string {
	return hashKey("document", cik10, accession, document)
}

// AISummaryKey builds the cache key for an AI-generated summary.
// The model name, the credential, and the excerpt itself are all part of the
// key, so a different credential or model never serves a result computed
// under another one.
func AISummaryKey(modelName, credential, excerpt string) string {
	return hashKey("ai", modelName, credentialFingerprint(credential), hashText(excerpt))
}

// credentialFingerprint derives a stable non-reversible token from a credential.
func credentialFingerprint(credential string) string {
	if credential == "" {
		return "anonymous"
	}
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:8])
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func hashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
