package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateRunID creates a unique, time-ordered run ID.
// Format: run-<unix timestamp>-<hash>
// Example: run-1761057052-a3f9c2
func GenerateRunID(timestamp time.Time, corpusDir string) string {
	// Create short hash from the corpus dir and nanoseconds for uniqueness
	input := fmt.Sprintf("%s|%d", corpusDir, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	shortHash := hex.EncodeToString(hash[:3]) // 6 character hash

	return fmt.Sprintf("run-%d-%s", timestamp.Unix(), shortHash)
}
