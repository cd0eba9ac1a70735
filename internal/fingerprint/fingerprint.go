// Package fingerprint derives stable content hashes for run records. The
// same corpus and configuration always hash to the same values, so two
// runs can be compared without re-reading the tree.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/bkyoung/doc-reviewer/internal/markdown"
)

// Corpus hashes every document's path and content, in path order. Adding,
// removing, renaming, or editing any document changes the hash.
func Corpus(c *markdown.Corpus) string {
	h := sha256.New()
	for _, d := range c.Documents {
		h.Write([]byte(d.Path))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(d.Lines, "\n")))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Config hashes any JSON-serializable configuration value. Struct fields
// marshal in declaration order, so the hash is stable for equal values.
func Config(cfg interface{}) (string, error) {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}
