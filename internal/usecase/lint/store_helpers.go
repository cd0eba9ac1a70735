package lint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bkyoung/doc-reviewer/internal/domain"
)

// generateRunID duplicates store.GenerateRunID. The store adapter implements
// the Store port defined by this package, so importing its helpers here would
// invert the dependency direction. A pin test keeps the two in sync.
func generateRunID(timestamp time.Time, corpusDir string) string {
	input := fmt.Sprintf("%s|%d", corpusDir, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	shortHash := hex.EncodeToString(hash[:3])

	return fmt.Sprintf("run-%d-%s", timestamp.Unix(), shortHash)
}

// buildStoreRun flattens a report into the run record the store port expects.
func buildStoreRun(report domain.Report, corpusHash, configHash string, duration time.Duration) StoreRun {
	return StoreRun{
		RunID:           report.RunID,
		CreatedAt:       report.GeneratedAt,
		CorpusDir:       report.CorpusDir,
		GitBranch:       report.GitBranch,
		GitCommit:       report.GitCommit,
		ConfigHash:      configHash,
		CorpusHash:      corpusHash,
		DocumentCount:   report.DocumentCount,
		FindingCount:    len(report.Findings),
		SuppressedCount: report.SuppressedCount,
		Failed:          report.Failed,
		Duration:        duration,
	}
}

// buildStoreFindings converts findings into persistence records.
func buildStoreFindings(runID string, findings []domain.Finding) []StoreFinding {
	records := make([]StoreFinding, 0, len(findings))
	for _, f := range findings {
		records = append(records, StoreFinding{
			RunID:       runID,
			FindingID:   f.ID,
			Fingerprint: string(f.Fingerprint()),
			File:        f.File,
			LineStart:   f.LineStart,
			LineEnd:     f.LineEnd,
			Rule:        f.Rule,
			Severity:    string(f.Severity),
			Message:     f.Message,
			Suggestion:  f.Suggestion,
			Suppressed:  f.Suppressed,
		})
	}
	return records
}
