package domain

import "time"

// ToolInfo identifies the tool that produced a report.
type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Report aggregates one lint run for the output writers.
type Report struct {
	RunID           string    `json:"runId"`
	GeneratedAt     time.Time `json:"generatedAt"`
	Tool            ToolInfo  `json:"tool"`
	CorpusDir       string    `json:"corpusDir"`
	GitBranch       string    `json:"gitBranch,omitempty"`
	GitCommit       string    `json:"gitCommit,omitempty"`
	DocumentCount   int       `json:"documentCount"`
	Findings        []Finding `json:"findings"`
	SuppressedCount int       `json:"suppressedCount"`
	FailOn          Severity  `json:"failOn"`
	Failed          bool      `json:"failed"`
}

// ReportArtifact encapsulates the report generation inputs.
type ReportArtifact struct {
	OutputDir string
	Report    Report
}
