package lint

import (
	"context"
	"log"
)

// Logger provides structured logging for the lint use case.
// This interface allows the orchestrator to log diagnostics with structured
// fields without depending on a concrete logging library.
type Logger interface {
	// LogDebug logs low-level detail such as per-document suppression counts.
	LogDebug(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})

	// LogWarning logs a warning message with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogError logs a non-fatal failure, such as a panicking rule.
	LogError(ctx context.Context, message string, fields map[string]interface{})
}

// The helpers below keep call sites short. Warnings and errors fall back to
// the standard logger when no Logger is wired so failures stay visible;
// debug and info entries are simply dropped.

func (o *Orchestrator) logDebug(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogDebug(ctx, message, fields)
	}
}

func (o *Orchestrator) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (o *Orchestrator) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, message, fields)
		return
	}
	log.Printf("warning: %s: %v\n", message, fields)
}

func (o *Orchestrator) logError(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogError(ctx, message, fields)
		return
	}
	log.Printf("error: %s: %v\n", message, fields)
}
