// Package workflow drives queue items through the editing pipeline. A
// Manager polls the queue store, claims the oldest actionable item, and runs
// the stage registered for its status: silence detection, AI analysis, then
// timeline export. Stage failures are classified so human-fixable problems
// park in review while transient ones stay retryable.
package workflow
