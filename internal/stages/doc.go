// Package stages implements the workflow stage handlers: silence detection,
// AI analysis, and timeline export. Each handler consumes a queue item,
// advances the project file it references, and records progress for the CLI.
package stages
