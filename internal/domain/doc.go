// Package domain contains the core entities and value objects for gliderbatch.
//
// This package is the innermost layer. It has no dependencies on
// infrastructure concerns (file system, processes, logging, databases) and
// contains only data types, invariants and the error taxonomy.
//
// # Entities
//
//   - [MissionKey]: a glider deployment identified by (glider, mission)
//   - [FileRecord] and [AlignedFileSet]: the paired gli/pld inputs of a mission
//   - [Range], [Batch] and [BatchPlan]: the partition of a mission's inputs
//   - [RunReport] and [MissionResult]: the outcome of one orchestration run
//
// # Errors
//
// Every failure class has a sentinel (for errors.Is) and a typed error
// carrying context (for errors.As). See errors.go.
package domain
