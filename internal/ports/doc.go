// Package ports defines the interfaces that connect the application layer
// to infrastructure adapters and external collaborators.
//
// The application core (internal/app) depends only on these interfaces.
// Adapters under internal/adapters implement them with concrete
// infrastructure: external commands, the file system, SQLite.
//
// # Port Interfaces
//
//   - [ProcessingStep]: the external per-batch decode/transform step
//   - [MissionPostProcessor]: recombination, geocoding, plotting, ingestion
//   - [Stager]: materializes a batch into its staging directories
//   - [ReportRepository]: persists the outcome of a run
//   - [Logger]: structured logging abstraction
package ports
