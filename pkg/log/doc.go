// Package log provides a logging abstraction for gliderbatch components.
//
// Every component receives a Logger at construction time; nothing in the
// module logs through package-level state. Default implementations are
// provided for zerolog and a no-op logger for testing.
//
// # Usage
//
// Console output only:
//
//	logger := log.NewZerologAdapter()
//
// Console plus a per-run log file (truncated on open):
//
//	logger, closeFn, err := log.NewFileLogger("/data/log/reprocess.log", "info")
//	if err != nil { ... }
//	defer closeFn()
//
// Or use the no-op logger for testing:
//
//	logger := log.NewNoopLogger()
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with existing logging
// infrastructure:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
package log
