// Package errors provides foundational, type-safe error primitives used across loaderbuild.
//
// Toolchain and process failures are not classified: they carry their own
// exit status through StatusCoder.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, validation, filesystem, ...)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit code selection and presentation for the CLI
//
// Example usage:
//
//	err := errors.FileSystemError("failed to create image directory").
//		WithCause(mkdirErr).
//		WithContext("path", dir).
//		Build()
package errors
