// Package core defines the shared language of sqlerm.
//
// This package contains:
//   - SQLType, the closed set of column kinds
//   - ColumnDefinition and TableDefinition, the field to column mapping
//   - Error, the structured error returned by every operation
//   - The vector, quaternion and color types stored as blobs
//
// The Golden Rule: pkg/core imports only stdlib.
// All other packages depend on core, not the reverse.
package core
