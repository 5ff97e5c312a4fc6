// Package core defines the shared language of the songplays pipeline.
//
// This package contains:
//   - Engine contract types (Adapter, AdapterConfig, Rows, Column)
//   - Table descriptions shared by the extractors and the writer
//   - Run bookkeeping entities (Run, TableRun) and the Store interface
//
// The Golden Rule: pkg/core imports only the standard library.
// All other packages depend on core, not the reverse.
package core
