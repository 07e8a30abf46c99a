// Package storage provides audit storage backends.
//
// Two implementations are available:
//
//   - MemoryStorage: an in-memory map, intended for tests.
//   - SQLiteStorage: a SQLite database with WAL mode, intended for real
//     deployments where run history must survive restarts.
package storage
