// Package database provides SQLite-based history for colortag runs.
//
// This package implements the ResultDB, which stores:
//   - One record per batch run with its summary counters
//   - Every classified row, so the label history of an identifier can be
//     traced across runs
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. The database is a single file under the XDG data directory
// 2. The CGO-free driver keeps cross-compilation simple
// 3. History writes are small and strictly sequential
//
// History is auxiliary. The dataset snapshot remains the authoritative
// output, so callers treat history write failures as warnings.
package database
