// # DynCSV: Dynamic CSV Containers for Go
//
// DynCSV parses delimiter-separated text whose exact shape is not known in advance and keeps the
// result in an editable in-memory table. Delimiters, line terminators, quoting and header handling
// are all configurable, and malformed input can either fail fast or be repaired in lenient mode.
//
// # Features
//
// - Streaming `Reader` with a configurable field delimiter, arbitrary line delimiter, optional header
// or custom header, whitespace trimming, quote consumption and empty-row skipping.
// - Two table representations behind one `Table` interface: `MapTable` (column oriented, unique
// column names) and `ArrayTable` (row oriented, duplicate labels allowed).
// - Typed cells via the closed `Value` sum type and optional per-column `Qualifier` rules that are
// enforced on every write.
// - `Writer` that re-emits any `Table` as delimited text, and `arrowconv` for Arrow/Parquet export.
// - Structured errors: `*ParseError`, `*ValidationError`, `ErrOutOfRange`, `ErrShape`, `ErrDuplicateName`.
//
// # Coordinates
//
// Every cell accessor takes (row, column) in that order, both zero based. The header is not a row:
// for "a,b,c\n1,2,3\n4,5,6" read with HasHeader, Cell(1, 1) is "5" and Cell(0, 2) is "3".
//
// # Concurrency
//
// Nothing in the package locks. Guard a shared table with a single external mutex. Iterating with
// `Rows` while inserting, removing or moving rows or columns yields `ErrConcurrentModification`.
package dyncsv
