// Package sqlite implements the RecordStore on an embedded SQLite
// database (modernc.org/sqlite, no cgo). The database runs in WAL
// mode; schema changes ship as embedded .up.sql migrations applied at
// open time.
//
// Every Upsert writes the record row and fully replaces its keyword
// and embedding rows inside a single transaction, so readers never see
// a record paired with a previous generation's derived indexes.
package sqlite
