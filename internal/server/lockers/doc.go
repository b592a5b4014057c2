// Package lockers implements the in-memory locker table owned by a visitor
// session.
//
// A Table has a fixed number of rows created by NewTable. Rows are never
// added or removed; Register and Release only set or clear the occupant of
// an existing row. Queries return copies, so callers may keep the result
// after the session lock is released.
//
// A Table is not safe for concurrent use. The sessions package serializes
// access per session.
package lockers
