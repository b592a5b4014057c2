// Package common contains shared constants and sentinel errors used across
// lockerkeeper components.
package common

// DefaultLockerCount is the number of lockers a fresh session table holds.
const DefaultLockerCount = 200

// DefaultMaxSessions caps the live sessions held in memory.
const DefaultMaxSessions = 10000

// CSRFFieldName is the form field carrying the per-session CSRF token.
const CSRFFieldName = "csrf_token"
