// Package common contains shared constants and sentinel errors used across
// Pinboard components.
package common

// SessionCookieName is the name of the HTTP cookie carrying the signed
// session token.
const SessionCookieName = "session_id"

// StorageKeyPrefix is the first path segment of every stored file handle.
const StorageKeyPrefix = "users"
