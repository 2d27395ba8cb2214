// Package transport defines the narrow BLE capability surface the glasses
// session is built on: adapter enumeration, time-bounded scanning,
// peripheral lookup, connect/disconnect, characteristic discovery and
// unacknowledged characteristic writes.
//
// The go-ble backed implementation lives in the goble subpackage; tests use
// the in-memory fakes from internal/testutils.
package transport
