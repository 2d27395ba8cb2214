package session

import "errors"

var (
	ErrNoAdapter                 = errors.New("no bluetooth adapter available")
	ErrScanFailed                = errors.New("bluetooth scan failed")
	ErrPeripheralNotFound        = errors.New("peripheral not found")
	ErrConnectFailed             = errors.New("failed to connect to peripheral")
	ErrCapabilityDiscoveryFailed = errors.New("failed to discover peripheral characteristics")
	ErrNotConnected              = errors.New("not connected to any peripheral")
	ErrAlreadyConnected          = errors.New("already connected, disconnect first")
	ErrPeripheralUnavailable     = errors.New("bound peripheral is no longer available")
	ErrDisconnectFailed          = errors.New("failed to disconnect from peripheral")
)
