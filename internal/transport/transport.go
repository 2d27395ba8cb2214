package transport

import (
	"context"
)

// Manager enumerates the local BLE adapters.
type Manager interface {
	Adapters(ctx context.Context) ([]Adapter, error)
}

// Adapter is a local radio able to scan for and reach peripherals.
type Adapter interface {
	ID() string

	// Scan records advertising peripherals until ctx is done. Reaching the
	// deadline is the normal end of a scan and is not an error.
	Scan(ctx context.Context) error

	// Peripherals returns everything seen by previous scans, in first-seen order.
	Peripherals() []Peripheral

	// Peripheral resolves a previously seen peripheral by address.
	Peripheral(address string) (Peripheral, bool)
}

// Peripheral is a remote BLE device.
type Peripheral interface {
	Address() string
	LocalName() string

	Connect(ctx context.Context) error
	DiscoverCharacteristics(ctx context.Context) error
	Characteristics() []Characteristic
	Disconnect() error
}

// Characteristic is a writable GATT characteristic.
type Characteristic interface {
	UUID() string
	WriteWithoutResponse(data []byte) error
}
