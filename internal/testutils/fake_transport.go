package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/srg/chemion/internal/protocol"
	"github.com/srg/chemion/internal/transport"
)

// FakeManager is an in-memory transport.Manager.
type FakeManager struct {
	mu       sync.Mutex
	adapters []*FakeAdapter
	err      error
	calls    int
}

var _ transport.Manager = (*FakeManager)(nil)

func (m *FakeManager) Adapters(_ context.Context) ([]transport.Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]transport.Adapter, len(m.adapters))
	for i, a := range m.adapters {
		out[i] = a
	}
	return out, nil
}

// Adapter returns the i-th fake adapter.
func (m *FakeManager) Adapter(i int) *FakeAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adapters[i]
}

// AdapterCalls reports how many times Adapters was called.
func (m *FakeManager) AdapterCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FakeAdapter only reports peripherals after a Scan has seen them.
type FakeAdapter struct {
	id string

	mu          sync.Mutex
	advertising []*FakePeripheral
	seen        []*FakePeripheral
	scanErr     error
	scans       int
	holdScans   bool
}

var _ transport.Adapter = (*FakeAdapter)(nil)

func (a *FakeAdapter) ID() string { return a.id }

// Scan records every advertising peripheral. With HoldScans it then blocks
// until ctx ends, like a radio scanning for its whole window.
func (a *FakeAdapter) Scan(ctx context.Context) error {
	a.mu.Lock()
	a.scans++
	if a.scanErr != nil {
		err := a.scanErr
		a.mu.Unlock()
		return err
	}
	for _, p := range a.advertising {
		if !containsPeripheral(a.seen, p.address) {
			a.seen = append(a.seen, p)
		}
	}
	hold := a.holdScans
	a.mu.Unlock()

	if hold {
		<-ctx.Done()
	}
	return nil
}

// HoldScans makes every following Scan block until its context ends.
func (a *FakeAdapter) HoldScans() *FakeAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.holdScans = true
	return a
}

func (a *FakeAdapter) Peripherals() []transport.Peripheral {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]transport.Peripheral, len(a.seen))
	for i, p := range a.seen {
		out[i] = p
	}
	return out
}

func (a *FakeAdapter) Peripheral(address string) (transport.Peripheral, bool) {
	if p := a.Fake(address); p != nil && a.hasSeen(address) {
		return p, true
	}
	return nil, false
}

// Fake returns the fake peripheral for address whether or not it was scanned.
func (a *FakeAdapter) Fake(address string) *FakePeripheral {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range a.advertising {
		if transport.SameAddress(p.address, address) {
			return p
		}
	}
	return nil
}

// Forget makes the adapter lose track of a peripheral, as if it went out of range.
func (a *FakeAdapter) Forget(address string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seen = removePeripheral(a.seen, address)
	a.advertising = removePeripheral(a.advertising, address)
}

// SetScanError makes every following Scan fail with err.
func (a *FakeAdapter) SetScanError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanErr = err
}

// Scans reports how many scans ran.
func (a *FakeAdapter) Scans() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scans
}

func (a *FakeAdapter) hasSeen(address string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return containsPeripheral(a.seen, address)
}

func containsPeripheral(list []*FakePeripheral, address string) bool {
	for _, p := range list {
		if transport.SameAddress(p.address, address) {
			return true
		}
	}
	return false
}

func removePeripheral(list []*FakePeripheral, address string) []*FakePeripheral {
	out := list[:0]
	for _, p := range list {
		if !transport.SameAddress(p.address, address) {
			out = append(out, p)
		}
	}
	return out
}

// FakePeripheral exposes its characteristics only after a successful discovery.
type FakePeripheral struct {
	address string
	name    string
	chars   []*FakeCharacteristic

	mu             sync.Mutex
	connected      bool
	discovered     bool
	connectErr     error
	discoverErr    error
	disconnectErr  error
	connectCalls   int
	disconnectCall int
}

var _ transport.Peripheral = (*FakePeripheral)(nil)

func (p *FakePeripheral) Address() string   { return p.address }
func (p *FakePeripheral) LocalName() string { return p.name }

// Connect reuses a live link and dials otherwise.
func (p *FakePeripheral) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.connectCalls++
	if p.connectErr != nil {
		return p.connectErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.connected = true
	return nil
}

func (p *FakePeripheral) DiscoverCharacteristics(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return transport.ErrNotConnected
	}
	if p.discoverErr != nil {
		return p.discoverErr
	}
	p.discovered = true
	return nil
}

func (p *FakePeripheral) Characteristics() []transport.Characteristic {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.discovered {
		return nil
	}
	out := make([]transport.Characteristic, len(p.chars))
	for i, c := range p.chars {
		out[i] = c
	}
	return out
}

func (p *FakePeripheral) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.disconnectCall++
	if p.disconnectErr != nil {
		return p.disconnectErr
	}
	p.connected = false
	p.discovered = false
	return nil
}

// DropLink simulates the radio losing the link: the peripheral forgets its
// connection and characteristics without Disconnect being called.
func (p *FakePeripheral) DropLink() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	p.discovered = false
}

// FailConnect makes Connect return err.
func (p *FakePeripheral) FailConnect(err error) *FakePeripheral {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectErr = err
	return p
}

// FailDiscover makes DiscoverCharacteristics return err.
func (p *FakePeripheral) FailDiscover(err error) *FakePeripheral {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discoverErr = err
	return p
}

// FailDisconnect makes Disconnect return err.
func (p *FakePeripheral) FailDisconnect(err error) *FakePeripheral {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnectErr = err
	return p
}

func (p *FakePeripheral) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *FakePeripheral) ConnectCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectCalls
}

func (p *FakePeripheral) DisconnectCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnectCall
}

// Characteristic returns the fake characteristic with uuid, discovered or not.
func (p *FakePeripheral) Characteristic(uuid string) *FakeCharacteristic {
	want := transport.NormalizeUUID(uuid)
	for _, c := range p.chars {
		if transport.NormalizeUUID(c.uuid) == want {
			return c
		}
	}
	return nil
}

// FakeCharacteristic records every accepted write.
type FakeCharacteristic struct {
	uuid string

	mu       sync.Mutex
	writes   [][]byte
	attempts int
	failAt   int
	failErr  error
}

var _ transport.Characteristic = (*FakeCharacteristic)(nil)

func (c *FakeCharacteristic) UUID() string { return c.uuid }

func (c *FakeCharacteristic) WriteWithoutResponse(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.attempts
	c.attempts++
	if c.failErr != nil && idx == c.failAt {
		return c.failErr
	}
	c.writes = append(c.writes, append([]byte(nil), data...))
	return nil
}

// FailWriteAt makes the write attempt with the given zero-based index fail.
func (c *FakeCharacteristic) FailWriteAt(index int, err error) *FakeCharacteristic {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAt = index
	c.failErr = err
	return c
}

// Writes returns copies of the payloads accepted so far.
func (c *FakeCharacteristic) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]byte, len(c.writes))
	for i, w := range c.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Attempts counts writes including failed ones.
func (c *FakeCharacteristic) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// PeripheralConfig describes one fake peripheral for FromJSON.
type PeripheralConfig struct {
	Address         string   `json:"address"`
	Name            string   `json:"name"`
	Characteristics []string `json:"characteristics"`
}

// TransportConfig describes a fake transport for FromJSON.
type TransportConfig struct {
	Adapters []struct {
		ID          string             `json:"id"`
		Peripherals []PeripheralConfig `json:"peripherals"`
	} `json:"adapters"`
}

// FakeTransportBuilder assembles a FakeManager with a fluent API.
// Peripheral methods apply to the most recently added adapter; one adapter
// named "hci0" is created on demand.
type FakeTransportBuilder struct {
	adapters   []*FakeAdapter
	managerErr error
	noAdapters bool
}

func NewFakeTransportBuilder() *FakeTransportBuilder {
	return &FakeTransportBuilder{}
}

// WithAdapter appends an adapter; later peripherals are attached to it.
func (b *FakeTransportBuilder) WithAdapter(id string) *FakeTransportBuilder {
	b.adapters = append(b.adapters, &FakeAdapter{id: id})
	return b
}

// WithoutAdapters makes the manager report an empty adapter list.
func (b *FakeTransportBuilder) WithoutAdapters() *FakeTransportBuilder {
	b.noAdapters = true
	return b
}

// WithManagerError makes Adapters fail with err.
func (b *FakeTransportBuilder) WithManagerError(err error) *FakeTransportBuilder {
	b.managerErr = err
	return b
}

// WithPeripheral adds an advertising peripheral exposing the given characteristic UUIDs.
func (b *FakeTransportBuilder) WithPeripheral(address, name string, characteristics ...string) *FakeTransportBuilder {
	p := &FakePeripheral{address: address, name: name}
	for _, uuid := range characteristics {
		p.chars = append(p.chars, &FakeCharacteristic{uuid: uuid, failAt: -1})
	}
	a := b.current()
	a.advertising = append(a.advertising, p)
	return b
}

// WithGlasses adds a peripheral exposing the display write characteristic.
func (b *FakeTransportBuilder) WithGlasses(address, name string) *FakeTransportBuilder {
	return b.WithPeripheral(address, name, protocol.WriteCharacteristicUUID)
}

// FromJSON adds adapters and peripherals described by a TransportConfig document.
func (b *FakeTransportBuilder) FromJSON(jsonStrFmt string, args ...interface{}) *FakeTransportBuilder {
	var cfg TransportConfig
	if err := json.Unmarshal([]byte(fmt.Sprintf(jsonStrFmt, args...)), &cfg); err != nil {
		panic(fmt.Sprintf("invalid fake transport JSON: %v", err))
	}
	for _, a := range cfg.Adapters {
		b.WithAdapter(a.ID)
		for _, p := range a.Peripherals {
			b.WithPeripheral(p.Address, p.Name, p.Characteristics...)
		}
	}
	return b
}

func (b *FakeTransportBuilder) current() *FakeAdapter {
	if len(b.adapters) == 0 {
		b.WithAdapter("hci0")
	}
	return b.adapters[len(b.adapters)-1]
}

func (b *FakeTransportBuilder) Build() *FakeManager {
	m := &FakeManager{err: b.managerErr}
	if !b.noAdapters {
		b.current()
		m.adapters = b.adapters
	}
	return m
}
