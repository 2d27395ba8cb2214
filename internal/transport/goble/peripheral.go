package goble

import (
	"context"
	"fmt"
	"sync"

	ble "github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/chemion/internal/groutine"
	"github.com/srg/chemion/internal/transport"
)

// Peripheral wraps a scanned advertiser and, once dialed, its GATT client.
type Peripheral struct {
	address string
	dev     ble.Device
	logger  *logrus.Logger

	mu          sync.Mutex
	name        string
	client      ble.Client
	chars       []transport.Characteristic
	stopMonitor context.CancelFunc
}

var _ transport.Peripheral = (*Peripheral)(nil)

func newPeripheral(address string, dev ble.Device, logger *logrus.Logger) *Peripheral {
	return &Peripheral{address: address, dev: dev, logger: logger}
}

// update keeps the last non-empty name; scan responses often omit it.
func (p *Peripheral) update(adv ble.Advertisement) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if name := adv.LocalName(); name != "" {
		p.name = name
	}
}

func (p *Peripheral) Address() string { return p.address }

func (p *Peripheral) LocalName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// Connect dials the device. A live link is reused as is.
func (p *Peripheral) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		p.logger.WithField("address", p.address).Debug("Already connected, reusing link")
		return nil
	}

	p.logger.WithField("address", p.address).Debug("Dialing BLE device...")
	client, err := p.dev.Dial(ctx, ble.NewAddr(p.address))
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"address": p.address,
			"error":   err,
		}).Error("Failed to dial BLE device")
		return fmt.Errorf("failed to connect to device with address %q: %w", p.address, transport.NormalizeError(err))
	}

	p.client = client
	p.chars = nil
	p.watchLink(client)

	p.logger.WithField("address", p.address).Info("BLE device connected")
	return nil
}

// watchLink drops the client once the stack reports the link is gone, so the
// next Connect dials again. Caller holds p.mu.
func (p *Peripheral) watchLink(client ble.Client) {
	ctx, cancel := context.WithCancel(context.Background())
	p.stopMonitor = cancel

	groutine.Go(ctx, "ble-link-monitor", func(ctx context.Context) {
		select {
		case <-client.Disconnected():
		case <-ctx.Done():
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()

		// Disconnect or a newer dial already replaced this client
		if p.client != client {
			return
		}
		p.client = nil
		p.chars = nil
		p.stopMonitor = nil
		cancel()

		p.logger.WithFields(logrus.Fields{
			"address":   p.address,
			"goroutine": groutine.GetName(ctx),
		}).Warn("BLE link lost")
	})
}

func (p *Peripheral) DiscoverCharacteristics(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return transport.ErrNotConnected
	}

	p.logger.WithField("address", p.address).Debug("Discovering services and characteristics...")
	profile, err := p.client.DiscoverProfile(true)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"address": p.address,
			"error":   err,
		}).Error("Failed to discover profile")
		return fmt.Errorf("failed to discover profile: %w", transport.NormalizeError(err))
	}

	var chars []transport.Characteristic
	for _, svc := range profile.Services {
		for _, c := range svc.Characteristics {
			chars = append(chars, &Characteristic{client: p.client, char: c})
		}
	}
	p.chars = chars

	p.logger.WithFields(logrus.Fields{
		"address":         p.address,
		"services":        len(profile.Services),
		"characteristics": len(chars),
	}).Debug("Profile discovered successfully")
	return nil
}

func (p *Peripheral) Characteristics() []transport.Characteristic {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]transport.Characteristic(nil), p.chars...)
}

// Disconnect is a no-op when there is no live client.
func (p *Peripheral) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		p.logger.WithField("address", p.address).Debug("Disconnect called but already disconnected")
		return nil
	}

	if err := p.client.CancelConnection(); err != nil {
		p.logger.WithFields(logrus.Fields{
			"address": p.address,
			"error":   err,
		}).Warn("BLE device disconnect failed")
		return transport.NormalizeError(err)
	}

	if p.stopMonitor != nil {
		p.stopMonitor()
		p.stopMonitor = nil
	}
	p.client = nil
	p.chars = nil

	p.logger.WithField("address", p.address).Info("BLE device disconnected")
	return nil
}

// Characteristic writes through the GATT client that discovered it.
type Characteristic struct {
	client ble.Client
	char   *ble.Characteristic
}

var _ transport.Characteristic = (*Characteristic)(nil)

func (c *Characteristic) UUID() string { return c.char.UUID.String() }

func (c *Characteristic) WriteWithoutResponse(data []byte) error {
	return transport.NormalizeError(c.client.WriteCharacteristic(c.char, data, true))
}
