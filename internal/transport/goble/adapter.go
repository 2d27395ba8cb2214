package goble

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cornelk/hashmap"
	ble "github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/chemion/internal/transport"
)

// Adapter remembers every peripheral seen across scans, keyed by lower-cased address.
type Adapter struct {
	id     string
	dev    ble.Device
	logger *logrus.Logger

	peripherals *hashmap.Map[string, *Peripheral]

	mu    sync.Mutex
	order []string
}

var _ transport.Adapter = (*Adapter)(nil)

func newAdapter(id string, dev ble.Device, logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{
		id:          id,
		dev:         dev,
		logger:      logger,
		peripherals: hashmap.New[string, *Peripheral](),
	}
}

func (a *Adapter) ID() string { return a.id }

func (a *Adapter) Scan(ctx context.Context) error {
	a.logger.WithField("adapter", a.id).Info("Starting BLE scan...")

	err := a.dev.Scan(ctx, false, a.handleAdvertisement)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		a.logger.WithField("error", err).Error("BLE scan failed")
		return transport.NormalizeError(err)
	}

	a.logger.WithField("device_count", a.peripherals.Len()).Info("BLE scan completed")
	return nil
}

// handleAdvertisement updates an existing peripheral or adds a new one
func (a *Adapter) handleAdvertisement(adv ble.Advertisement) {
	address := adv.Addr().String()
	key := addressKey(address)

	p, existing := a.peripherals.Get(key)
	if !existing {
		p, existing = a.peripherals.GetOrInsert(key, newPeripheral(address, a.dev, a.logger))
		if !existing {
			a.mu.Lock()
			a.order = append(a.order, key)
			a.mu.Unlock()
		}
	}
	p.update(adv)

	if !existing {
		a.logger.WithFields(logrus.Fields{
			"device":  p.LocalName(),
			"address": address,
			"rssi":    adv.RSSI(),
		}).Debug("Discovered new device")
	}
}

func (a *Adapter) Peripherals() []transport.Peripheral {
	a.mu.Lock()
	keys := append([]string(nil), a.order...)
	a.mu.Unlock()

	out := make([]transport.Peripheral, 0, len(keys))
	for _, key := range keys {
		if p, ok := a.peripherals.Get(key); ok {
			out = append(out, p)
		}
	}
	return out
}

func (a *Adapter) Peripheral(address string) (transport.Peripheral, bool) {
	p, ok := a.peripherals.Get(addressKey(address))
	if !ok {
		return nil, false
	}
	return p, true
}

func addressKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
