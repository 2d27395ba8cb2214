// Package goble implements the transport interfaces on top of github.com/go-ble/ble.
package goble

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/chemion/internal/transport"
)

// DefaultAdapterID names the single radio go-ble exposes.
const DefaultAdapterID = "default"

// DeviceFactory creates ble.Device instances (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = newDevice

// Manager lazily opens the host radio on first use and then keeps it.
type Manager struct {
	logger *logrus.Logger

	mu      sync.Mutex
	adapter *Adapter
}

var _ transport.Manager = (*Manager)(nil)

func NewManager(logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{logger: logger}
}

func (m *Manager) Adapters(_ context.Context) ([]transport.Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.adapter == nil {
		dev, err := DeviceFactory()
		if err != nil {
			m.logger.WithField("error", err).Error("Failed to create BLE device")
			return nil, fmt.Errorf("failed to create BLE device: %w", transport.NormalizeError(err))
		}
		m.adapter = newAdapter(DefaultAdapterID, dev, m.logger)
	}
	return []transport.Adapter{m.adapter}, nil
}

// Close releases the radio if it was opened.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.adapter == nil {
		return nil
	}
	err := m.adapter.dev.Stop()
	m.adapter = nil
	return err
}
