// Package session owns the single binding between this process and a pair of glasses.
//
// Every operation holds the session lock for its whole duration, including
// the blocking scan window, so discover, connect, disconnect and display are
// strictly serialized. Once started, an operation runs to completion even if
// the caller's context is cancelled.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/chemion/internal/transport"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Session struct {
	manager transport.Manager
	opts    Options
	logger  *logrus.Logger

	mu    sync.Mutex
	state State
}

func New(manager transport.Manager, opts *Options, logger *logrus.Logger) *Session {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logrus.New()
	}

	o := *opts
	if o.ScanWindow <= 0 {
		o.ScanWindow = DefaultScanWindow
	}
	if o.RebindPolicy == "" {
		o.RebindPolicy = RebindReplace
	}

	return &Session{
		manager: manager,
		opts:    o,
		logger:  logger,
		state:   Disconnected{},
	}
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsConnected() bool {
	_, ok := s.State().(Connected)
	return ok
}

// Exclusive runs fn with the session lock held and the current state.
func (s *Session) Exclusive(ctx context.Context, fn func(ctx context.Context, state State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithoutCancel(ctx), s.state)
}

// Discover scans for the session's window and returns every named peripheral,
// deduplicated by address in first-seen order.
func (s *Session) Discover(ctx context.Context) ([]Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx = context.WithoutCancel(ctx)

	adapter, err := s.acquireAdapter(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.scan(ctx, adapter); err != nil {
		return nil, err
	}

	found := orderedmap.New[string, Descriptor]()
	for _, p := range adapter.Peripherals() {
		name := strings.TrimSpace(p.LocalName())
		if name == "" {
			continue
		}
		key := strings.ToLower(p.Address())
		if _, seen := found.Get(key); !seen {
			found.Set(key, Descriptor{Address: p.Address(), Name: name})
		}
	}

	descriptors := make([]Descriptor, 0, found.Len())
	for pair := found.Oldest(); pair != nil; pair = pair.Next() {
		descriptors = append(descriptors, pair.Value)
	}

	s.logger.WithFields(logrus.Fields{
		"adapter": adapter.ID(),
		"found":   len(descriptors),
	}).Info("Discovery completed")
	return descriptors, nil
}

// Connect scans, dials the peripheral at address and discovers its
// characteristics. The session is only rebound once every step succeeded.
func (s *Session) Connect(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx = context.WithoutCancel(ctx)

	address = strings.TrimSpace(address)
	log := s.logger.WithField("address", address)

	if prev, bound := s.state.(Connected); bound {
		if s.opts.RebindPolicy == RebindRequireDisconnect {
			return fmt.Errorf("%w: bound to %s", ErrAlreadyConnected, prev.Address)
		}
		log.WithField("previous", prev.Address).Warn("Replacing existing binding without disconnecting")
	}

	adapter, err := s.acquireAdapter(ctx)
	if err != nil {
		return err
	}
	if err := s.scan(ctx, adapter); err != nil {
		return err
	}

	p, ok := adapter.Peripheral(address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPeripheralNotFound, address)
	}

	log.Info("Connecting to peripheral...")
	if err := p.Connect(ctx); err != nil {
		log.WithField("error", err).Error("Connect failed")
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	if err := p.DiscoverCharacteristics(ctx); err != nil {
		log.WithField("error", err).Error("Characteristic discovery failed")
		if cancelErr := p.Disconnect(); cancelErr != nil {
			log.WithField("cancel_error", cancelErr).Warn("Failed to cancel half-open connection")
		}
		return fmt.Errorf("%w: %w", ErrCapabilityDiscoveryFailed, err)
	}

	s.state = Connected{Address: p.Address(), Adapter: adapter}
	log.WithField("adapter", adapter.ID()).Info("Connected")
	return nil
}

// Disconnect releases the bound peripheral. On any failure the binding is kept.
func (s *Session) Disconnect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, bound := s.state.(Connected)
	if !bound {
		return ErrNotConnected
	}
	log := s.logger.WithField("address", c.Address)

	p, ok := c.Adapter.Peripheral(c.Address)
	if !ok {
		log.Warn("Bound peripheral cannot be resolved")
		return fmt.Errorf("%w: %s", ErrPeripheralUnavailable, c.Address)
	}

	if err := p.Disconnect(); err != nil {
		log.WithField("error", err).Error("Disconnect failed")
		return fmt.Errorf("%w: %w", ErrDisconnectFailed, err)
	}

	s.state = Disconnected{}
	log.Info("Disconnected")
	return nil
}

// acquireAdapter reuses the bound adapter, otherwise takes the first one
// the manager reports. Caller holds s.mu.
func (s *Session) acquireAdapter(ctx context.Context) (transport.Adapter, error) {
	if c, bound := s.state.(Connected); bound {
		return c.Adapter, nil
	}

	adapters, err := s.manager.Adapters(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}
	return adapters[0], nil
}

// scan blocks for the fixed scan window. Caller holds s.mu and passes a
// context that cannot be cancelled, so only the window ends the scan.
func (s *Session) scan(ctx context.Context, adapter transport.Adapter) error {
	scanCtx, cancel := context.WithTimeout(ctx, s.opts.ScanWindow)
	defer cancel()

	s.logger.WithFields(logrus.Fields{
		"adapter": adapter.ID(),
		"window":  s.opts.ScanWindow,
	}).Debug("Scanning...")

	if err := adapter.Scan(scanCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrScanFailed, err)
	}
	return nil
}
