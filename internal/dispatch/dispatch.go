// Package dispatch writes encoded frames to the glasses the session is bound to.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/chemion/internal/protocol"
	"github.com/srg/chemion/internal/session"
	"github.com/srg/chemion/internal/transport"
)

var (
	ErrNotConnected           = errors.New("not connected to any glasses")
	ErrPeripheralUnavailable  = errors.New("bound glasses are no longer available")
	ErrCharacteristicNotFound = errors.New("display characteristic not found")
	ErrTransportWriteFailed   = errors.New("packet write failed")
)

// WriteError reports the packet that failed. Packets before Index were
// already delivered and are not undone.
type WriteError struct {
	Index   int
	Written int
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s at packet %d (%d written): %v", ErrTransportWriteFailed, e.Index, e.Written, e.Err)
}

func (e *WriteError) Is(target error) bool {
	return target == ErrTransportWriteFailed
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Dispatcher sends packets as unacknowledged writes, in order, without retries.
type Dispatcher struct {
	session  *session.Session
	logger   *logrus.Logger
	interval time.Duration
}

// New creates a Dispatcher. A positive interval paces consecutive writes.
func New(s *session.Session, interval time.Duration, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{session: s, logger: logger, interval: interval}
}

// Display writes packets to the bound glasses while holding the session lock.
func (d *Dispatcher) Display(ctx context.Context, packets protocol.PacketSequence) error {
	return d.session.Exclusive(ctx, func(_ context.Context, state session.State) error {
		c, bound := state.(session.Connected)
		if !bound {
			return ErrNotConnected
		}

		p, ok := c.Adapter.Peripheral(c.Address)
		if !ok {
			return fmt.Errorf("%w: %s", ErrPeripheralUnavailable, c.Address)
		}

		char, ok := transport.FindCharacteristic(p, protocol.WriteCharacteristicUUID)
		if !ok {
			return fmt.Errorf("%w: %s on %s", ErrCharacteristicNotFound, protocol.WriteCharacteristicUUID, c.Address)
		}

		return d.write(c.Address, char, packets)
	})
}

// Show encodes frame outside the session lock, then displays it.
func (d *Dispatcher) Show(ctx context.Context, frame protocol.Frame) error {
	packets, err := protocol.Encode(frame)
	if err != nil {
		return err
	}
	return d.Display(ctx, packets)
}

func (d *Dispatcher) write(address string, char transport.Characteristic, packets protocol.PacketSequence) error {
	log := d.logger.WithFields(logrus.Fields{
		"address": address,
		"packets": len(packets),
	})
	log.Debug("Writing frame...")

	for i, packet := range packets {
		if i > 0 && d.interval > 0 {
			time.Sleep(d.interval)
		}

		if err := char.WriteWithoutResponse(packet); err != nil {
			log.WithFields(logrus.Fields{
				"index": i,
				"error": err,
			}).Error("Packet write failed")
			return &WriteError{Index: i, Written: i, Err: err}
		}
	}

	log.Debug("Frame written")
	return nil
}
