package main

import (
	"errors"

	"github.com/srg/chemion/internal/dispatch"
	"github.com/srg/chemion/internal/session"
	"github.com/srg/chemion/internal/transport"
)

// Command-level errors
var (
	// ErrNoFrame is returned when a command needs a frame and none was given.
	ErrNoFrame = errors.New("no frame given: pass a JSON file, '-' for stdin, or --clear")
)

// formatUserError turns an error chain into a single line with a hint where one helps.
func formatUserError(err error) string {
	switch {
	case errors.Is(err, transport.ErrBluetoothOff):
		return transport.ErrBluetoothOff.Msg
	case errors.Is(err, session.ErrNoAdapter):
		return err.Error() + " (is a Bluetooth adapter attached and enabled?)"
	case errors.Is(err, session.ErrPeripheralNotFound):
		return err.Error() + " (are the glasses on and in range? try 'chemion scan')"
	case errors.Is(err, dispatch.ErrTransportWriteFailed):
		return err.Error() + " (the glasses may show a partial frame)"
	default:
		return err.Error()
	}
}
