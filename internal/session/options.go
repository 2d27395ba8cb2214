package session

import (
	"fmt"
	"time"
)

// RebindPolicy decides what Connect does when the session is already bound.
type RebindPolicy string

const (
	// RebindReplace overwrites the binding and leaves the old link alone.
	RebindReplace RebindPolicy = "replace"
	// RebindRequireDisconnect rejects Connect until Disconnect succeeded.
	RebindRequireDisconnect RebindPolicy = "require-disconnect"
)

// ParseRebindPolicy accepts the textual form used in configuration files.
func ParseRebindPolicy(s string) (RebindPolicy, error) {
	switch p := RebindPolicy(s); p {
	case RebindReplace, RebindRequireDisconnect:
		return p, nil
	case "":
		return RebindReplace, nil
	default:
		return "", fmt.Errorf("invalid rebind policy %q (want %q or %q)", s, RebindReplace, RebindRequireDisconnect)
	}
}

const DefaultScanWindow = 2 * time.Second

// Options configure a Session. The scan window is fixed for the session lifetime.
type Options struct {
	ScanWindow   time.Duration
	RebindPolicy RebindPolicy
}

func DefaultOptions() *Options {
	return &Options{
		ScanWindow:   DefaultScanWindow,
		RebindPolicy: RebindReplace,
	}
}
