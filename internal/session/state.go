package session

import (
	"fmt"

	"github.com/srg/chemion/internal/transport"
)

// State is either Disconnected or Connected. The address and adapter of a
// binding live in the same value, so a half-bound session cannot exist.
type State interface {
	fmt.Stringer
	isState()
}

type Disconnected struct{}

func (Disconnected) isState()       {}
func (Disconnected) String() string { return "disconnected" }

// Connected records the peripheral the session is bound to and the adapter that reached it.
type Connected struct {
	Address string
	Adapter transport.Adapter
}

func (Connected) isState() {}

func (c Connected) String() string {
	return fmt.Sprintf("connected to %s via %s", c.Address, c.Adapter.ID())
}

// Descriptor is one named peripheral found by Discover.
type Descriptor struct {
	Address string `json:"device_address"`
	Name    string `json:"device_name"`
}
