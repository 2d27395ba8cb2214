package protocol

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// MaxPacketSize is the largest payload of a single BLE write (ATT_MTU 23 minus 3 bytes of header).
const MaxPacketSize = 20

// Packet is one transport-sized chunk of an encoded command.
type Packet []byte

// MarshalJSON encodes the packet as an array of numbers instead of base64.
func (p Packet) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+len(p)*4)
	out = append(out, '[')
	for i, b := range p {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(b), 10)
	}
	return append(out, ']'), nil
}

// UnmarshalJSON accepts an array of byte values.
func (p *Packet) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("packet must be an array of bytes: %w", err)
	}
	if len(values) > MaxPacketSize {
		return fmt.Errorf("packet has %d bytes, at most %d allowed", len(values), MaxPacketSize)
	}
	out := make(Packet, len(values))
	for i, v := range values {
		if v < 0 || v > 0xff {
			return fmt.Errorf("packet byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*p = out
	return nil
}

// PacketSequence is an ordered list of packets forming one command.
type PacketSequence []Packet

// Bytes returns the concatenation of all packets.
func (s PacketSequence) Bytes() []byte {
	n := 0
	for _, p := range s {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range s {
		out = append(out, p...)
	}
	return out
}

// Hex renders each packet as a lowercase hex string.
func (s PacketSequence) Hex() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = hex.EncodeToString(p)
	}
	return out
}

// Chunk splits data into consecutive packets of at most size bytes.
// The last packet may be shorter; an empty input yields no packets.
func Chunk(data []byte, size int) PacketSequence {
	if size <= 0 {
		size = MaxPacketSize
	}
	seq := make(PacketSequence, 0, (len(data)+size-1)/size)
	for len(data) > 0 {
		n := len(data)
		if n > size {
			n = size
		}
		seq = append(seq, Packet(data[:n:n]))
		data = data[n:]
	}
	return seq
}

// PacketRequest is the JSON body carrying an already encoded command.
type PacketRequest struct {
	Packets PacketSequence `json:"glasses_frame"`
}
