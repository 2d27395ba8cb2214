package protocol

import (
	"bytes"
	"errors"
	"fmt"
)

// ChecksumSeed is the initial value of the running XOR checksum.
const ChecksumSeed byte = 0x07

// WriteCharacteristicUUID is the Nordic UART RX characteristic frames are written to.
const WriteCharacteristicUUID = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"


var (
	header  = []byte{0xfa, 0x03, 0x00, 0x39, 0x01, 0x00, 0x06}
	trailer = []byte{0x55, 0xa9}
)

// Header returns a copy of the 7-byte command header.
func Header() []byte { return bytes.Clone(header) }

// Trailer returns a copy of the 2-byte end-of-frame marker.
func Trailer() []byte { return bytes.Clone(trailer) }

// Encode packs frame into the vendor command and splits it into packets.
// Encoding is all-or-nothing: an invalid pixel yields an error and no packets.
// A trailing group of fewer than PixelsPerByte pixels does not form a byte and is dropped.
func Encode(frame Frame) (PacketSequence, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	payload := Pack(frame)

	cmd := make([]byte, 0, len(header)+len(payload)+1+len(trailer))
	cmd = append(cmd, header...)
	cmd = append(cmd, payload...)
	cmd = append(cmd, Checksum(payload))
	cmd = append(cmd, trailer...)

	return Chunk(cmd, MaxPacketSize), nil
}

// Pack bit-packs pixels MSB-first, PixelsPerByte to a byte.
// Values are masked to BitsPerPixel; call Validate first for strict input.
func Pack(frame Frame) []byte {
	out := make([]byte, 0, frame.PixelCount()/PixelsPerByte)
	var acc byte
	n := 0
	for _, row := range frame {
		for _, px := range row {
			acc = acc<<BitsPerPixel | byte(px)&MaxIntensity
			n++
			if n == PixelsPerByte {
				out = append(out, acc)
				acc, n = 0, 0
			}
		}
	}
	return out
}

// Checksum XORs the payload into ChecksumSeed.
func Checksum(payload []byte) byte {
	sum := ChecksumSeed
	for _, b := range payload {
		sum ^= b
	}
	return sum
}

// Decode errors
var (
	ErrTruncated  = errors.New("command too short")
	ErrBadHeader  = errors.New("bad command header")
	ErrBadTrailer = errors.New("bad command trailer")
)

// ChecksumError reports a checksum mismatch in a decoded command.
type ChecksumError struct {
	Want byte
	Got  byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: want %02x, got %02x", e.Want, e.Got)
}

// Decode reassembles packets and returns the packed pixel payload after
// verifying header, checksum and trailer.
func Decode(seq PacketSequence) ([]byte, error) {
	cmd := seq.Bytes()
	if len(cmd) < len(header)+1+len(trailer) {
		return nil, ErrTruncated
	}
	if !bytes.Equal(cmd[:len(header)], header) {
		return nil, ErrBadHeader
	}
	if !bytes.Equal(cmd[len(cmd)-len(trailer):], trailer) {
		return nil, ErrBadTrailer
	}

	payload := cmd[len(header) : len(cmd)-len(trailer)-1]
	got := cmd[len(cmd)-len(trailer)-1]
	if want := Checksum(payload); want != got {
		return nil, &ChecksumError{Want: want, Got: got}
	}
	return payload, nil
}
