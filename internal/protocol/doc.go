// Package protocol implements the Chemion glasses wire format.
//
// A display update is a single UART command:
//
//	fa 03 00 39 01 00 06 | packed pixels ... | checksum | 55 a9
//
// Pixels are 2-bit intensities packed four to a byte, most significant bits
// first. The checksum is a running XOR over the packed pixel bytes only,
// seeded with 0x07. The command is then split into packets of at most
// MaxPacketSize bytes, which is what a single BLE write can carry.
package protocol
