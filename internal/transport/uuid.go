package transport

import "strings"

// NormalizeUUID converts a UUID to the form used for comparisons (lowercase, no dashes, no 0x prefix).
func NormalizeUUID(uuid string) string {
	uuid = strings.TrimSpace(strings.ToLower(uuid))
	uuid = strings.TrimPrefix(uuid, "0x")
	return strings.ReplaceAll(uuid, "-", "")
}

// SameAddress compares two peripheral addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FindCharacteristic returns the characteristic of p matching uuid in any notation.
func FindCharacteristic(p Peripheral, uuid string) (Characteristic, bool) {
	want := NormalizeUUID(uuid)
	for _, c := range p.Characteristics() {
		if NormalizeUUID(c.UUID()) == want {
			return c, true
		}
	}
	return nil, false
}
