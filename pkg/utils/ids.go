package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
)

// GenID returns a random 63-bit non-zero identifier. Random ids avoid a
// central counter and contention when many entities are created
// concurrently; the high bit is cleared so the value survives a round trip
// through signed integer representations.
func GenID() uint64 {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		id := binary.BigEndian.Uint64(b[:]) &^ (1 << 63)
		if id != 0 {
			return id
		}
	}
}

// FormatID renders an id as a fixed-width decimal so lexicographic key
// order matches numeric order.
func FormatID(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

// ParseID parses a decimal id, fixed-width or not.
func ParseID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
