package sdp

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// baseUUID is the Bluetooth Base UUID, 00000000-0000-1000-8000-00805F9B34FB.
var baseUUID = [16]byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB,
}

// A UUID is a Bluetooth UUID as carried in SDP data elements.
//
// It remembers the width it was created with (2, 4 or 16 bytes), which is
// what gets encoded on the wire. Equality is defined on the 128-bit form, so
// UUID16(0x1101) equals the corresponding full UUID.
type UUID struct {
	width uint8
	b     [16]byte // big-endian; only b[:width] is meaningful
}

// UUID16 converts a uint16 (such as 0x1101) to a UUID.
func UUID16(v uint16) UUID {
	u := UUID{width: 2}
	binary.BigEndian.PutUint16(u.b[:], v)
	return u
}

// UUID32 converts a uint32 to a UUID.
func UUID32(v uint32) UUID {
	u := UUID{width: 4}
	binary.BigEndian.PutUint32(u.b[:], v)
	return u
}

// UUID128 makes a UUID from a full 128-bit value in network byte order.
func UUID128(b [16]byte) UUID {
	return UUID{width: 16, b: b}
}

// ParseUUID parses a 16-, 32-, or 128-bit UUID.
//
// Short forms are given as hex with an optional 0x prefix ("1101",
// "0x00001101"); full UUIDs use any form accepted by github.com/google/uuid.
func ParseUUID(s string) (UUID, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	switch len(t) {
	case 4:
		v, err := strconv.ParseUint(t, 16, 16)
		if err != nil {
			return UUID{}, fmt.Errorf("invalid 16-bit UUID %q: %w", s, err)
		}
		return UUID16(uint16(v)), nil
	case 8:
		v, err := strconv.ParseUint(t, 16, 32)
		if err != nil {
			return UUID{}, fmt.Errorf("invalid 32-bit UUID %q: %w", s, err)
		}
		return UUID32(uint32(v)), nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	return UUID128(u), nil
}

// MustParseUUID parses a UUID or panics.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Len returns the encoded width of the UUID in bytes (2, 4 or 16).
func (u UUID) Len() int {
	return int(u.width)
}

// IsZero reports whether u was never initialized.
func (u UUID) IsZero() bool {
	return u.width == 0
}

// Bytes returns the UUID in network byte order, at its own width.
func (u UUID) Bytes() []byte {
	b := make([]byte, u.width)
	copy(b, u.b[:u.width])
	return b
}

// To128 returns the full 128-bit form, expanding short UUIDs over the
// Bluetooth Base UUID.
func (u UUID) To128() [16]byte {
	switch u.width {
	case 2:
		full := baseUUID
		copy(full[2:4], u.b[:2])
		return full
	case 4:
		full := baseUUID
		copy(full[0:4], u.b[:4])
		return full
	default:
		return u.b
	}
}

// Short returns the 32-bit alias of u if it lies on the Base UUID.
func (u UUID) Short() (uint32, bool) {
	full := u.To128()
	if [12]byte(full[4:]) != [12]byte(baseUUID[4:]) {
		return 0, false
	}
	return binary.BigEndian.Uint32(full[:4]), true
}

// Equal reports whether u and v denote the same UUID, regardless of width.
func (u UUID) Equal(v UUID) bool {
	return u.To128() == v.To128()
}

// String formats short UUIDs as hex ("0x1101") and full UUIDs in the
// canonical 8-4-4-4-12 form.
func (u UUID) String() string {
	switch u.width {
	case 0:
		return "<nil>"
	case 2:
		return fmt.Sprintf("0x%04X", binary.BigEndian.Uint16(u.b[:2]))
	case 4:
		return fmt.Sprintf("0x%08X", binary.BigEndian.Uint32(u.b[:4]))
	default:
		return uuid.UUID(u.b).String()
	}
}

// FullString formats the 128-bit form of u.
func (u UUID) FullString() string {
	return uuid.UUID(u.To128()).String()
}

func uuidFromBytes(b []byte) (UUID, bool) {
	switch len(b) {
	case 2, 4, 16:
	default:
		return UUID{}, false
	}
	u := UUID{width: uint8(len(b))}
	copy(u.b[:], b)
	return u, true
}

func hexString(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
