package util

import (
	"fmt"
	"net"
)

// BDAddr is a Bluetooth device address, most significant byte first as it
// is written ("00:1A:7D:DA:71:13").
type BDAddr [6]byte

// ParseBDAddr parses the colon separated form of a device address.
func ParseBDAddr(s string) (BDAddr, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return BDAddr{}, fmt.Errorf("invalid Bluetooth address %q: %w", s, err)
	}
	if len(hw) != 6 {
		return BDAddr{}, fmt.Errorf("invalid Bluetooth address %q: %d bytes", s, len(hw))
	}
	return BDAddr(hw), nil
}

func (a BDAddr) String() string {
	return net.HardwareAddr(a[:]).String()
}

// BDAddrFromWire converts an address in the little-endian order used by
// HCI and the kernel's sockaddr_l2.
func BDAddrFromWire(b [6]byte) BDAddr {
	return BDAddr{b[5], b[4], b[3], b[2], b[1], b[0]}
}
