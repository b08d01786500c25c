//go:build 386
// +build 386

package socket

import "golang.org/x/sys/unix"

// On 386 socket calls go through socketcall(2), so use x/sys/unix and
// rely on the kernel filling the low half of the int.
func getsockoptUint16(s int, level int, name int) (uint16, error) {
	v, err := unix.GetsockoptInt(s, level, name)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func setsockoptUint16(s int, level int, name int, v uint16) error {
	return unix.SetsockoptInt(s, level, name, int(v))
}
