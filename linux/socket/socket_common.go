//go:build !386
// +build !386

package socket

import (
	"syscall"
	"unsafe"
)

func getsockopt(s int, level int, name int, val unsafe.Pointer, valueLen *SockLen) (err error) {
	_, _, e1 := syscall.Syscall6(syscall.SYS_GETSOCKOPT, uintptr(s), uintptr(level), uintptr(name), uintptr(val), uintptr(unsafe.Pointer(valueLen)), 0)
	if e1 != 0 {
		err = e1
	}
	return
}

func setsockopt(s int, level int, name int, val unsafe.Pointer, valueLen uintptr) (err error) {
	_, _, e1 := syscall.Syscall6(syscall.SYS_SETSOCKOPT, uintptr(s), uintptr(level), uintptr(name), uintptr(val), uintptr(valueLen), 0)
	if e1 != 0 {
		err = e1
	}
	return
}

// The Bluetooth MTU options are 16 bits wide, which the int based
// helpers of x/sys/unix do not cover.
func getsockoptUint16(s int, level int, name int) (uint16, error) {
	var v uint16
	l := SockLen(unsafe.Sizeof(v))
	if err := getsockopt(s, level, name, unsafe.Pointer(&v), &l); err != nil {
		return 0, err
	}
	return v, nil
}

func setsockoptUint16(s int, level int, name int, v uint16) error {
	return setsockopt(s, level, name, unsafe.Pointer(&v), unsafe.Sizeof(v))
}
