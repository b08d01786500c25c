package socket

import (
	"golang.org/x/sys/unix"
)

// Bluetooth socket constants from <bluetooth/bluetooth.h> and
// <bluetooth/l2cap.h>.
const (
	AF_BLUETOOTH  = 31
	BTPROTO_L2CAP = 0

	SOL_BLUETOOTH = 274
	BT_SNDMTU     = 12
	BT_RCVMTU     = 13

	// PSM_SDP is the fixed L2CAP PSM of the Service Discovery Protocol.
	PSM_SDP = 0x0001
)

type SockLen uint32

// Socket opens an L2CAP SEQPACKET socket, the transport of SDP.
func Socket() (int, error) {
	return unix.Socket(AF_BLUETOOTH, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, BTPROTO_L2CAP)
}

// BindL2 binds fd to psm on any local adapter.
func BindL2(fd int, psm uint16) error {
	return unix.Bind(fd, &unix.SockaddrL2{PSM: psm})
}

// SendMTU returns the outgoing MTU negotiated for a connected socket.
func SendMTU(fd int) (uint16, error) {
	return getsockoptUint16(fd, SOL_BLUETOOTH, BT_SNDMTU)
}

// SetReceiveMTU sets the incoming MTU offered during configuration. It must
// be called before the connection is established.
func SetReceiveMTU(fd int, mtu uint16) error {
	return setsockoptUint16(fd, SOL_BLUETOOTH, BT_RCVMTU, mtu)
}
