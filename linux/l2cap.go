package linux

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ctxflow"
	"github.com/xaionaro-go/sdp/linux/socket"
	"github.com/xaionaro-go/sdp/linux/util"
)

// pollTimeout is how often blocked reads and accepts look at their context.
const pollTimeout = 100 // ms

var ErrClosed = errors.New("connection closed")

// Listener accepts L2CAP connections on one PSM.
type Listener struct {
	fd       int
	psm      uint16
	closeMu  sync.Mutex
	closed   bool
	acceptor ctxflow.StartStopper[ctxflow.StartStopperBackendFuncs]

	cancel context.CancelFunc
	done   chan struct{}
}

// Listen opens a listening L2CAP socket on psm. A non-zero recvMTU is
// offered to connecting peers.
func Listen(ctx context.Context, psm uint16, recvMTU uint16) (*Listener, error) {
	fd, err := socket.Socket()
	if err != nil {
		logger.Debugf(ctx, "could not create AF_BLUETOOTH L2CAP socket: %v", err)
		return nil, err
	}
	if recvMTU != 0 {
		if err := socket.SetReceiveMTU(fd, recvMTU); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("unable to set the receive MTU to %d: %w", recvMTU, err)
		}
	}
	if err := socket.BindL2(fd, psm); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("unable to bind to PSM 0x%04X: %w", psm, err)
	}
	if err := unix.Listen(fd, 8); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("unable to listen on PSM 0x%04X: %w", psm, err)
	}
	logger.Debugf(ctx, "listening on L2CAP PSM 0x%04X", psm)

	l := &Listener{fd: fd, psm: psm}
	l.acceptor = ctxflow.StartStopper[ctxflow.StartStopperBackendFuncs]{
		StartStopper: ctxflow.StartStopperBackendFuncs{
			StartFunc: l.doStartAccepting,
			StopFunc:  l.doStopAccepting,
		},
	}
	return l, nil
}

// Accept waits for the next connection or for ctx to be done.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	fds := []unix.PollFd{{Fd: int32(l.fd), Events: unix.POLLIN}}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Use poll to avoid blocking on Accept
		n, err := unix.Poll(fds, pollTimeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_CLOEXEC)
		if err != nil {
			return nil, err
		}
		c, err := newConn(nfd, sa)
		if err != nil {
			unix.Close(nfd)
			logger.Errorf(ctx, "unable to set up accepted connection: %v", err)
			continue
		}
		logger.Debugf(ctx, "accepted %s, send MTU %d", c.remote, c.sendMTU)
		return c, nil
	}
}

// Serve accepts connections in the background and runs handler for each
// one in its own goroutine, until Stop.
func (l *Listener) Serve(ctx context.Context, handler func(context.Context, *Conn)) error {
	return l.acceptor.Start(ctx, handler)
}

// Stop stops the loop started by Serve.
func (l *Listener) Stop() error {
	return l.acceptor.Stop()
}

func (l *Listener) doStartAccepting(ctx context.Context, args ...any) error {
	handler := args[0].(func(context.Context, *Conn))
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		for {
			c, err := l.Accept(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Errorf(ctx, "accept on PSM 0x%04X failed: %v", l.psm, err)
				}
				return
			}
			go func() {
				defer c.Close()
				handler(ctx, c)
			}()
		}
	}()
	return nil
}

func (l *Listener) doStopAccepting(ctx context.Context) error {
	l.cancel()
	<-l.done
	logger.Debugf(ctx, "stopped accepting on PSM 0x%04X", l.psm)
	return nil
}

// Close closes the listening socket.
func (l *Listener) Close() error {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return unix.Close(l.fd)
}

// Conn is a connected L2CAP SEQPACKET socket. Every Write is one frame.
type Conn struct {
	fd      int
	remote  util.BDAddr
	sendMTU uint16

	readMutex  sync.Mutex
	writeMutex sync.Mutex
	closeMutex sync.Mutex
	closed     bool
}

func newConn(fd int, sa unix.Sockaddr) (*Conn, error) {
	mtu, err := socket.SendMTU(fd)
	if err != nil {
		return nil, fmt.Errorf("unable to get the send MTU: %w", err)
	}
	c := &Conn{fd: fd, sendMTU: mtu}
	if l2, ok := sa.(*unix.SockaddrL2); ok {
		c.remote = util.BDAddrFromWire(l2.Addr)
	}
	return c, nil
}

// Dial connects to psm on the device at addr.
func Dial(ctx context.Context, addr util.BDAddr, psm uint16) (*Conn, error) {
	fd, err := socket.Socket()
	if err != nil {
		return nil, err
	}
	sa := &unix.SockaddrL2{PSM: psm, Addr: [6]uint8(addr)}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("unable to connect to %s PSM 0x%04X: %w", addr, psm, err)
	}
	c, err := newConn(fd, nil)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	c.remote = addr
	logger.Debugf(ctx, "connected to %s, send MTU %d", addr, c.sendMTU)
	return c, nil
}

// ID returns the socket descriptor; it is unique among open connections.
func (c *Conn) ID() int { return c.fd }

// RemoteAddr returns the address of the peer.
func (c *Conn) RemoteAddr() util.BDAddr { return c.remote }

// SendMTU returns the largest frame the peer accepts.
func (c *Conn) SendMTU() int { return int(c.sendMTU) }

// ReadPacket reads one frame into b, waiting until one arrives or ctx is
// done. A peer disconnect returns ErrClosed.
func (c *Conn) ReadPacket(ctx context.Context, b []byte) (int, error) {
	c.readMutex.Lock()
	defer c.readMutex.Unlock()
	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := unix.Poll(fds, pollTimeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		n, err = unix.Read(c.fd, b)
		switch {
		case err == unix.ECONNRESET:
			return 0, ErrClosed
		case err != nil:
			return 0, err
		case n == 0:
			return 0, ErrClosed
		}
		return n, nil
	}
}

// Write sends b as one frame.
func (c *Conn) Write(b []byte) (int, error) {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	return unix.Write(c.fd, b)
}

func (c *Conn) Close() error {
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return unix.Close(c.fd)
}
