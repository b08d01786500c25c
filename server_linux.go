package sdp

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/sdp/linux"
	"github.com/xaionaro-go/sdp/linux/socket"
	"github.com/xaionaro-go/sdp/linux/util"
)

// L2CAPServer serves a Server on the SDP PSM of the local adapters.
type L2CAPServer struct {
	server   *Server
	listener *linux.Listener
	pool     *util.BytePool
	ids      *channelIDs
}

// ListenL2CAP binds the SDP PSM. recvMTU is the largest request accepted;
// 0 selects the server's DefaultMTU.
func ListenL2CAP(ctx context.Context, s *Server, recvMTU int) (*L2CAPServer, error) {
	if recvMTU == 0 {
		recvMTU = s.cfg.DefaultMTU
	}
	if recvMTU < MinMTU || recvMTU > 0xFFFF {
		return nil, fmt.Errorf("%w: receive MTU %d", ErrMTUTooSmall, recvMTU)
	}
	l, err := linux.Listen(ctx, socket.PSM_SDP, uint16(recvMTU))
	if err != nil {
		return nil, err
	}
	return &L2CAPServer{
		server:   s,
		listener: l,
		pool:     util.NewBytePool(recvMTU, s.cfg.MaxChannels),
		ids:      newChannelIDs(),
	}, nil
}

// Serve starts accepting connections in the background.
func (l *L2CAPServer) Serve(ctx context.Context) error {
	return l.listener.Serve(ctx, l.handleConn)
}

// Close stops accepting and closes the socket. Connections being served
// end when the context given to Serve is done.
func (l *L2CAPServer) Close() error {
	stopErr := l.listener.Stop()
	l.pool.Close()
	return errors.Join(stopErr, l.listener.Close())
}

func (l *L2CAPServer) handleConn(ctx context.Context, conn *linux.Conn) {
	id, err := l.ids.get()
	if err != nil {
		logger.Errorf(ctx, "refusing %s: %v", conn.RemoteAddr(), err)
		return
	}
	defer l.ids.put(id)

	ch := &l2capChannel{
		id:   id,
		conn: conn,
	}
	if err := l.server.ChannelOpened(ctx, ch); err != nil {
		logger.Errorf(ctx, "refusing %s: %v", conn.RemoteAddr(), err)
		return
	}
	defer l.server.ChannelClosed(ctx, ch.id)

	b := l.pool.Get()
	if b == nil {
		return
	}
	defer l.pool.Put(b)

	for {
		n, err := conn.ReadPacket(ctx, b)
		if err != nil {
			if !errors.Is(err, linux.ErrClosed) && ctx.Err() == nil {
				logger.Errorf(ctx, "channel %d: read failed: %v", ch.id, err)
			}
			return
		}
		if err := l.server.ProcessPacket(ctx, ch.id, b[:n]); err != nil {
			return
		}
	}
}

// l2capChannel adapts a connected socket to Channel.
type l2capChannel struct {
	id   ChannelID
	conn *linux.Conn
}

func (c *l2capChannel) ID() ChannelID { return c.id }

func (c *l2capChannel) MTU() int { return c.conn.SendMTU() }

func (c *l2capChannel) Send(_ context.Context, b []byte) error {
	_, err := c.conn.Write(b)
	return err
}

// L2CAPTransport is a client Transport over an L2CAP connection.
type L2CAPTransport struct {
	conn *linux.Conn
	buf  []byte
}

// DialL2CAP connects to the SDP server of the device at addr
// ("00:1A:7D:DA:71:13").
func DialL2CAP(ctx context.Context, addr string) (*L2CAPTransport, error) {
	a, err := util.ParseBDAddr(addr)
	if err != nil {
		return nil, err
	}
	conn, err := linux.Dial(ctx, a, socket.PSM_SDP)
	if err != nil {
		return nil, err
	}
	return &L2CAPTransport{conn: conn, buf: make([]byte, 0xFFFF)}, nil
}

// Exchange sends req and waits for one response frame.
func (t *L2CAPTransport) Exchange(ctx context.Context, req []byte) ([]byte, error) {
	if _, err := t.conn.Write(req); err != nil {
		return nil, err
	}
	n, err := t.conn.ReadPacket(ctx, t.buf)
	if err != nil {
		return nil, err
	}
	return append([]byte{}, t.buf[:n]...), nil
}

func (t *L2CAPTransport) Close() error {
	return t.conn.Close()
}
