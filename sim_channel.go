package sdp

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var errNoResponse = errors.New("server sent no response")

// Loopback is an in-memory channel connecting a Client to a Server in the
// same process. The server runs synchronously inside Exchange.
type Loopback struct {
	server *Server
	id     ChannelID
	mtu    int

	locker  sync.Mutex
	pending [][]byte
	frames  int
}

var (
	_ Channel   = (*Loopback)(nil)
	_ Transport = (*Loopback)(nil)
)

// NewLoopback opens channel id with the given MTU on s.
func NewLoopback(ctx context.Context, s *Server, id ChannelID, mtu int) (*Loopback, error) {
	l := &Loopback{server: s, id: id, mtu: mtu}
	if err := s.ChannelOpened(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loopback) ID() ChannelID { return l.id }

func (l *Loopback) MTU() int { return l.mtu }

// Send queues a copy of b for the next Exchange.
func (l *Loopback) Send(_ context.Context, b []byte) error {
	if l.mtu != 0 && len(b) > l.mtu {
		return fmt.Errorf("frame of %d bytes exceeds MTU %d", len(b), l.mtu)
	}
	l.locker.Lock()
	defer l.locker.Unlock()
	l.pending = append(l.pending, append([]byte{}, b...))
	l.frames++
	return nil
}

// Exchange delivers req to the server and returns its response.
func (l *Loopback) Exchange(ctx context.Context, req []byte) ([]byte, error) {
	if err := l.server.ProcessPacket(ctx, l.id, req); err != nil {
		return nil, err
	}
	l.locker.Lock()
	defer l.locker.Unlock()
	if len(l.pending) == 0 {
		return nil, errNoResponse
	}
	resp := l.pending[0]
	l.pending = l.pending[1:]
	return resp, nil
}

// Frames returns the number of frames the server has sent.
func (l *Loopback) Frames() int {
	l.locker.Lock()
	defer l.locker.Unlock()
	return l.frames
}

// Close closes the channel on the server side.
func (l *Loopback) Close(ctx context.Context) error {
	return l.server.ChannelClosed(ctx, l.id)
}
