//go:build !linux
// +build !linux

package sdp

import "context"

// L2CAPServer serves a Server on the SDP PSM; only Linux is supported.
type L2CAPServer struct{}

func ListenL2CAP(ctx context.Context, s *Server, recvMTU int) (*L2CAPServer, error) {
	return nil, errNotImplemented
}

func (l *L2CAPServer) Serve(ctx context.Context) error { return errNotImplemented }

func (l *L2CAPServer) Close() error { return nil }

// L2CAPTransport is a client Transport over an L2CAP connection.
type L2CAPTransport struct{}

func DialL2CAP(ctx context.Context, addr string) (*L2CAPTransport, error) {
	return nil, errNotImplemented
}

func (t *L2CAPTransport) Exchange(ctx context.Context, req []byte) ([]byte, error) {
	return nil, errNotImplemented
}

func (t *L2CAPTransport) Close() error { return nil }
