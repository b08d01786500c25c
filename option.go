package sdp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// An Option is a self-referential function, which sets the option specified.
// See http://commandcenter.blogspot.com.au/2014/01/self-referential-functions-and-design.html for more discussion.
type Option func(*Server) error

// Option sets the options specified.
// Options are best passed to NewServer; WithMetrics has no effect afterwards.
func (s *Server) Option(opts ...Option) error {
	var err error
	for _, opt := range opts {
		if e := opt(s); e != nil {
			err = e
		}
	}
	return err
}

// WithClock replaces the time source used for continuation timeouts.
func WithClock(now func() time.Time) Option {
	return func(s *Server) error {
		s.now = now
		return nil
	}
}

// WithMetrics registers the server's collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Server) error {
		return s.metrics.register(reg)
	}
}

// WithStore makes the server serve records from an existing store instead
// of a new one. The store must not be sealed yet.
func WithStore(st *Store) Option {
	return func(s *Server) error {
		if st.Sealed() {
			return ErrRegistrationClosed
		}
		s.store = st
		return nil
	}
}
