package sdp

import (
	"fmt"
	"time"
)

// Config holds the limits of a Server. Fields carry env tags so that a
// binary can fill it with github.com/caarlos0/env.
type Config struct {
	// MaxChannels is the number of channels that may be open at once.
	MaxChannels int `env:"SDP_MAX_CHANNELS"         envDefault:"8"`

	// MaxResponseSize caps the size of a response body the server is
	// willing to build and keep for continuation.
	MaxResponseSize int `env:"SDP_MAX_RESPONSE_SIZE"    envDefault:"4096"`

	// MaxDepth is the deepest nesting of data elements accepted in requests.
	MaxDepth int `env:"SDP_MAX_DEPTH"            envDefault:"8"`

	// ContinuationTimeout is how long a partially sent response is kept
	// without a follow-up request.
	ContinuationTimeout time.Duration `env:"SDP_CONTINUATION_TIMEOUT" envDefault:"30s"`

	// ManageInterval is the period of Manage when the server runs its own
	// ticker (see Server.Start).
	ManageInterval time.Duration `env:"SDP_MANAGE_INTERVAL"      envDefault:"1s"`

	// DefaultMTU is used for channels that report an MTU of 0.
	DefaultMTU int `env:"SDP_DEFAULT_MTU"          envDefault:"672"`

	// DeepUUIDSearch makes searches match UUIDs in any attribute rather than
	// the ServiceClassIDList only.
	DeepUUIDSearch bool `env:"SDP_DEEP_UUID_SEARCH"     envDefault:"false"`

	// ServerRecord registers the SDP server's own record at handle 0.
	ServerRecord bool `env:"SDP_SERVER_RECORD"        envDefault:"true"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxChannels:         8,
		MaxResponseSize:     4096,
		MaxDepth:            DefaultMaxDepth,
		ContinuationTimeout: 30 * time.Second,
		ManageInterval:      time.Second,
		DefaultMTU:          DefaultMTU,
		ServerRecord:        true,
	}
}

// Validate checks that all limits are usable.
func (c Config) Validate() error {
	switch {
	case c.MaxChannels <= 0 || c.MaxChannels > 256:
		return fmt.Errorf("MaxChannels must be within 1..256, got %d", c.MaxChannels)
	case c.MaxResponseSize <= 0 || c.MaxResponseSize > 0xFFFF:
		return fmt.Errorf("MaxResponseSize must be within 1..65535, got %d", c.MaxResponseSize)
	case c.MaxDepth <= 0:
		return fmt.Errorf("MaxDepth must be positive, got %d", c.MaxDepth)
	case c.ContinuationTimeout <= 0:
		return fmt.Errorf("ContinuationTimeout must be positive, got %v", c.ContinuationTimeout)
	case c.ManageInterval <= 0:
		return fmt.Errorf("ManageInterval must be positive, got %v", c.ManageInterval)
	case c.DefaultMTU < MinMTU || c.DefaultMTU > 0xFFFF:
		return fmt.Errorf("DefaultMTU must be within %d..65535, got %d", MinMTU, c.DefaultMTU)
	}
	return nil
}

func (c Config) searchScope() SearchScope {
	if c.DeepUUIDSearch {
		return ScopeRecord
	}
	return ScopeServiceClass
}
