package client

import "time"

// Defaults mirror the spec's constructor defaults; DialTimeout and
// MaxRecvBuf are ambient additions grounded in the teacher's
// pkg/constants (DefaultConnTimeout, MaxRawBufferSize) adapted to this
// client's actual bounds.
const (
	DefaultIdleTimeout    = 30 * time.Second
	DefaultResolveTimeout = 10 * time.Second
	DefaultDialTimeout    = 10 * time.Second
	DefaultRequestTimeout = 10 * time.Second

	// MaxRecvBuf bounds any single Content-Length body, chunk, or
	// until-close accumulation a Request will hold in memory.
	MaxRecvBuf = 20 * 1024 * 1024
)
