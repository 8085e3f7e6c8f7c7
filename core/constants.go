package core

import (
	"errors"
	"time"
)

// Engine defaults
const (
	DefaultPort           = 10000
	DefaultReadBufferSize = 8192
	DefaultPollTimeout    = 100 * time.Millisecond

	// responseHeaderReserve covers the status line and fixed headers.
	responseHeaderReserve = 128
)

// Error definitions
var (
	ErrListen           = errors.New("listener setup failed")
	ErrNotListening     = errors.New("engine is not listening")
	ErrAlreadyListening = errors.New("engine is already listening")
)
