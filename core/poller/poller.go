package poller

// Event is a readiness notification for one file descriptor
type Event struct {
	Fd       int
	Readable bool
	Writable bool
	// Hangup is set when the peer closed or the socket is in error; the next
	// read or write on Fd reports the detail.
	Hangup bool
}

// Poller is the I/O multiplexing interface. Registrations are
// level-triggered and carry a single interest at a time.
type Poller interface {
	// AddRead starts watching fd for readability
	AddRead(fd int) error
	// ModWrite switches an already registered fd to writability
	ModWrite(fd int) error
	// Remove stops watching fd
	Remove(fd int) error
	// Wait blocks up to timeout milliseconds (negative blocks forever).
	// The returned slice is reused by the next call.
	Wait(timeout int) ([]Event, error)
	Close() error
}
