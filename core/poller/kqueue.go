//go:build darwin

package poller

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// KqueuePoller is a kqueue-based I/O multiplexer
type KqueuePoller struct {
	kqfd    int
	events  []unix.Kevent_t
	ready   []Event
	writing map[int]bool
}

// NewPoller creates a new Poller (macOS)
func NewPoller() (Poller, error) {
	kqfd, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue create: %w", err)
	}
	unix.CloseOnExec(kqfd)

	return &KqueuePoller{
		kqfd:    kqfd,
		events:  make([]unix.Kevent_t, 1024),
		ready:   make([]Event, 0, 1024),
		writing: make(map[int]bool),
	}, nil
}

func (p *KqueuePoller) change(fd int, filter, flags int) error {
	var ev unix.Kevent_t
	unix.SetKevent(&ev, fd, filter, flags)
	_, err := unix.Kevent(p.kqfd, []unix.Kevent_t{ev}, nil, nil)
	return err
}

// AddRead adds a file descriptor to the watch list
func (p *KqueuePoller) AddRead(fd int) error {
	// Level-triggered (no EV_CLEAR)
	if err := p.change(fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE); err != nil {
		return fmt.Errorf("kevent add: %w", err)
	}
	return nil
}

// ModWrite switches fd from read to write interest
func (p *KqueuePoller) ModWrite(fd int) error {
	if err := p.change(fd, unix.EVFILT_READ, unix.EV_DELETE); err != nil {
		return fmt.Errorf("kevent delete read: %w", err)
	}
	if err := p.change(fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE); err != nil {
		return fmt.Errorf("kevent add write: %w", err)
	}
	p.writing[fd] = true
	return nil
}

// Remove removes a file descriptor from the watch list
func (p *KqueuePoller) Remove(fd int) error {
	filter := unix.EVFILT_READ
	if p.writing[fd] {
		filter = unix.EVFILT_WRITE
		delete(p.writing, fd)
	}
	if err := p.change(fd, filter, unix.EV_DELETE); err != nil {
		return fmt.Errorf("kevent delete: %w", err)
	}
	return nil
}

// Wait waits for I/O events
func (p *KqueuePoller) Wait(timeout int) ([]Event, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(int64(timeout) * 1e6)
		ts = &t
	}

	n, err := unix.Kevent(p.kqfd, nil, p.events, ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("kevent wait: %w", err)
	}

	p.ready = p.ready[:0]
	for i := 0; i < n; i++ {
		ev := p.events[i]
		p.ready = append(p.ready, Event{
			Fd:       int(ev.Ident),
			Readable: ev.Filter == unix.EVFILT_READ,
			Writable: ev.Filter == unix.EVFILT_WRITE,
			Hangup:   ev.Flags&(unix.EV_EOF|unix.EV_ERROR) != 0,
		})
	}

	return p.ready, nil
}

// Close closes the Poller
func (p *KqueuePoller) Close() error {
	return unix.Close(p.kqfd)
}
