//go:build linux || darwin

package poller

import (
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// UnknownRemote labels a peer whose address could not be determined.
const UnknownRemote = "Unknown"

// Listen opens a non-blocking IPv4 TCP listener on all interfaces with
// SO_REUSEADDR set. Port 0 lets the kernel pick a port.
func Listen(port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind port %d: %w", port, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("set nonblock: %w", err)
	}

	return fd, nil
}

// LocalPort returns the port a listening socket is bound to.
func LocalPort(fd int) (int, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, fmt.Errorf("getsockname: %w", err)
	}
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return a.Port, nil
	case *unix.SockaddrInet6:
		return a.Port, nil
	}
	return 0, fmt.Errorf("getsockname: unexpected address %T", sa)
}

// Accept accepts one pending connection, makes it non-blocking and returns
// it with its remote label. It returns unix.EAGAIN when nothing is pending.
func Accept(lfd int) (int, string, error) {
	nfd, sa, err := unix.Accept(lfd)
	if err != nil {
		return -1, "", err
	}
	unix.CloseOnExec(nfd)

	if err := unix.SetNonblock(nfd, true); err != nil {
		unix.Close(nfd)
		return -1, "", fmt.Errorf("set nonblock: %w", err)
	}

	// TCP_NODELAY: Disable Nagle's algorithm
	_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	remote := RemoteLabel(sa)
	if remote == UnknownRemote {
		remote = PeerLabel(nfd)
	}
	return nfd, remote, nil
}

// RemoteLabel renders a peer address as "ip:port", or UnknownRemote.
func RemoteLabel(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port)).String()
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(a.Addr), uint16(a.Port)).String()
	case *unix.SockaddrUnix:
		if a.Name != "" {
			return a.Name
		}
	}
	return UnknownRemote
}

// PeerLabel asks the kernel for the peer address of fd.
func PeerLabel(fd int) string {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return UnknownRemote
	}
	return RemoteLabel(sa)
}

// Read reads into buf, retrying on EINTR.
func Read(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// Write writes buf, retrying on EINTR. It may write fewer bytes than len(buf).
func Write(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Write(fd, buf)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// Shutdown shuts down both directions of fd. A peer that is already gone is
// not an error.
func Shutdown(fd int) error {
	err := unix.Shutdown(fd, unix.SHUT_RDWR)
	if err == nil || errors.Is(err, unix.ENOTCONN) {
		return nil
	}
	return fmt.Errorf("shutdown: %w", err)
}

// Close closes fd.
func Close(fd int) error {
	return unix.Close(fd)
}

// IsWouldBlock reports whether err means the operation would block.
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

// IsTransientAccept reports accept errors that only affect the connection
// being accepted.
func IsTransientAccept(err error) bool {
	return errors.Is(err, unix.ECONNABORTED) || errors.Is(err, unix.EINTR) || errors.Is(err, unix.EPROTO)
}
