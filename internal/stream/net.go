package stream

import (
	"crypto/tls"
	"fmt"
	"net"
	"syscall"
)

// descriptorOf extracts the OS descriptor behind a net.Conn through the
// syscall.Conn interface, so TCP, UDP, Unix and TLS-over-any-of-those all
// work the same way. RawConn.Control reports the connection's own
// descriptor; nothing is duplicated, and Stream.Close() closes the
// underlying net.Conn. Returns 0 for a conn that does not implement
// syscall.Conn.
func descriptorOf(conn net.Conn) uintptr {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return 0
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0
	}
	var fd uintptr
	_ = raw.Control(func(f uintptr) { fd = f })
	return fd
}

// TCPStream wraps a *net.TCPConn (TCP, client or accepted).
type TCPStream struct{ Base }

func NewTCPStream(conn *net.TCPConn) *TCPStream {
	s := &TCPStream{}
	s.RWC = conn
	s.Fd = func() uintptr { return descriptorOf(conn) }
	return s
}

// UnixStream wraps a *net.UnixConn (SOCK_STREAM or SOCK_DGRAM Unix socket).
type UnixStream struct{ Base }

func NewUnixStream(conn *net.UnixConn) *UnixStream {
	s := &UnixStream{}
	s.RWC = conn
	s.Fd = func() uintptr { return descriptorOf(conn) }
	return s
}

// UDPStream wraps a connected *net.UDPConn. UDP is connectionless on the
// wire, but once Dial'd or accepted-and-connected by the CLI collaborator
// (one peer per session — spec's "no multiplexing inside a single
// session"), it behaves like any other byte stream from the engine's
// point of view: each datagram is one Read/Write.
type UDPStream struct{ Base }

func NewUDPStream(conn *net.UDPConn) *UDPStream {
	s := &UDPStream{}
	s.RWC = conn
	s.Fd = func() uintptr { return descriptorOf(conn) }
	return s
}

// TLSStream wraps an already-handshaken *tls.Conn. The handshake itself
// is the TLS collaborator's job (out of scope per spec §1); this type
// only adapts the record stream to Stream.
type TLSStream struct{ Base }

func NewTLSStream(conn *tls.Conn) *TLSStream {
	s := &TLSStream{}
	s.RWC = conn
	s.Fd = func() uintptr { return descriptorOf(conn.NetConn()) }
	return s
}

// DTLSStream wraps any net.Conn-shaped value produced by a DTLS
// collaborator. No DTLS library appears anywhere in the retrieved
// example pack, so this stays generic over net.Conn rather than
// depending on a specific DTLS package (see DESIGN.md).
type DTLSStream struct{ Base }

func NewDTLSStream(conn net.Conn) *DTLSStream {
	s := &DTLSStream{}
	s.RWC = conn
	s.Fd = func() uintptr { return descriptorOf(conn) }
	return s
}

// SCTPStream wraps any net.Conn-shaped value produced by an SCTP
// collaborator (e.g. github.com/ishidawataru/sctp). No SCTP library is
// present in the example pack, so the core only depends on the net.Conn
// shape, matching spec §1's "only their interfaces to the core are
// specified" for out-of-scope transports.
type SCTPStream struct{ Base }

func NewSCTPStream(conn net.Conn) *SCTPStream {
	s := &SCTPStream{}
	s.RWC = conn
	s.Fd = func() uintptr { return descriptorOf(conn) }
	return s
}

// Dial opens a client-mode Stream for the given network ("tcp", "udp",
// "unix") and address, the common case the CLI collaborator drives for
// `zigcat host port`.
func Dial(network, addr string) (Stream, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, addr, err)
	}
	return wrapConn(network, conn)
}

func wrapConn(network string, conn net.Conn) (Stream, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
		tc, ok := conn.(*net.TCPConn)
		if !ok {
			return nil, fmt.Errorf("wrapConn: expected *net.TCPConn for network %q", network)
		}
		return NewTCPStream(tc), nil
	case "udp", "udp4", "udp6":
		uc, ok := conn.(*net.UDPConn)
		if !ok {
			return nil, fmt.Errorf("wrapConn: expected *net.UDPConn for network %q", network)
		}
		return NewUDPStream(uc), nil
	case "unix", "unixgram":
		uc, ok := conn.(*net.UnixConn)
		if !ok {
			return nil, fmt.Errorf("wrapConn: expected *net.UnixConn for network %q", network)
		}
		return NewUnixStream(uc), nil
	default:
		return NewDTLSStream(conn), nil
	}
}

// Accept wraps one connection off an already-listening net.Listener —
// the core never owns the listener itself (accepting and serializing or
// spawning sessions is a listener-loop concern the CLI collaborator
// drives; the core only ever relays one accepted connection at a time
// per spec §1's "no multiplexing inside a single session").
func Accept(network string, ln net.Listener) (Stream, error) {
	conn, err := ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("accept: %w", err)
	}
	return wrapConn(network, conn)
}
