package intake

import (
	"context"
	"log"
	"net"
	"time"
)

// maxDatagram is comfortably larger than any LiveLink packet observed.
const maxDatagram = 65536

// UDPListener receives telemetry datagrams and hands each payload to the
// packets channel as an independent buffer.
type UDPListener struct {
	conn    *net.UDPConn
	packets chan []byte
}

// NewUDPListener binds a UDP socket on addr (e.g. ":11111").
func NewUDPListener(addr string) (*UDPListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &UDPListener{
		conn:    conn,
		packets: make(chan []byte),
	}, nil
}

// Packets returns the channel of received datagram payloads.
func (l *UDPListener) Packets() <-chan []byte {
	return l.packets
}

// LocalAddr returns the bound address, useful when listening on port 0.
func (l *UDPListener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Close closes the socket. Monitor returns shortly after.
func (l *UDPListener) Close() error {
	return l.conn.Close()
}

// Monitor reads datagrams until ctx is done, delivering each payload as a
// fresh copy on the Packets channel. Read deadlines keep the loop
// responsive to cancellation without a second goroutine touching the
// socket.
func (l *UDPListener) Monitor(ctx context.Context) error {
	defer close(l.packets)
	buf := make([]byte, maxDatagram)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(250 * time.Millisecond)); err != nil {
			return err
		}
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("udp read error: %v", err)
			return err
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		select {
		case l.packets <- payload:
		case <-ctx.Done():
			return nil
		}
	}
}
