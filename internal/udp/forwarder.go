// Package udp forwards accepted NMEA sentences to a UDP listener, the way
// chart plotters and OpenCPN expect to receive AIS.
package udp

import (
	"fmt"
	"net"
	"sync/atomic"
)

type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)

type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

// Forwarder sends one datagram per sentence, terminated by CRLF.
type Forwarder struct {
	dest string
	conn udpConn
	sent atomic.Uint64
}

func NewForwarder(dest string) (*Forwarder, error) {
	return newForwarder(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
}

func newForwarder(dest string, resolve resolveFunc, dial dialFunc) (*Forwarder, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}
	return &Forwarder{dest: dest, conn: conn}, nil
}

func (f *Forwarder) Dest() string { return f.dest }

// Sent is the number of sentences written so far.
func (f *Forwarder) Sent() uint64 { return f.sent.Load() }

func (f *Forwarder) Send(sentence string) error {
	if sentence == "" {
		return nil
	}
	if _, err := f.conn.Write([]byte(sentence + "\r\n")); err != nil {
		return err
	}
	f.sent.Add(1)
	return nil
}

func (f *Forwarder) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
