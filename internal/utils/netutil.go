package utils

import (
	"net"
	"strconv"
	"time"
)

// DefaultProbeTimeout bounds every loopback connect probe.
const DefaultProbeTimeout = time.Second

// CheckPortConnectable reports whether something accepts TCP connections on 127.0.0.1:port.
func CheckPortConnectable(port int, timeout time.Duration) bool {
	if port <= 0 {
		return false
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// CheckPortListenable reports whether port can be bound on the loopback interface.
func CheckPortListenable(port int) bool {
	l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	l.Close()
	return true
}
