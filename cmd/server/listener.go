package server

import (
	"net"
	"os"
	"path/filepath"
	"runtime"

	"launchdeck/internal/logger"
)

type ListenAddr struct {
	Network string
	Address string
}

/**
 * Test if the system supports Unix socket network type
 * @returns {bool} Returns true if Unix socket is supported, false otherwise
 * @description
 * - Always true outside Windows
 * - On Windows a throwaway socket is created in the temp directory and removed again
 */
func IsUnixSocketSupported() bool {
	if runtime.GOOS != "windows" {
		return true
	}
	testSocketPath := filepath.Join(os.TempDir(), "launchdeck_probe.sock")
	os.Remove(testSocketPath)

	listener, err := net.Listen("unix", testSocketPath)
	if err != nil {
		return false
	}
	listener.Close()
	os.Remove(testSocketPath)
	return true
}

/**
 * Open one listener per address
 * @param {[]ListenAddr} addrs - Addresses to listen on
 * @returns {[]net.Listener} Listeners that could be opened
 * @returns {error} Last listen error, if any
 * @description
 * - A stale unix socket file is removed before listening
 * - Failing addresses are logged and skipped, the caller decides whether a partial set is enough
 */
func CreateListeners(addrs []ListenAddr) ([]net.Listener, error) {
	var listeners []net.Listener

	var lastErr error
	for _, addr := range addrs {
		if addr.Network == "unix" {
			if err := os.MkdirAll(filepath.Dir(addr.Address), 0755); err != nil {
				logger.Errorf("Failed to create socket directory: %v", err)
				lastErr = err
				continue
			}
			if err := os.Remove(addr.Address); err != nil && !os.IsNotExist(err) {
				logger.Errorf("Failed to remove existing socket file: %v", err)
				lastErr = err
				continue
			}
		}
		l, err := net.Listen(addr.Network, addr.Address)
		if err != nil {
			logger.Errorf("Failed to create listener on %s://%s: %v", addr.Network, addr.Address, err)
			lastErr = err
			continue
		}
		logger.Infof("Listening on %s://%s", addr.Network, addr.Address)
		listeners = append(listeners, l)
	}
	return listeners, lastErr
}
