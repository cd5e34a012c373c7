package main

import (
	"net"
	"strconv"

	"github.com/rs/zerolog/log"
)

// splitHostPort parses a "host:port" listen address, falling back to the
// engine's default metrics/health port when the port segment is missing
// or malformed.
func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		log.Warn().Str("addr", addr).Err(err).Msg("invalid listen address, using default port")
		return addr, 9090
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Warn().Str("addr", addr).Err(err).Msg("invalid port, using default")
		return host, 9090
	}
	return host, port
}
