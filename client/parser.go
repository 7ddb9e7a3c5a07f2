package client

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTarget reads user@host[:port]. Missing parts fall back to the defaults.
func ParseTarget(line, defaultUser string, defaultPort int) (Target, error) {
	line = strings.TrimSpace(line)
	user := defaultUser
	port := defaultPort
	host := line

	if strings.Contains(line, "@") {
		parts := strings.SplitN(line, "@", 2)
		user = parts[0]
		host = parts[1]
	}

	if strings.Contains(host, ":") {
		parts := strings.SplitN(host, ":", 2)
		host = parts[0]
		p, err := strconv.Atoi(parts[1])
		if err != nil {
			return Target{}, fmt.Errorf("invalid port in target: %s", line)
		}
		port = p
	}

	if host == "" {
		return Target{}, fmt.Errorf("missing host in target: %q", line)
	}
	if port < 1 || port > 65535 {
		return Target{}, fmt.Errorf("port must be between 1 and 65535 (got %d)", port)
	}

	return Target{
		User: user,
		Host: host,
		Port: port,
	}, nil
}
