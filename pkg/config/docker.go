package config

import (
	"os"
	"strings"
	"sync"
)

const (
	dockerMarker      = "/.dockerenv"
	dockerHostGateway = "host.docker.internal"
)

var (
	inDockerOnce   sync.Once
	inDockerResult bool
)

// IsRunningInDocker reports whether the process runs inside a Docker
// container. The result is cached after the first call.
func IsRunningInDocker() bool {
	inDockerOnce.Do(func() {
		_, err := os.Stat(dockerMarker)
		inDockerResult = err == nil
	})
	return inDockerResult
}

// HostAddress maps loopback host names to the Docker host gateway when
// running in a container, so an instance installed on the machine that runs
// the container stays reachable as "localhost" or ".".
func HostAddress(host string) string {
	return hostAddress(host, IsRunningInDocker())
}

func hostAddress(host string, inDocker bool) string {
	if !inDocker {
		return host
	}
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return dockerHostGateway
	}
	return host
}
