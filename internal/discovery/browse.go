package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/jmylchreest/reeflightd/internal/errors"
)

// MinBrowseTimeout is the shortest browse window; mDNS responders answer
// with a random delay.
const MinBrowseTimeout = time.Second

// Service is a reeflightd instance found on the network.
type Service struct {
	Instance string
	Host     string
	Addr     net.IP
	Port     int
	Info     Info
	Path     string
}

// URL returns the base URL of the service's HTTP API.
func (s Service) URL() string {
	return "http://" + net.JoinHostPort(s.Addr.String(), strconv.Itoa(s.Port))
}

// ParseTXT reads the TXT record entries published by an Announcer.
// Unknown keys are ignored.
func ParseTXT(txt []string) (Info, string) {
	var info Info
	var path string
	for _, entry := range txt {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		switch key {
		case "version":
			info.Version = value
		case "channels":
			info.Channels, _ = strconv.Atoi(value)
		case "auth":
			info.Auth, _ = strconv.ParseBool(value)
		case "path":
			path = value
		}
	}
	return info, path
}

// serviceFromEntry converts a browse result, rejecting entries without an
// IPv4 address or port.
func serviceFromEntry(entry *zeroconf.ServiceEntry) (Service, bool) {
	if entry == nil || len(entry.AddrIPv4) == 0 || entry.Port == 0 {
		return Service{}, false
	}
	info, path := ParseTXT(entry.Text)
	return Service{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Addr:     entry.AddrIPv4[0],
		Port:     entry.Port,
		Info:     info,
		Path:     path,
	}, true
}

// Browse looks for announced reeflightd instances for timeout, raised to
// MinBrowseTimeout, and returns them in the order they answered.
func Browse(ctx context.Context, logger *slog.Logger, timeout time.Duration) ([]Service, error) {
	if timeout < MinBrowseTimeout {
		logger.Warn("Browse timeout too short, using minimum", "timeout", timeout, "minimum", MinBrowseTimeout)
		timeout = MinBrowseTimeout
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, errors.Unavailablef("mdns resolver: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 10)
	if err := resolver.Browse(ctx, ServiceType, domain, entries); err != nil {
		return nil, fmt.Errorf("failed to start discovery: %w", err)
	}

	var found []Service
	seen := make(map[string]bool)
	// The resolver closes entries once ctx is done
	for entry := range entries {
		svc, ok := serviceFromEntry(entry)
		if !ok {
			logger.Debug("Skipping incomplete service entry", "instance", entry.Instance)
			continue
		}
		if seen[svc.Instance] {
			continue
		}
		seen[svc.Instance] = true
		logger.Debug("Found reeflightd", "instance", svc.Instance, "addr", svc.Addr, "port", svc.Port)
		found = append(found, svc)
	}
	return found, nil
}
