// Package discovery announces the HTTP API on the local network over
// mDNS/DNS-SD.
package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/jmylchreest/reeflightd/internal/errors"
)

const (
	// ServiceType is the DNS-SD service type of the API.
	ServiceType = "_reeflight._tcp"
	domain      = "local."
)

// Info is published in the TXT record.
type Info struct {
	Version  string
	Channels int
	Auth     bool
}

// TXT returns the TXT record entries for i.
func (i Info) TXT() []string {
	return []string{
		"version=" + i.Version,
		"channels=" + strconv.Itoa(i.Channels),
		"auth=" + strconv.FormatBool(i.Auth),
		"path=/api/v1",
	}
}

// Announcer registers the service and keeps it registered until Stop.
type Announcer struct {
	logger *slog.Logger

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAnnouncer creates an idle announcer.
func NewAnnouncer(logger *slog.Logger) *Announcer {
	return &Announcer{logger: logger}
}

// Start announces instance on the port of listenAddress. An empty
// instance uses the host name.
func (a *Announcer) Start(instance, listenAddress string, info Info) error {
	port, err := Port(listenAddress)
	if err != nil {
		return err
	}
	if instance == "" {
		instance = DefaultInstance()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return errors.InvalidInputf("announcer already started")
	}

	server, err := zeroconf.Register(instance, ServiceType, domain, port, info.TXT(), nil)
	if err != nil {
		return errors.Unavailablef("mdns register: %v", err)
	}
	a.server = server
	a.logger.Info("Announcing API via mDNS", "instance", instance, "service", ServiceType, "port", port)
	return nil
}

// Stop withdraws the announcement.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	a.logger.Info("mDNS announcement stopped")
}

// Port extracts the TCP port from a listen address such as ":9180" or
// "0.0.0.0:9180".
func Port(listenAddress string) (int, error) {
	_, p, err := net.SplitHostPort(listenAddress)
	if err != nil {
		return 0, errors.InvalidInputf("listen address %q: %v", listenAddress, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port < 1 || port > 65535 {
		return 0, errors.InvalidInputf("listen address %q: invalid port", listenAddress)
	}
	return port, nil
}

// DefaultInstance is the instance name used when none is configured.
func DefaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("reeflight on %s", host)
}
