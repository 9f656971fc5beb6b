package discovery

import (
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/jmylchreest/reeflightd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort(t *testing.T) {
	tests := []struct {
		addr    string
		want    int
		wantErr bool
	}{
		{":9180", 9180, false},
		{"0.0.0.0:80", 80, false},
		{"[::1]:8443", 8443, false},
		{"9180", 0, true},
		{":0", 0, true},
		{":http", 0, true},
		{":70000", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got, err := Port(tt.addr)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInfoTXT(t *testing.T) {
	txt := Info{Version: "1.2.3", Channels: 4, Auth: true}.TXT()
	assert.Equal(t, []string{"version=1.2.3", "channels=4", "auth=true", "path=/api/v1"}, txt)
}

func TestDefaultInstance(t *testing.T) {
	assert.True(t, strings.HasPrefix(DefaultInstance(), "reeflight on "))
}

func TestStartRejectsBadAddress(t *testing.T) {
	a := NewAnnouncer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := a.Start("", "nope", Info{})
	assert.True(t, errors.IsInvalidInput(err))
	a.Stop()
}

func TestParseTXT(t *testing.T) {
	info := Info{Version: "0.4.0", Channels: 6, Auth: true}
	got, path := ParseTXT(append(info.TXT(), "garbage", "extra=1"))
	assert.Equal(t, info, got)
	assert.Equal(t, "/api/v1", path)

	got, path = ParseTXT([]string{"channels=many"})
	assert.Equal(t, Info{}, got)
	assert.Empty(t, path)
}

func TestServiceFromEntry(t *testing.T) {
	complete := zeroconf.NewServiceEntry("reeflight on tank", ServiceType, domain)
	complete.HostName = "tank.local."
	complete.Port = 9180
	complete.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	complete.Text = Info{Version: "1.0.0", Channels: 4}.TXT()

	noAddr := zeroconf.NewServiceEntry("no addr", ServiceType, domain)
	noAddr.Port = 9180

	noPort := zeroconf.NewServiceEntry("no port", ServiceType, domain)
	noPort.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.21")}

	tests := []struct {
		name  string
		entry *zeroconf.ServiceEntry
		ok    bool
	}{
		{"complete", complete, true},
		{"nil", nil, false},
		{"no address", noAddr, false},
		{"no port", noPort, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ok := serviceFromEntry(tt.entry)
			assert.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, "reeflight on tank", svc.Instance)
			assert.Equal(t, "tank.local.", svc.Host)
			assert.Equal(t, 4, svc.Info.Channels)
			assert.Equal(t, "/api/v1", svc.Path)
			assert.Equal(t, "http://192.168.1.20:9180", svc.URL())
		})
	}
}
