package server

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/reeflightd/internal/config"
	"github.com/jmylchreest/reeflightd/internal/http/handlers"
	"github.com/jmylchreest/reeflightd/internal/hw"
	"github.com/jmylchreest/reeflightd/internal/storage"
	"github.com/jmylchreest/reeflightd/pkg/led"
	"github.com/jmylchreest/reeflightd/pkg/thermal"
)

var testVersion = handlers.VersionInfo{Version: "test", Commit: "abc123", BuildDate: "2026-01-01"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// setupTestConfig loads defaults into a short temp dir. Unix socket paths
// are length limited, so t.TempDir is avoided.
func setupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "reeflight-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	cfg, err := config.Load("config", filepath.Join(tempDir, "config.yaml"), nil)
	require.NoError(t, err)

	cfg.Server.UnixSocket = filepath.Join(tempDir, "reeflightd.sock")
	cfg.API.ListenAddress = ""
	cfg.Discovery.Enabled = false
	cfg.Storage.Dir = filepath.Join(tempDir, "state")
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, store storage.Store) *Server {
	t.Helper()
	logger := testLogger()
	s, err := New(logger, cfg, hw.New(logger, cfg), store, testVersion)
	require.NoError(t, err)
	return s
}

func TestNewServer(t *testing.T) {
	cfg := setupTestConfig(t)
	s := newTestServer(t, cfg, storage.NewMemoryStore())

	assert.Equal(t, cfg.Server.UnixSocket, s.socketPath)
	assert.Equal(t, cfg.LED.Channels, s.LED().ChannelCount())
	assert.Equal(t, led.DefaultSettings(cfg.LED.Channels), s.LED().Settings())
	assert.Equal(t, thermal.DefaultSettings(), s.Thermal().Settings())
	assert.True(t, s.Rail().IsOn())
	assert.Len(t, s.tasks, 2)
	assert.NotNil(t, s.Events())
}

func TestNewServer_RestoresStoredSettings(t *testing.T) {
	cfg := setupTestConfig(t)
	store := storage.NewMemoryStore()

	ledSettings := led.DefaultSettings(cfg.LED.Channels)
	ledSettings.ManualColor = led.Color{10, 20, 30, 40}
	ledSettings.NightlightDuration = 600
	require.NoError(t, store.Save(led.Namespace, ledSettings))

	thermalSettings := thermal.DefaultSettings()
	thermalSettings.KeepTemp = 50
	require.NoError(t, store.Save(thermal.Namespace, thermalSettings))

	s := newTestServer(t, cfg, store)
	assert.Equal(t, led.Color{10, 20, 30, 40}, s.LED().Settings().ManualColor)
	assert.Equal(t, uint16(600), s.LED().Settings().NightlightDuration)
	assert.Equal(t, uint8(50), s.Thermal().Settings().KeepTemp)
}

func TestNewServer_InvalidStoredSettingsFallBack(t *testing.T) {
	cfg := setupTestConfig(t)
	store := storage.NewMemoryStore()

	thermalSettings := thermal.DefaultSettings()
	thermalSettings.KeepTemp = 90
	thermalSettings.OverheatedTemp = 60
	require.NoError(t, store.Save(thermal.Namespace, thermalSettings))

	s := newTestServer(t, cfg, store)
	assert.Equal(t, thermal.DefaultSettings(), s.Thermal().Settings())
}

func TestServerStartStop(t *testing.T) {
	cfg := setupTestConfig(t)
	s := newTestServer(t, cfg, storage.NewMemoryStore())

	require.NoError(t, s.Start())
	_, err := os.Stat(cfg.Server.UnixSocket)
	require.NoError(t, err, "socket file should exist while running")
	assert.Nil(t, s.HTTPAddr(), "HTTP API is disabled")

	s.Stop()
	_, err = os.Stat(cfg.Server.UnixSocket)
	assert.True(t, os.IsNotExist(err), "socket file should be removed on stop")
}

func TestServerStart_ReplacesStaleSocket(t *testing.T) {
	cfg := setupTestConfig(t)
	require.NoError(t, os.WriteFile(cfg.Server.UnixSocket, []byte("stale"), 0600))

	s := newTestServer(t, cfg, storage.NewMemoryStore())
	require.NoError(t, s.Start())
	defer s.Stop()

	resp := socketRequest(t, cfg.Server.UnixSocket, map[string]any{"action": "ping"})
	assert.Equal(t, "pong", resp["message"])
}

func TestServerStop_FlushesSettings(t *testing.T) {
	cfg := setupTestConfig(t)
	store := storage.NewMemoryStore()
	s := newTestServer(t, cfg, store)
	require.NoError(t, s.Start())

	require.NoError(t, s.LED().SetColor(led.Color{5, 6, 7, 8}))
	require.NoError(t, s.Thermal().SetKeepTemp(40))
	s.Stop()

	restarted := newTestServer(t, cfg, store)
	assert.Equal(t, led.Color{5, 6, 7, 8}, restarted.LED().Settings().ManualColor)
	assert.Equal(t, uint8(40), restarted.Thermal().Settings().KeepTemp)
}

func TestServer_LEDFollowsPowerRail(t *testing.T) {
	cfg := setupTestConfig(t)
	s := newTestServer(t, cfg, storage.NewMemoryStore())
	s.LED().Start(time.Now())

	s.Rail().PowerOff()
	assert.True(t, s.LED().IsBlank())

	s.Rail().PowerOn()
	assert.False(t, s.LED().IsBlank())
}

func TestServer_OverheatShutsDownRail(t *testing.T) {
	cfg := setupTestConfig(t)
	board := hw.New(testLogger(), cfg)
	require.NotNil(t, board.Sim)

	s, err := New(testLogger(), cfg, board, storage.NewMemoryStore(), testVersion)
	require.NoError(t, err)
	now := time.Now()
	s.LED().Start(now)
	s.Thermal().Start(now)

	board.Sim.SetTemp(80)
	for i := range thermal.OverheatCountMax + 1 {
		s.Thermal().Tick(now.Add(time.Duration(i) * cfg.Thermal.Period))
	}

	state := s.Rail().State()
	assert.False(t, state.On)
	assert.Equal(t, thermal.ShutdownReasonOverheated, state.ShutdownReason)
	assert.Equal(t, 1, state.Shutdowns)
	assert.True(t, s.LED().IsBlank())
	assert.Equal(t, uint8(thermal.OutputMax), board.Sim.Fan().Power())
}

func TestServer_Snapshot(t *testing.T) {
	cfg := setupTestConfig(t)
	s := newTestServer(t, cfg, storage.NewMemoryStore())
	s.LED().Start(time.Now())

	snap := s.snapshot()
	assert.Equal(t, "NORMAL", snap.LED.Mode)
	assert.Len(t, snap.LED.Color, cfg.LED.Channels)
	assert.Equal(t, 45, snap.Thermal.KeepTemp)
	assert.True(t, snap.Power.On)
}
