package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Rooms: RoomsConfig{
			CodeLength:      3,
			MaxCodeAttempts: 32,
			GracePeriod:     time.Minute,
			EventBuffer:     64,
		},
		Websocket: WebsocketConfig{
			ReadLimit:    4096,
			WriteTimeout: 10 * time.Second,
			PongTimeout:  time.Minute,
			PingPeriod:   54 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 8080
rooms:
  code_length: 5
  grace_period: 15s
logging:
  level: debug
  format: console
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Rooms.CodeLength)
	assert.Equal(t, 15*time.Second, cfg.Rooms.GracePeriod)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset keys fall back to defaults.
	assert.Equal(t, 32, cfg.Rooms.MaxCodeAttempts)
	assert.Equal(t, 54*time.Second, cfg.Websocket.PingPeriod)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateGracePeriodPositive(t *testing.T) {
	cfg := validConfig()
	cfg.Rooms.GracePeriod = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateCodeLength(t *testing.T) {
	cfg := validConfig()
	cfg.Rooms.CodeLength = 0
	assert.Error(t, cfg.Validate())
}

func TestValidatePingBelowPong(t *testing.T) {
	cfg := validConfig()
	cfg.Websocket.PingPeriod = cfg.Websocket.PongTimeout
	assert.Error(t, cfg.Validate())
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Rooms.CodeLength = 0
	cfg.Logging.Level = "bogus"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "rooms.code_length")
	assert.Contains(t, err.Error(), "logging.level")
}

// Property-based tests

func TestPropertyValidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid port %d rejected: %v", port, err)
		}
	})
}

func TestPropertyInvalidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(65536, 100000),
		).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err == nil {
			t.Fatalf("invalid port %d accepted", port)
		}
	})
}

func TestPropertyPingPeriodMustStayBelowPongTimeout(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pong := time.Duration(rapid.IntRange(2, 3600).Draw(t, "pong_seconds")) * time.Second
		ping := time.Duration(rapid.IntRange(1, int(pong/time.Second)-1).Draw(t, "ping_seconds")) * time.Second
		cfg := validConfig()
		cfg.Websocket.PongTimeout = pong
		cfg.Websocket.PingPeriod = ping
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid ping=%s pong=%s rejected: %v", ping, pong, err)
		}
	})
}
