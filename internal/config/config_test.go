package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 5000

storage:
  backend: mongo

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

mongo:
  uri: "mongodb://mongo:27017"
  database: "classroom"

game:
  salary: "3000.50"
  winning_score: "250000"
  board_size: 20
  leaderboard_limit: 10
  board_file: "board.yaml"

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  chat_limit:
    max_per_second: 3
    cooldown: 10
  whitelist: ["10.0.0.0/8"]
  blacklist: ["10.0.0.66"]

log:
  level: debug
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5000, cfg.Server.MaxConnections)
	assert.Equal(t, BackendMongo, cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "mongodb://mongo:27017", cfg.Mongo.URI)
	assert.Equal(t, "classroom", cfg.Mongo.Database)
	assert.True(t, decimal.RequireFromString("3000.50").Equal(cfg.Game.SalaryDecimal()))
	assert.True(t, decimal.NewFromInt(250000).Equal(cfg.Game.WinningScoreDecimal()))
	assert.Equal(t, 20, cfg.Game.BoardSize)
	assert.Equal(t, 10, cfg.Game.LeaderboardLimit)
	assert.Equal(t, "board.yaml", cfg.Game.BoardFile)
	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.Equal(t, 3, cfg.Security.ChatLimit.MaxPerSecond)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Security.Whitelist)
	assert.Equal(t, []string{"10.0.0.66"}, cfg.Security.Blacklist)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, defaultBoardSize, cfg.Game.BoardSize)
	assert.Equal(t, defaultLeaderboardLimit, cfg.Game.LeaderboardLimit)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "2500", cfg.Game.SalaryDecimal().String())
	assert.Equal(t, "1000000", cfg.Game.WinningScoreDecimal().String())
	assert.Equal(t, "0.05", cfg.Game.InterestRateDecimal().String())
	assert.Equal(t, "10", cfg.Game.AssetMultiplierDecimal().String())
}

func TestGameConfig_InvalidDecimalFallsBack(t *testing.T) {
	t.Parallel()

	cfg := &GameConfig{Salary: "lots", InterestRate: "5%"}
	assert.Equal(t, "2500", cfg.SalaryDecimal().String())
	assert.Equal(t, "0.05", cfg.InterestRateDecimal().String())
}

func TestDurationMethods(t *testing.T) {
	t.Parallel()

	rl := &RateLimitConfig{BanDuration: 120}
	assert.Equal(t, 120*time.Second, rl.BanDurationTime())

	cl := &ChatLimitConfig{Cooldown: 10}
	assert.Equal(t, 10*time.Second, cl.CooldownDuration())

	mc := &MongoConfig{ConnectTimeout: 3}
	assert.Equal(t, 3*time.Second, mc.ConnectTimeoutDuration())
}

func TestLoadFromEnv(t *testing.T) {
	// Not parallel because it modifies environment variables

	t.Setenv("SERVER_HOST", "env-host")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("STORAGE_BACKEND", "MONGO")
	t.Setenv("GAME_BOARD_SIZE", "20")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.com, http://b.com")
	t.Setenv("SECURITY_BLACKLIST", "203.0.113.7, ,198.51.100.0/24")

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, BackendMongo, cfg.Storage.Backend)
	assert.Equal(t, 20, cfg.Game.BoardSize)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, []string{"203.0.113.7", "198.51.100.0/24"}, cfg.Security.Blacklist)
	assert.Empty(t, cfg.Security.Whitelist)
}

func TestDefault(t *testing.T) {
	// Not parallel: reads environment variables

	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultLogLevel, cfg.Log.Level)
}
