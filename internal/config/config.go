package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1780
	defaultMaxConnections = 2000
	defaultBackend        = BackendRedis
	defaultRedisAddr      = "localhost:6379"
	defaultMongoURI       = "mongodb://localhost:27017"
	defaultMongoDB        = "wolfpath"
	defaultMongoTimeout   = 10

	defaultSalary           = "2500.00"
	defaultWinningScore     = "1000000.00"
	defaultBoardSize        = 30
	defaultInterestRate     = "0.05"
	defaultAssetMultiplier  = "10"
	defaultLeaderboardLimit = 30

	defaultLogLevel = "info"
)

// Storage backends
const (
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig is the HTTP and WebSocket listener.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// StorageConfig selects the player/room store.
type StorageConfig struct {
	Backend string `yaml:"backend"` // redis | mongo
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MongoConfig configures the MongoDB store.
type MongoConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	ConnectTimeout int    `yaml:"connect_timeout"` // seconds
}

// ConnectTimeoutDuration returns the connect timeout.
func (c *MongoConfig) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

// GameConfig holds the defaults applied to rooms that do not set their own rules.
type GameConfig struct {
	Salary           string `yaml:"salary"`
	WinningScore     string `yaml:"winning_score"`
	BoardSize        int    `yaml:"board_size"`
	InterestRate     string `yaml:"interest_rate"`
	AssetMultiplier  string `yaml:"asset_multiplier"`
	LeaderboardLimit int    `yaml:"leaderboard_limit"`
	BoardFile        string `yaml:"board_file"` // optional YAML tile layout
}

// SalaryDecimal returns the default salary.
func (c *GameConfig) SalaryDecimal() decimal.Decimal {
	return mustDecimal(c.Salary, defaultSalary)
}

// WinningScoreDecimal returns the default winning net worth.
func (c *GameConfig) WinningScoreDecimal() decimal.Decimal {
	return mustDecimal(c.WinningScore, defaultWinningScore)
}

// InterestRateDecimal returns the payday interest rate on toxic debt.
func (c *GameConfig) InterestRateDecimal() decimal.Decimal {
	return mustDecimal(c.InterestRate, defaultInterestRate)
}

// AssetMultiplierDecimal returns the passive income multiplier used for assets value.
func (c *GameConfig) AssetMultiplierDecimal() decimal.Decimal {
	return mustDecimal(c.AssetMultiplier, defaultAssetMultiplier)
}

// SecurityConfig groups the abuse limits.
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
	ChatLimit      ChatLimitConfig    `yaml:"chat_limit"`

	// Addresses or CIDR prefixes. A non-empty whitelist admits nobody else;
	// the blacklist wins over it.
	Whitelist []string `yaml:"whitelist"`
	Blacklist []string `yaml:"blacklist"`
}

// RateLimitConfig limits HTTP and upgrade requests per IP.
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // seconds
}

// BanDurationTime returns the ban length.
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig caps inbound frames per connection.
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// ChatLimitConfig limits chat per connection.
type ChatLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	Cooldown     int `yaml:"cooldown"` // seconds
}

// CooldownDuration returns the chat cooldown.
func (c *ChatLimitConfig) CooldownDuration() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty means stdout
}

// Load reads a YAML file over the defaults and applies env overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = defaultMaxConnections
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaultBackend
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = defaultMongoURI
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = defaultMongoDB
	}
	if cfg.Mongo.ConnectTimeout == 0 {
		cfg.Mongo.ConnectTimeout = defaultMongoTimeout
	}

	if cfg.Game.Salary == "" {
		cfg.Game.Salary = defaultSalary
	}
	if cfg.Game.WinningScore == "" {
		cfg.Game.WinningScore = defaultWinningScore
	}
	if cfg.Game.BoardSize == 0 {
		cfg.Game.BoardSize = defaultBoardSize
	}
	if cfg.Game.InterestRate == "" {
		cfg.Game.InterestRate = defaultInterestRate
	}
	if cfg.Game.AssetMultiplier == "" {
		cfg.Game.AssetMultiplier = defaultAssetMultiplier
	}
	if cfg.Game.LeaderboardLimit == 0 {
		cfg.Game.LeaderboardLimit = defaultLeaderboardLimit
	}

	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}
	if cfg.Security.RateLimit.MaxPerSecond == 0 {
		cfg.Security.RateLimit.MaxPerSecond = 10
	}
	if cfg.Security.RateLimit.MaxPerMinute == 0 {
		cfg.Security.RateLimit.MaxPerMinute = 60
	}
	if cfg.Security.RateLimit.BanDuration == 0 {
		cfg.Security.RateLimit.BanDuration = 60
	}
	if cfg.Security.MessageLimit.MaxPerSecond == 0 {
		cfg.Security.MessageLimit.MaxPerSecond = 20
	}
	if cfg.Security.ChatLimit.MaxPerSecond == 0 {
		cfg.Security.ChatLimit.MaxPerSecond = 2
	}
	if cfg.Security.ChatLimit.MaxPerMinute == 0 {
		cfg.Security.ChatLimit.MaxPerMinute = 30
	}
	if cfg.Security.ChatLimit.Cooldown == 0 {
		cfg.Security.ChatLimit.Cooldown = 5
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

// applyEnv lets environment variables override the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v, ok := envInt("SERVER_PORT"); ok {
		cfg.Server.Port = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v, ok := envInt("REDIS_DB"); ok {
		cfg.Redis.DB = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		cfg.Mongo.Database = v
	}
	if v := os.Getenv("GAME_SALARY"); v != "" {
		cfg.Game.Salary = v
	}
	if v := os.Getenv("GAME_WINNING_SCORE"); v != "" {
		cfg.Game.WinningScore = v
	}
	if v, ok := envInt("GAME_BOARD_SIZE"); ok {
		cfg.Game.BoardSize = v
	}
	if v := os.Getenv("GAME_BOARD_FILE"); v != "" {
		cfg.Game.BoardFile = v
	}
	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		cfg.Security.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SECURITY_WHITELIST"); v != "" {
		cfg.Security.Whitelist = splitList(v)
	}
	if v := os.Getenv("SECURITY_BLACKLIST"); v != "" {
		cfg.Security.Blacklist = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

// splitList splits a comma separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func mustDecimal(value, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.RequireFromString(fallback)
	}
	return d
}
