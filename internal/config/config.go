package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

type Config struct {
	Env        string `yaml:"env"`
	BaseURL    string `yaml:"base_url"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	RateLimit  `yaml:"rate_limit"`
	Redis      `yaml:"redis"`
	Log        `yaml:"log"`
}

type HTTPServer struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	CertFile        string        `yaml:"cert_file"`
	KeyFile         string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:            8080,
	ReadTimeout:     5 * time.Second,
	WriteTimeout:    10 * time.Second,
	IdleTimeout:     time.Minute,
	ShutdownTimeout: 10 * time.Second,
	MaxHeaderBytes:  1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Postgres describes the database connection. URL, when set, takes
// precedence over the individual parts.
type Postgres struct {
	URL             string        `yaml:"url"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	User:            "shrimpli",
	Password:        "shrimpli",
	Host:            "localhost",
	Port:            5432,
	DB:              "shrimpli",
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    10,
}

func (p *Postgres) DSN() string {
	if p.URL != "" {
		return p.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// RateLimit bounds POST /api/shorten per client IP to Requests per Window.
type RateLimit struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	Burst    int           `yaml:"burst"`
}

var defaultRateLimit = RateLimit{
	Enabled:  false,
	Requests: 60,
	Window:   time.Minute,
	Burst:    10,
}

// Redis is optional; an empty Addr keeps rate limiting in memory.
type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

var defaultRedis = Redis{
	KeyPrefix: "shrimpli:ratelimit",
}

type Log struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

var defaultLog = Log{
	Level:      "info",
	MaxSize:    10,
	MaxBackups: 5,
	MaxAge:     30,
}

const defaultBaseURL = "http://localhost:8080"

// Load builds the configuration from defaults, the optional YAML file at path,
// a local .env file and finally the process environment.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: failed to load .env file: %w", op, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("DATABASE_URL"); ok && v != "" {
		cfg.Postgres.URL = v
	}

	if v, ok := os.LookupEnv("BASE_URL"); ok && v != "" {
		cfg.BaseURL = v
	}

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.HTTPServer.Port = port
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = defaultBaseURL
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.RateLimit = defaultRateLimit
	cfg.Redis = defaultRedis
	cfg.Log = defaultLog
}
