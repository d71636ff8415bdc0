package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
	WebRoot   string        `env:"WEB_ROOT,   default=web/dist"`

	// RDPEncryptionKey is the hex AES-256 key for stored remote-desktop passwords.
	RDPEncryptionKey string `env:"RDP_ENCRYPTION_KEY, required"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Launch   LaunchConfig
	Bundle   BundleConfig
	Services ServicesConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=launchpad"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type LaunchConfig struct {
	ConsoleToolID  string   `env:"CONSOLE_TOOL_ID, default=trakaweb"`
	RDPToolID      string   `env:"RDP_TOOL_ID,     default=my-vm"`
	ExecutableExts []string `env:"EXECUTABLE_EXTS, default=.exe,.bat,.cmd"`
}

type BundleConfig struct {
	BackendEntry string        `env:"BUNDLE_BACKEND_ENTRY,  default=server.py"`
	BackendCmd   string        `env:"BUNDLE_BACKEND_CMD,    default=python"`
	FrontendDir  string        `env:"BUNDLE_FRONTEND_DIR,   default=frontend"`
	BackendAddr  string        `env:"BUNDLE_BACKEND_ADDR,   default=127.0.0.1:8000"`
	FrontendAddr string        `env:"BUNDLE_FRONTEND_ADDR,  default=127.0.0.1:5173"`
	FrontendURL  string        `env:"BUNDLE_FRONTEND_URL,   default=http://localhost:5173"`
	ReadyTimeout time.Duration `env:"BUNDLE_READY_TIMEOUT,  default=60s"`
}

type ServicesConfig struct {
	CatalogPath   string        `env:"SERVICES_CONFIG,        default=services.config.yaml"`
	ShellPath     string        `env:"SHELL_PATH,             default=powershell.exe"`
	StatusTimeout time.Duration `env:"SERVICE_STATUS_TIMEOUT, default=20s"`
	ActionTimeout time.Duration `env:"SERVICE_ACTION_TIMEOUT, default=30s"`
	PollSchedule  string        `env:"SERVICE_POLL_SCHEDULE,  default=@every 30s"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for i, ext := range cfg.Launch.ExecutableExts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Launch.ExecutableExts[i] = ext
	}
	return &cfg, nil
}

// IsDevelopment enables human-friendly logs.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}
