package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Chat provider names (llm.provider).
const (
	ChatAzure      = "azure"
	ChatOpenAI     = "openai"
	ChatLocalModel = "local-model"
)

// Storage provider names (cloud.provider).
const (
	StorageAWS   = "aws"
	StorageAzure = "azure"
	StorageGCP   = "gcp"
)

// Record provider names (database.provider).
const (
	RecordsRelational = "relational"
	RecordsDocument   = "document"
)

// Key store backends (auth.store).
const (
	KeyStoreMemory = "memory"
	KeyStoreRedis  = "redis"
)

// Dispatch log sinks (logging.sink).
const (
	SinkNone  = "none"
	SinkRedis = "redis"
	SinkFile  = "file"
)

// MaxSignTTL is the longest lifetime a signed URL may have. S3 rejects
// presigned URLs valid for longer.
const MaxSignTTL = 7 * 24 * time.Hour

// Config holds configuration for the gateway. It is loaded once at startup
// and never mutated afterwards.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	LLM      LLMConfig      `yaml:"llm" toml:"llm"`
	Cloud    CloudConfig    `yaml:"cloud" toml:"cloud"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	HTTPPort string `yaml:"http_port" toml:"http_port"`

	ReadTimeout     time.Duration `yaml:"-" toml:"-"`
	WriteTimeout    time.Duration `yaml:"-" toml:"-"`
	IdleTimeout     time.Duration `yaml:"-" toml:"-"`
	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	ReadTimeoutRaw     string `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeoutRaw    string `yaml:"write_timeout" toml:"write_timeout"`
	IdleTimeoutRaw     string `yaml:"idle_timeout" toml:"idle_timeout"`
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// AuthConfig holds the credential guard settings
type AuthConfig struct {
	AdminKey string `yaml:"admin_key" toml:"admin_key"`
	// APIKeys seeds the ordinary-key store: plaintext key -> owner identifier.
	APIKeys            map[string]string `yaml:"api_keys" toml:"api_keys"`
	Store              string            `yaml:"store" toml:"store"`
	RedisKey           string            `yaml:"redis_key" toml:"redis_key"`
	RateLimitPerMinute int               `yaml:"rate_limit_per_minute" toml:"rate_limit_per_minute"`
}

// LLMConfig selects the chat-completion provider
type LLMConfig struct {
	Provider   string `yaml:"provider" toml:"provider"`
	APIBase    string `yaml:"api_base" toml:"api_base"`
	APIKey     string `yaml:"api_key" toml:"api_key"`
	Deployment string `yaml:"deployment" toml:"deployment"`
	Model      string `yaml:"model" toml:"model"`
	APIVersion string `yaml:"api_version" toml:"api_version"`

	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// CloudConfig selects the blob-storage provider
type CloudConfig struct {
	Provider string `yaml:"provider" toml:"provider"`

	AWSAccessKeyID     string `yaml:"aws_access_key_id" toml:"aws_access_key_id"`
	AWSSecretAccessKey string `yaml:"aws_secret_access_key" toml:"aws_secret_access_key"`
	AWSRegion          string `yaml:"aws_region_name" toml:"aws_region_name"`
	AWSEndpoint        string `yaml:"aws_endpoint" toml:"aws_endpoint"` // S3-compatible stores, path-style

	AzureConnectionString string `yaml:"azure_connection_string" toml:"azure_connection_string"`

	GCPCredentialsPath string `yaml:"gcp_credentials_path" toml:"gcp_credentials_path"`
}

// DatabaseConfig selects the record-lookup provider
type DatabaseConfig struct {
	Provider   string `yaml:"provider" toml:"provider"`
	URL        string `yaml:"url" toml:"url"`
	Driver     string `yaml:"driver" toml:"driver"` // relational only: postgres or sqlite
	Name       string `yaml:"name" toml:"name"`     // document only: database name
	Table      string `yaml:"table" toml:"table"`
	Collection string `yaml:"collection" toml:"collection"`
	KeyField   string `yaml:"key_field" toml:"key_field"`

	MaxOpenConns int `yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns" toml:"max_idle_conns"`

	CacheTTL    time.Duration `yaml:"-" toml:"-"`
	CacheTTLRaw string        `yaml:"cache_ttl" toml:"cache_ttl"`
}

// StorageConfig holds request-side rules for the storage domain
type StorageConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions" toml:"allowed_extensions"`
	DefaultContainer  string   `yaml:"default_container" toml:"default_container"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes" toml:"max_upload_bytes"`

	DefaultTTL    time.Duration `yaml:"-" toml:"-"`
	MaxTTL        time.Duration `yaml:"-" toml:"-"`
	DefaultTTLRaw string        `yaml:"default_ttl" toml:"default_ttl"`
	MaxTTLRaw     string        `yaml:"max_ttl" toml:"max_ttl"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string `yaml:"address" toml:"address"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`

	// Sink receives one record per dispatch: none, redis or file.
	Sink         string `yaml:"sink" toml:"sink"`
	SinkKey      string `yaml:"sink_key" toml:"sink_key"`
	SinkMaxLen   int64  `yaml:"sink_max_len" toml:"sink_max_len"`
	FileTemplate string `yaml:"file_template" toml:"file_template"`
	FileMaxSize  int64  `yaml:"file_max_size" toml:"file_max_size"`
	FileMaxFiles int    `yaml:"file_max_files" toml:"file_max_files"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// Format identifies the syntax of a configuration document.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// FormatFor picks the document format from the file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads the configuration document at path. Loading is all-or-nothing:
// on any failure the returned Config is nil.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data, FormatFor(path))
}

// Parse decodes, defaults and validates a configuration document.
func Parse(data []byte, format Format) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	cfg.normalize()
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the environment value (empty when unset).
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func (c *Config) normalize() {
	c.LLM.Provider = normalizeName(c.LLM.Provider)
	c.Cloud.Provider = normalizeName(c.Cloud.Provider)
	c.Database.Provider = normalizeName(c.Database.Provider)
	c.Database.Driver = normalizeName(c.Database.Driver)
	c.Auth.Store = normalizeName(c.Auth.Store)
	c.Logging.Sink = normalizeName(c.Logging.Sink)

	exts := make([]string, 0, len(c.Storage.AllowedExtensions))
	for _, ext := range c.Storage.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Storage.AllowedExtensions = exts
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// applyEnv fills secrets the document left empty, and lets the process
// environment override the listen port.
func (c *Config) applyEnv() {
	c.Server.HTTPPort = getEnvString("HTTP_PORT", c.Server.HTTPPort)
	c.Redis.Address = getEnvString("REDIS_ADDRESS", c.Redis.Address)
	c.Redis.Password = getEnvString("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	if c.Auth.AdminKey == "" {
		c.Auth.AdminKey = os.Getenv("ADMIN_API_KEY")
	}

	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case ChatOpenAI:
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case ChatAzure:
			c.LLM.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPPort == "" {
		c.Server.HTTPPort = "8080"
	}
	defaultString(&c.Server.ReadTimeoutRaw, "30s")
	defaultString(&c.Server.WriteTimeoutRaw, "30s")
	defaultString(&c.Server.IdleTimeoutRaw, "120s")
	defaultString(&c.Server.ShutdownTimeoutRaw, "30s")

	defaultString(&c.Auth.Store, KeyStoreMemory)
	defaultString(&c.Auth.RedisKey, "nf_gateway:api_keys")

	defaultString(&c.LLM.APIVersion, "2024-02-01")
	defaultString(&c.LLM.TimeoutRaw, "60s")

	defaultString(&c.Cloud.AWSRegion, "us-east-1")

	defaultString(&c.Database.Driver, "postgres")
	defaultString(&c.Database.Table, "nf_records")
	defaultString(&c.Database.Collection, "nf_records")
	defaultString(&c.Database.KeyField, "chave")
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}

	if len(c.Storage.AllowedExtensions) == 0 {
		c.Storage.AllowedExtensions = []string{".csv", ".xlsx"}
	}
	defaultString(&c.Storage.DefaultContainer, "uploads")
	if c.Storage.MaxUploadBytes == 0 {
		c.Storage.MaxUploadBytes = 32 << 20
	}
	defaultString(&c.Storage.DefaultTTLRaw, "1h")
	defaultString(&c.Storage.MaxTTLRaw, "168h")

	defaultString(&c.Logging.Level, "info")
	defaultString(&c.Logging.Format, "text")
	defaultString(&c.Logging.Sink, SinkNone)
	defaultString(&c.Logging.SinkKey, "nf_gateway:dispatch_log")
	if c.Logging.SinkMaxLen == 0 {
		c.Logging.SinkMaxLen = 10000
	}
	defaultString(&c.Logging.FileTemplate, "/var/log/nf-gateway/dispatch-%s.jsonl")
	if c.Logging.FileMaxSize == 0 {
		c.Logging.FileMaxSize = 10_485_760 // 10 MB
	}
	if c.Logging.FileMaxFiles == 0 {
		c.Logging.FileMaxFiles = 5
	}

	defaultString(&c.Metrics.Path, "/metrics")
}

func defaultString(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (c *Config) parseDurations() error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeoutRaw, &c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeoutRaw, &c.Server.WriteTimeout},
		{"server.idle_timeout", c.Server.IdleTimeoutRaw, &c.Server.IdleTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeoutRaw, &c.Server.ShutdownTimeout},
		{"llm.timeout", c.LLM.TimeoutRaw, &c.LLM.Timeout},
		{"database.cache_ttl", c.Database.CacheTTLRaw, &c.Database.CacheTTL},
		{"storage.default_ttl", c.Storage.DefaultTTLRaw, &c.Storage.DefaultTTL},
		{"storage.max_ttl", c.Storage.MaxTTLRaw, &c.Storage.MaxTTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}
