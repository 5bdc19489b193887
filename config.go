package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeBenchmark = "benchmark"
	ModeCheck     = "check"

	ProvisionAuto      = "auto"
	ProvisionSynthetic = "synthetic"
	ProvisionCsv       = "csv"
	ProvisionNone      = "none"
)

type Config struct {
	Mode   string `yaml:"mode"`
	Engine string `yaml:"engine"`

	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Database      string `yaml:"database"`
	ContainerName string `yaml:"container_name"`
	SslMode       string `yaml:"sslmode"`
	// Dsn replaces the connection string built from the fields above.
	Dsn    string `yaml:"dsn"`
	DbPath string `yaml:"db_path"`

	DataDir   string `yaml:"data_dir"`
	Provision string `yaml:"provision"`
	Seed      int64  `yaml:"seed"`

	Explain      bool          `yaml:"explain"`
	Warmup       int           `yaml:"warmup"`
	Attempts     int           `yaml:"attempts"`
	ClearCaches  bool          `yaml:"clear_caches"`
	QueryTimeout time.Duration `yaml:"query_timeout"`

	Results StorageConfig `yaml:"results"`
}

type StorageConfig struct {
	Url       string `yaml:"url"`
	Database  string `yaml:"database"`
	AuthToken string `yaml:"auth_token"`
	OrgName   string `yaml:"org_name"`
	GroupName string `yaml:"group_name"`
	ApiToken  string `yaml:"api_token"`
	ApiUrl    string `yaml:"api_url"`
}

func DefaultConfig() Config {
	return Config{
		Mode:          ModeBenchmark,
		Engine:        "mysql",
		Host:          "127.0.0.1",
		User:          "root",
		Password:      "Secret5555",
		Database:      "ecommerce_db",
		ContainerName: "prog8850-assignment5-db-1",
		SslMode:       "disable",
		DbPath:        "ecommerce.db",
		DataDir:       "data",
		Provision:     ProvisionAuto,
		Seed:          1,
		Explain:       true,
		Attempts:      1,
		Results: StorageConfig{
			GroupName: "default",
			ApiUrl:    "https://api.turso.tech",
		},
	}
}

// LoadConfig layers defaults, the optional YAML file and BENCHMARK_*
// environment variables, in that order. The .env files are exported first so
// they can also point at the YAML file through BENCHMARK_CONFIG.
func LoadConfig(path string, dotenv ...string) (Config, error) {
	if err := LoadDotEnv(dotenv...); err != nil {
		return Config{}, err
	}
	if path == "" {
		path = StringEnv("BENCHMARK_CONFIG", "")
	}
	config := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %v: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parse config %v: %w", path, err)
		}
	}
	config.applyEnv()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// LoadDotEnv exports variables from .env files; missing files are skipped and
// variables already present in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		err := godotenv.Load(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load env file %v: %w", file, err)
		}
		Logger.Debugf("loaded environment from %v", file)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Mode = StringEnv("BENCHMARK_MODE", c.Mode)
	c.Engine = StringEnv("BENCHMARK_ENGINE", c.Engine)
	c.Host = StringEnv("BENCHMARK_HOST", c.Host)
	c.Port = IntEnv("BENCHMARK_PORT", c.Port)
	c.User = StringEnv("BENCHMARK_USER", c.User)
	c.Password = StringEnv("BENCHMARK_PASSWORD", c.Password)
	c.Database = StringEnv("BENCHMARK_DATABASE", c.Database)
	c.ContainerName = StringEnv("BENCHMARK_CONTAINER_NAME", c.ContainerName)
	c.SslMode = StringEnv("BENCHMARK_SSLMODE", c.SslMode)
	c.Dsn = StringEnv("BENCHMARK_DSN", c.Dsn)
	c.DbPath = StringEnv("BENCHMARK_DB_PATH", c.DbPath)
	c.DataDir = StringEnv("BENCHMARK_DATA_DIR", c.DataDir)
	c.Provision = StringEnv("BENCHMARK_PROVISION", c.Provision)
	c.Seed = int64(IntEnv("BENCHMARK_SEED", int(c.Seed)))
	c.Explain = BoolEnv("BENCHMARK_EXPLAIN", c.Explain)
	c.Warmup = IntEnv("BENCHMARK_WARMUP", c.Warmup)
	c.Attempts = IntEnv("BENCHMARK_ATTEMPTS", c.Attempts)
	c.ClearCaches = BoolEnv("BENCHMARK_CLEAR_CACHES", c.ClearCaches)
	c.QueryTimeout = DurationEnv("BENCHMARK_QUERY_TIMEOUT", c.QueryTimeout)
	c.Results.Url = StringEnv("RESULTS_URL", c.Results.Url)
	c.Results.Database = StringEnv("TURSO_DB_NAME", c.Results.Database)
	c.Results.AuthToken = StringEnv("TURSO_AUTH_TOKEN", c.Results.AuthToken)
	c.Results.OrgName = StringEnv("TURSO_ORG_NAME", c.Results.OrgName)
	c.Results.GroupName = StringEnv("TURSO_GROUP_NAME", c.Results.GroupName)
	c.Results.ApiToken = StringEnv("TURSO_API_TOKEN", c.Results.ApiToken)
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeBenchmark, ModeCheck:
	default:
		return fmt.Errorf("unknown mode '%v'", c.Mode)
	}
	switch c.Provision {
	case ProvisionAuto, ProvisionSynthetic, ProvisionCsv, ProvisionNone:
	default:
		return fmt.Errorf("unknown provision mode '%v'", c.Provision)
	}
	if _, err := RunnerFor(c.Engine); err != nil {
		return err
	}
	if c.Attempts < 1 {
		return fmt.Errorf("attempts must be positive, got %v", c.Attempts)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %v", c.Warmup)
	}
	return nil
}

func (c Config) Addr(defaultPort int) string {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%v:%v", c.Host, port)
}

func StringEnv(key string, def string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return value
}

func IntEnv(key string, def int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func BoolEnv(key string, def bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

func DurationEnv(key string, def time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
