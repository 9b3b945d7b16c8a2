package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	RecordStorePostgres = "postgres"
	RecordStoreBadger   = "badger"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Addr            string   `yaml:"addr" validate:"required"`
	UploadPath      string   `yaml:"upload_path" validate:"required"`
	MaxUploadSize   int64    `yaml:"max_upload_size" validate:"required,gt=0"` // bytes, per uploaded file
	RecordStore     string   `yaml:"record_store" validate:"required,oneof=postgres badger"`
	BadgerPath      string   `yaml:"badger_path" validate:"required_if=RecordStore badger"`
	UploadRateLimit float64  `yaml:"upload_rate_limit" validate:"gte=0"` // uploads per second per client IP, 0 disables
	UploadBurst     int      `yaml:"upload_burst" validate:"gte=0"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	SecureHeaders   bool     `yaml:"secure_headers"` // adds HSTS, enable behind TLS
	LogLevel        string   `yaml:"log_level"`
	LogJSON         bool     `yaml:"log_json"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Private struct {
	Pg Pg `yaml:"pg"`
}

// DSN is the lib/pq connection string for the configured database.
func (p Pg) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Dbname)
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file " + configPath)
	}

	if err := yaml.UnmarshalStrict(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder, applies environment
// overrides (a .env file in the working directory is honoured) and validates the result.
// The upload path is resolved to an absolute, cleaned path.
func MustLoad(configFolder string) *Config {
	_ = godotenv.Load()

	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	if public.RecordStore == RecordStorePostgres {
		mustLoadPath(path.Join(configFolder, "private.yaml"), &private)
	}

	cfg := &Config{Public: public, Private: private}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		panic("invalid config: " + err.Error())
	}

	uploadPath, err := filepath.Abs(cfg.Public.UploadPath)
	if err != nil {
		panic("can't resolve upload path: " + err.Error())
	}
	cfg.Public.UploadPath = filepath.Clean(uploadPath)

	return cfg
}

// Validate checks required fields; Postgres credentials are only required for the postgres store.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&c.Public); err != nil {
		return err
	}
	if c.Public.RecordStore == RecordStorePostgres {
		return validate.Struct(&c.Private)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("IMAGESTORE_ADDR"); v != "" {
		cfg.Public.Addr = v
	}
	if v := os.Getenv("IMAGESTORE_UPLOAD_PATH"); v != "" {
		cfg.Public.UploadPath = v
	}
	if v := os.Getenv("IMAGESTORE_LOG_LEVEL"); v != "" {
		cfg.Public.LogLevel = v
	}
	if v := os.Getenv("IMAGESTORE_PG_HOST"); v != "" {
		cfg.Private.Pg.Host = v
	}
	if v := os.Getenv("IMAGESTORE_PG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Private.Pg.Port = port
		}
	}
	if v := os.Getenv("IMAGESTORE_PG_PASSWORD"); v != "" {
		cfg.Private.Pg.Password = v
	}
}
