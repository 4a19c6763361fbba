// Package config assembles the runtime configuration shared by the server,
// the worker and the command line tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/util"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names an optional YAML file read before environment
// variables are applied.
const EnvConfigFile = "FILIATIE_CONFIG"

type Config struct {
	Port    string `yaml:"port"`
	Debug   bool   `yaml:"debug"`
	LogJSON bool   `yaml:"log_json"`

	LineageEndpoint  string        `yaml:"lineage_endpoint"`
	GeometryEndpoint string        `yaml:"geometry_endpoint"`
	SPARQLTimeout    time.Duration `yaml:"sparql_timeout"`

	// CacheDSN selects the response cache: "memory", "sqlite:<path>" or a
	// postgres:// URL. Empty disables caching.
	CacheDSN string        `yaml:"cache"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	RabbitMQ RabbitMQ `yaml:"rabbitmq"`
	S3       S3       `yaml:"s3"`
}

type RabbitMQ struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
}

// URL returns the AMQP connection URL, or "" when no host is configured.
func (r RabbitMQ) URL() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, r.Port)
}

type S3 struct {
	Region         string        `yaml:"region"`
	Endpoint       string        `yaml:"endpoint"`
	PublicEndpoint string        `yaml:"public_endpoint"`
	AccessKey      string        `yaml:"access_key"`
	SecretKey      string        `yaml:"secret_key"`
	Bucket         string        `yaml:"bucket"`
	LinkExpiry     time.Duration `yaml:"link_expiry"`
}

func Default() Config {
	return Config{
		Port:             "8080",
		LineageEndpoint:  explorer.DefaultLineageEndpoint,
		GeometryEndpoint: explorer.DefaultGeometryEndpoint,
		RabbitMQ:         RabbitMQ{Port: "5672"},
		S3:               S3{LinkExpiry: 15 * time.Minute},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by FILIATIE_CONFIG and finally the environment.
func Load() (Config, error) {
	cfg := Default()

	if path := util.GetEnv(EnvConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = util.GetEnvString("PORT", c.Port)
	c.Debug = util.GetEnvBool("DEBUG", c.Debug)
	c.LogJSON = util.GetEnvBool("LOG_JSON", c.LogJSON)

	c.LineageEndpoint = util.GetEnvString("SPARQL_LINEAGE_ENDPOINT", c.LineageEndpoint)
	c.GeometryEndpoint = util.GetEnvString("SPARQL_GEOMETRY_ENDPOINT", c.GeometryEndpoint)
	c.SPARQLTimeout = util.GetEnvDuration("SPARQL_TIMEOUT", c.SPARQLTimeout)

	c.CacheDSN = util.GetEnvString("CACHE_DSN", c.CacheDSN)
	c.CacheTTL = util.GetEnvDuration("CACHE_TTL", c.CacheTTL)

	c.RabbitMQ.User = util.GetEnvString("RABBITMQ_USER", c.RabbitMQ.User)
	c.RabbitMQ.Password = util.GetEnvString("RABBITMQ_PASSWORD", c.RabbitMQ.Password)
	c.RabbitMQ.Host = util.GetEnvString("RABBITMQ_HOST", c.RabbitMQ.Host)
	c.RabbitMQ.Port = util.GetEnvString("RABBITMQ_PORT", c.RabbitMQ.Port)

	c.S3.Region = util.GetEnvString("AWS_REGION", c.S3.Region)
	c.S3.Endpoint = util.GetEnvString("AWS_ENDPOINT", c.S3.Endpoint)
	c.S3.PublicEndpoint = util.GetEnvString("AWS_PUBLIC_ENDPOINT", c.S3.PublicEndpoint)
	c.S3.AccessKey = util.GetEnvString("AWS_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = util.GetEnvString("AWS_SECRET_KEY", c.S3.SecretKey)
	c.S3.Bucket = util.GetEnvString("AWS_BUCKET", c.S3.Bucket)
	c.S3.LinkExpiry = util.GetEnvDuration("AWS_LINK_EXPIRY", c.S3.LinkExpiry)
}

func (c Config) Validate() error {
	var errs []error
	if c.LineageEndpoint == "" {
		errs = append(errs, errors.New("lineage endpoint is required"))
	}
	if c.GeometryEndpoint == "" {
		errs = append(errs, errors.New("geometry endpoint is required"))
	}
	if c.SPARQLTimeout < 0 {
		errs = append(errs, errors.New("sparql timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Endpoints returns the SPARQL endpoints in the form the explorer expects.
func (c Config) Endpoints() explorer.Endpoints {
	return explorer.Endpoints{Lineage: c.LineageEndpoint, Geometry: c.GeometryEndpoint}
}

// ExportsEnabled reports whether both the queue and the bucket are set up.
func (c Config) ExportsEnabled() bool {
	return c.RabbitMQ.URL() != "" && c.S3.Bucket != ""
}
