package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "EKS_GATEWAY_CONFIG_PATH"

type Server struct {
	ListenAddress string `yaml:"listenAddress"`
	TLSCertFile   string `yaml:"tlsCertFile"`
	TLSKeyFile    string `yaml:"tlsKeyFile"`
}

// Cluster identifies the target EKS cluster and bounds the bootstrap calls.
type Cluster struct {
	Name   string `yaml:"name"`
	Region string `yaml:"region"`
	// BuildTimeout bounds one full session build attempt (e.g. "45s").
	BuildTimeout string `yaml:"buildTimeout"`
	// RequestTimeout bounds individual cluster API requests (e.g. "30s").
	RequestTimeout string `yaml:"requestTimeout"`
}

// Audit configures the operation audit trail. Events always go to the
// structured log; a Kafka topic is added when brokers are configured.
type Audit struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	// TLSInsecureSkipVerify disables broker certificate verification.
	// Testing only.
	TLSInsecureSkipVerify bool `yaml:"tlsInsecureSkipVerify"`
}

type Config struct {
	Server  Server  `yaml:"server"`
	Cluster Cluster `yaml:"cluster"`
	Audit   Audit   `yaml:"audit"`
}

// Defaults fills unset fields with their defaults.
func (c *Config) Defaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
}

// Validate fails fast on configuration the first build attempt would reject
// anyway. Cluster name and region have no defaults on purpose.
func (c *Config) Validate() error {
	if c.Cluster.Name == "" {
		return fmt.Errorf("cluster.name is required (or set EKS_CLUSTER_NAME)")
	}
	if c.Cluster.Region == "" {
		return fmt.Errorf("cluster.region is required (or set EKS_REGION)")
	}
	if _, err := c.ClusterBuildTimeout(); err != nil {
		return err
	}
	if _, err := c.ClusterRequestTimeout(); err != nil {
		return err
	}
	return nil
}

// ClusterBuildTimeout parses cluster.buildTimeout; zero means use the default.
func (c *Config) ClusterBuildTimeout() (time.Duration, error) {
	return parseOptionalDuration("cluster.buildTimeout", c.Cluster.BuildTimeout)
}

// ClusterRequestTimeout parses cluster.requestTimeout; zero means use the default.
func (c *Config) ClusterRequestTimeout() (time.Duration, error) {
	return parseOptionalDuration("cluster.requestTimeout", c.Cluster.RequestTimeout)
}

func parseOptionalDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %v", field, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", field, value)
	}
	return d, nil
}

// Load reads the gateway configuration from a file path. If configPath is
// empty, defaults to "./config.yaml"; EKS_GATEWAY_CONFIG_PATH overrides
// both. EKS_CLUSTER_NAME and EKS_REGION override the cluster identity,
// which lets the file omit it entirely in containerized deployments.
func Load(configPath ...string) (Config, error) {
	path := "./config.yaml"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		path = env
	}

	var config Config

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return config, fmt.Errorf("trying to open gateway config file %s: %v", path, err)
		}
		// No file is fine when the identity comes from the environment.
	} else if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("error unmarshaling YAML %s: %v", path, err)
	}

	if name := os.Getenv("EKS_CLUSTER_NAME"); name != "" {
		config.Cluster.Name = name
	}
	if region := os.Getenv("EKS_REGION"); region != "" {
		config.Cluster.Region = region
	}

	config.Defaults()
	return config, nil
}
