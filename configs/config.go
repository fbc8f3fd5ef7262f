package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/oastypes/oastypes/internal/adapter/outbound/github"
)

// Target describes one generation run: a schema source, the Go package to
// emit into, and where to write the result.
type Target struct {
	Spec    string            `yaml:"spec"`
	Package string            `yaml:"package"`
	Out     string            `yaml:"out"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// FileConfig defines the structure loaded from the YAML configuration file.
type FileConfig struct {
	Targets []interface{} `yaml:"targets"`
}

// Config holds the final application configuration, merged from file and
// environment variables. Environment variables use the prefix "OASTYPES_"
// and override file settings.
type Config struct {
	// Config File Path (loaded first from env)
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// File-loaded fields (merged)
	Targets []Target

	// Environment-overridable fields
	ProjectRoot              string        `envconfig:"PROJECT_ROOT" default:"."`
	HTTPClientTimeout        time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`
	Strict                   bool          `envconfig:"STRICT" default:"false"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration first from environment variables (to get the
// file path), then from the YAML file when one is specified, and finally
// processes environment variables again so they win over file settings.
func Load() (*Config, error) {
	var initialCfg Config
	if err := envconfig.Process("oastypes", &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		var yamlFile []byte
		var err error

		if github.IsGitHubURL(initialCfg.ConfigFilePath) {
			yamlFile, err = github.LoadGitHubConfig(initialCfg.ConfigFilePath)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from GitHub '%s': %w", initialCfg.ConfigFilePath, err)
			}
			slog.Info("Loaded configuration from GitHub.", "url", initialCfg.ConfigFilePath)
		} else {
			yamlFile, err = os.ReadFile(initialCfg.ConfigFilePath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
			}
			slog.Info("Loaded configuration from file.", "path", initialCfg.ConfigFilePath)
		}

		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
	}

	finalCfg := initialCfg

	// Targets accept both a bare string (the spec URL, with defaults for
	// the rest) and the full object form.
	finalCfg.Targets = make([]Target, 0, len(fileCfg.Targets))
	for _, raw := range fileCfg.Targets {
		switch v := raw.(type) {
		case string:
			finalCfg.Targets = append(finalCfg.Targets, Target{Spec: v})
		case map[string]interface{}:
			t := Target{}
			if spec, ok := v["spec"].(string); ok {
				t.Spec = spec
			}
			if pkg, ok := v["package"].(string); ok {
				t.Package = pkg
			}
			if out, ok := v["out"].(string); ok {
				t.Out = out
			}
			if headers, ok := v["headers"].(map[string]interface{}); ok {
				t.Headers = make(map[string]string)
				for k, val := range headers {
					if strVal, ok := val.(string); ok {
						t.Headers[k] = strVal
					}
				}
			}
			if t.Spec == "" {
				slog.Warn("Ignoring target without a spec field.", "target", v)
				continue
			}
			finalCfg.Targets = append(finalCfg.Targets, t)
		default:
			slog.Warn("Ignoring invalid target format.", "target", raw)
		}
	}

	// Process environment variables again to allow overrides over file settings.
	if err := envconfig.Process("oastypes", &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}

	return &finalCfg, nil
}
